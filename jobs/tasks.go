package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/vantage-books/vantage/internal/aging"
	"github.com/vantage-books/vantage/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyDispatch delivers a stored notification.
	TaskTypeNotifyDispatch = "notify:dispatch"
	// TaskTypeAgingRefresh re-buckets the cached aging reports.
	TaskTypeAgingRefresh = "aging:refresh"
)

// NotifyDispatchPayload carries the notification to deliver.
type NotifyDispatchPayload struct {
	NotificationID int64  `json:"notificationId"`
	CompanyID      int64  `json:"companyId"`
	Event          string `json:"event"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

// NewNotifyDispatchTask constructs the dispatch task for one notification.
func NewNotifyDispatchTask(payload NotifyDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyDispatch, data), nil
}

// NewAgingRefreshTask constructs the scheduled refresh task.
func NewAgingRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAgingRefresh, nil)
}

// Dispatcher records that a notification left the queue. Satisfied by
// notify.Service.
type Dispatcher interface {
	MarkDispatched(ctx context.Context, id int64) error
}

// HandleNotifyDispatchTask processes TaskTypeNotifyDispatch tasks. Delivery
// is a log line for now; the handler stamps the row so the in-app feed can
// tell queued from delivered.
func HandleNotifyDispatchTask(dispatcher Dispatcher, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyDispatchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("notification dispatched",
			"notification_id", payload.NotificationID,
			"company_id", payload.CompanyID,
			"event", payload.Event,
			"subject", payload.Subject)
		return dispatcher.MarkDispatched(ctx, payload.NotificationID)
	}
}

// HandleAgingRefreshTask processes TaskTypeAgingRefresh tasks.
func HandleAgingRefreshTask(svc *aging.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := svc.RefreshAll(ctx); err != nil {
			logger.Error("aging refresh failed", "error", err)
			return err
		}
		return nil
	}
}

// Enqueuer submits notification dispatch jobs. It satisfies
// notify.Enqueuer.
type Enqueuer struct {
	client *Client
}

// NewEnqueuer wraps a Client for the notify service.
func NewEnqueuer(client *Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueDispatch schedules delivery of one stored notification.
func (e *Enqueuer) EnqueueDispatch(ctx context.Context, n notify.Notification) error {
	task, err := NewNotifyDispatchTask(NotifyDispatchPayload{
		NotificationID: n.ID,
		CompanyID:      n.CompanyID,
		Event:          n.Event,
		Subject:        n.Subject,
		Body:           n.Body,
	})
	if err != nil {
		return err
	}
	_, err = e.client.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}
