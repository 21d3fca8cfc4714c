// Package notify records in-app notifications and hands delivery off to
// the background worker.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vantage-books/vantage/internal/shared"
)

// Event names published by the document services.
const (
	EventQuotationSent     = "quotation.sent"
	EventQuotationAccepted = "quotation.accepted"
	EventQuotationRejected = "quotation.rejected"
)

// Notification is a persisted in-app message for one company.
type Notification struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"companyId"`
	Event     string    `json:"event"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
	// DispatchedAt is set by the background worker once delivery ran.
	DispatchedAt *time.Time `json:"dispatchedAt,omitempty"`
}

// RepositoryPort abstracts notification storage.
type RepositoryPort interface {
	Insert(ctx context.Context, n Notification) (Notification, error)
	ListByCompany(ctx context.Context, companyID int64) ([]Notification, error)
	MarkRead(ctx context.Context, companyID, id int64) error
	MarkDispatched(ctx context.Context, id int64) error
}

// Enqueuer hands a stored notification to the background dispatcher.
// Implemented by the jobs package over asynq.
type Enqueuer interface {
	EnqueueDispatch(ctx context.Context, n Notification) error
}

var ErrNotificationNotFound = fmt.Errorf("notify: notification %w", shared.ErrNotFound)

// Service stores notifications and enqueues their delivery. Persistence is
// the source of truth; the dispatch queue is best effort and a failed
// enqueue only logs.
type Service struct {
	repo     RepositoryPort
	enqueuer Enqueuer
	logger   *slog.Logger
}

func NewService(repo RepositoryPort, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, enqueuer: enqueuer, logger: logger}
}

// Publish stores the notification and schedules delivery.
func (s *Service) Publish(ctx context.Context, companyID int64, event, subject, body string) (Notification, error) {
	n, err := s.repo.Insert(ctx, Notification{
		CompanyID: companyID,
		Event:     event,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return Notification{}, err
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueDispatch(ctx, n); err != nil && s.logger != nil {
			s.logger.Warn("notification enqueue failed", "event", event, "company_id", companyID, "error", err)
		}
	}
	return n, nil
}

// ListByCompany returns a company's notifications, newest first.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]Notification, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(ctx context.Context, companyID, id int64) error {
	return s.repo.MarkRead(ctx, companyID, id)
}

// MarkDispatched stamps the delivery time. Called by the background worker.
func (s *Service) MarkDispatched(ctx context.Context, id int64) error {
	return s.repo.MarkDispatched(ctx, id)
}
