package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	stored []Notification
	nextID int64
}

func (m *memoryRepo) Insert(ctx context.Context, n Notification) (Notification, error) {
	m.nextID++
	n.ID = m.nextID
	m.stored = append(m.stored, n)
	return n, nil
}

func (m *memoryRepo) ListByCompany(ctx context.Context, companyID int64) ([]Notification, error) {
	var out []Notification
	for i := len(m.stored) - 1; i >= 0; i-- {
		if m.stored[i].CompanyID == companyID {
			out = append(out, m.stored[i])
		}
	}
	return out, nil
}

func (m *memoryRepo) MarkRead(ctx context.Context, companyID, id int64) error {
	for i, n := range m.stored {
		if n.CompanyID == companyID && n.ID == id {
			m.stored[i].Read = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (m *memoryRepo) MarkDispatched(ctx context.Context, id int64) error {
	for i, n := range m.stored {
		if n.ID == id && n.DispatchedAt == nil {
			now := time.Now()
			m.stored[i].DispatchedAt = &now
			return nil
		}
	}
	return nil
}

type fakeEnqueuer struct {
	enqueued []Notification
	fail     error
}

func (f *fakeEnqueuer) EnqueueDispatch(ctx context.Context, n Notification) error {
	if f.fail != nil {
		return f.fail
	}
	f.enqueued = append(f.enqueued, n)
	return nil
}

func TestPublishStoresAndEnqueues(t *testing.T) {
	repo := &memoryRepo{}
	enq := &fakeEnqueuer{}
	svc := NewService(repo, enq, nil)

	n, err := svc.Publish(context.Background(), 1, EventQuotationAccepted, "Quotation accepted", "QT-2026-0001 was accepted")
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	require.Len(t, enq.enqueued, 1)
	assert.Equal(t, EventQuotationAccepted, enq.enqueued[0].Event)
	assert.WithinDuration(t, time.Now(), n.CreatedAt, time.Second)
}

func TestPublishSurvivesEnqueueFailure(t *testing.T) {
	repo := &memoryRepo{}
	enq := &fakeEnqueuer{fail: errors.New("redis down")}
	svc := NewService(repo, enq, nil)

	n, err := svc.Publish(context.Background(), 1, EventQuotationSent, "Quotation sent", "")
	require.NoError(t, err, "a dead queue must not lose the notification")
	assert.NotZero(t, n.ID)

	list, err := svc.ListByCompany(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkRead(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil, nil)

	n, err := svc.Publish(context.Background(), 1, EventQuotationRejected, "Quotation rejected", "")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), 1, n.ID))
	assert.ErrorIs(t, svc.MarkRead(context.Background(), 2, n.ID), ErrNotificationNotFound)
}

func TestMarkDispatchedIsIdempotent(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil, nil)

	n, err := svc.Publish(context.Background(), 1, EventQuotationSent, "Quotation sent", "")
	require.NoError(t, err)

	require.NoError(t, svc.MarkDispatched(context.Background(), n.ID))
	first := repo.stored[0].DispatchedAt
	require.NotNil(t, first)

	require.NoError(t, svc.MarkDispatched(context.Background(), n.ID))
	assert.Equal(t, first, repo.stored[0].DispatchedAt, "a redelivered task must not restamp")
}
