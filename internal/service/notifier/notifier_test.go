package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/acmepay/walletd/internal/logger"
	"github.com/acmepay/walletd/internal/models"
)

// Sink that collects delivered events
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Send(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) delivered() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcher(t *testing.T) {
	newRequest := func(status string) models.WithdrawalRequest {
		return models.WithdrawalRequest{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Amount: decimal.NewFromInt(100),
			Status: status,
		}
	}

	t.Run("delivers enqueued events", func(t *testing.T) {
		sink := &recordingSink{}
		d := New(sink, logger.NewNoOpLogger())

		ctx, cancel := context.WithCancel(t.Context())
		stopped := d.Run(ctx)

		req := newRequest(models.WithdrawalStatusApproved)
		d.NotifyReviewed(req)

		require.Eventually(t, func() bool {
			return len(sink.delivered()) == 1
		}, time.Second, 10*time.Millisecond, "event should be delivered to the sink")

		event := sink.delivered()[0]
		require.Equal(t, req.ID.String(), event.RequestID)
		require.Equal(t, req.UserID.String(), event.UserID)
		require.Equal(t, models.WithdrawalStatusApproved, event.Status)
		require.Equal(t, "100", event.Amount)

		cancel()
		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("workers should stop after context cancellation")
		}
	})

	t.Run("enqueue never blocks", func(t *testing.T) {
		sink := &recordingSink{}
		d := New(sink, logger.NewNoOpLogger())

		// Workers not running: fill the queue past its capacity.
		// Overflow must be dropped, not block the caller.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < defaultQueueSize+10; i++ {
				d.NotifyReviewed(newRequest(models.WithdrawalStatusRejected))
			}
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("NotifyReviewed should never block even with a full queue")
		}
	})

	t.Run("default sink used when nil", func(t *testing.T) {
		d := New(nil, logger.NewNoOpLogger())
		require.NotNil(t, d.sink, "dispatcher should fall back to the log sink")
	})
}
