package notifier

import (
	"context"
	"sync"

	"github.com/acmepay/walletd/internal/logger"
	"github.com/acmepay/walletd/internal/models"
)

const (
	defaultCountWorkers = 2
	defaultQueueSize    = 128
)

// Event describes a withdrawal review decision to deliver to the user
type Event struct {
	RequestID string
	UserID    string
	Status    string
	Amount    string
}

// Sink is the delivery backend. Real email delivery lives behind this
// interface; the default sink only logs the event.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// Dispatcher queues review events and delivers them from worker goroutines.
// Enqueueing never blocks: when the queue is full the event is dropped and
// logged, since notifications are best-effort and must never hold up or roll
// back the review itself.
type Dispatcher struct {
	countWorkers int
	events       chan Event
	sink         Sink
	logger       logger.Logger
}

func New(sink Sink, l logger.Logger) *Dispatcher {
	if sink == nil {
		sink = LogSink{logger: l}
	}

	return &Dispatcher{
		countWorkers: defaultCountWorkers,
		events:       make(chan Event, defaultQueueSize),
		sink:         sink,
		logger:       l,
	}
}

// Run starts the delivery workers and returns a channel closed when all of
// them finished after context cancellation
func (d *Dispatcher) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < d.countWorkers; i++ {
		wg.Add(1)
		go func() {
			d.worker(ctx)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		d.logger.Debug("Notifier stopped")
	}()

	return idleStopped
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			if err := d.sink.Send(ctx, event); err != nil {
				d.logger.Warn("Failed to deliver notification", "request_id", event.RequestID, "error", err)
			}
		}
	}
}

// NotifyReviewed enqueues the review decision without blocking
func (d *Dispatcher) NotifyReviewed(req models.WithdrawalRequest) {
	event := Event{
		RequestID: req.ID.String(),
		UserID:    req.UserID.String(),
		Status:    req.Status,
		Amount:    req.Amount.String(),
	}

	select {
	case d.events <- event:
	default:
		d.logger.Warn("Notification queue full, event dropped", "request_id", event.RequestID)
	}
}

// LogSink writes events to the log instead of delivering them anywhere.
// Used when no email backend is configured.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(l logger.Logger) LogSink {
	return LogSink{logger: l}
}

func (s LogSink) Send(_ context.Context, event Event) error {
	s.logger.Info("Withdrawal review notification",
		"request_id", event.RequestID,
		"user_id", event.UserID,
		"status", event.Status,
		"amount", event.Amount,
	)
	return nil
}
