package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/pkg/jobs"
)

// Notification kinds pushed back to the messaging platform.
const (
	KindHomeworkAssigned    = "homework_assigned"
	KindSubmissionUploaded  = "submission_uploaded"
	KindSubmissionGraded    = "submission_graded"
	KindLowBalance          = "low_balance"
	KindSubscriptionApplied = "subscription_applied"
)

// Message is one outbound notification addressed by messaging identity.
type Message struct {
	Kind        string `json:"kind"`
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// Sender delivers a notification to the messaging platform. Implementations
// must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes notifications to the log instead of a real gateway.
// Used in development and as the fallback when no gateway is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Sugar().Infow("notification",
		"kind", msg.Kind,
		"recipient", msg.RecipientID,
		"text", msg.Text,
	)
	return nil
}

// Dispatcher fans notifications out through a background worker queue.
// Delivery is fire-and-forget: a failed send never fails the API call that
// triggered it.
type Dispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// Config tunes the dispatcher's worker pool.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// NewDispatcher wires a sender behind a worker queue.
func NewDispatcher(sender Sender, cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(Message)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return sender.Send(ctx, msg)
	}
	queue := jobs.NewQueue("notifications", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &Dispatcher{queue: queue, logger: logger}
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the worker pool.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Notify enqueues a message. Recipients without a messaging identity are
// skipped silently; enqueue errors are logged, never propagated.
func (d *Dispatcher) Notify(msg Message) {
	if msg.RecipientID == "" {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    msg.Kind,
		Payload: msg,
	}
	if err := d.queue.Enqueue(job); err != nil {
		d.logger.Sugar().Warnw("dropped notification", "kind", msg.Kind, "error", err)
	}
}
