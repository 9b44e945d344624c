package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/pkg/jobs"
)

type welcomePayload struct {
	Phone string
	Text  string
}

// Dispatcher queues welcome messages onto a background worker pool so
// gateway latency and retries never block the webhook critical path.
type Dispatcher struct {
	queue *jobs.Queue
}

// NewDispatcher wires a WhatsApp client behind a jobs queue.
func NewDispatcher(client *WhatsAppClient, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(welcomePayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return client.Send(ctx, payload.Phone, payload.Text)
	}
	// The WhatsApp client owns the bounded retry, so the queue itself only
	// requeues once.
	queue := jobs.NewQueue("welcome-messages", handler, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		Logger:     logger,
	})
	return &Dispatcher{queue: queue}
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the worker pool.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Send implements the orchestrator's Notifier contract: it only enqueues,
// returning immediately.
func (d *Dispatcher) Send(_ context.Context, phone, text string) error {
	return d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "welcome",
		Payload: welcomePayload{Phone: phone, Text: text},
	})
}
