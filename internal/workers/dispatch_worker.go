package workers

import (
	"context"
	"encoding/json"
	"time"

	"dial2tech_backend/internal/logger"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/push"
	"dial2tech_backend/internal/repositories"
)

// EmailSender delivers one prepared outbox email.
type EmailSender interface {
	Send(to, subject, body string) error
}

// DispatchWorker drains the dispatch outbox: it polls for pending rows and
// delivers each over its channel. Delivery is at least once; a failed row
// stays pending until it runs out of attempts.
type DispatchWorker struct {
	outboxRepo  repositories.OutboxRepository
	pushSender  push.Sender
	emailSender EmailSender

	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewDispatchWorker(
	outboxRepo repositories.OutboxRepository,
	pushSender push.Sender,
	emailSender EmailSender,
	interval time.Duration,
	batchSize int,
	maxAttempts int,
) *DispatchWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &DispatchWorker{
		outboxRepo:  outboxRepo,
		pushSender:  pushSender,
		emailSender: emailSender,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

func (w *DispatchWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *DispatchWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("dispatch worker stopped")
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				logger.WorkerLog("dispatch", "drain", err)
			}
		}
	}
}

// Drain processes one batch of pending dispatches. It is exported so the
// poll loop and tests share the same path.
func (w *DispatchWorker) Drain(ctx context.Context) error {
	dispatches, err := w.outboxRepo.ClaimPending(w.batchSize)
	if err != nil {
		return err
	}

	for i := range dispatches {
		d := &dispatches[i]
		attempt := d.Attempts + 1

		err := w.deliver(ctx, d)
		logger.DispatchLog(d.ID, string(d.Channel), d.Event, attempt, err)

		if err != nil {
			terminal := attempt >= w.maxAttempts
			if markErr := w.outboxRepo.MarkFailed(d.ID, attempt, err.Error(), terminal); markErr != nil {
				logger.WorkerLog("dispatch", "mark_failed", markErr)
			}
			continue
		}
		if markErr := w.outboxRepo.MarkSent(d.ID); markErr != nil {
			logger.WorkerLog("dispatch", "mark_sent", markErr)
		}
	}
	return nil
}

func (w *DispatchWorker) deliver(ctx context.Context, d *models.DispatchOutbox) error {
	switch d.Channel {
	case models.DispatchChannelPush:
		return w.pushSender.Send(ctx, &push.Message{
			Token: d.Recipient,
			Title: d.Subject,
			Body:  d.Body,
			Data:  decodePayload(d.Payload),
		})
	default:
		return w.emailSender.Send(d.Recipient, d.Subject, d.Body)
	}
}

func decodePayload(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}
