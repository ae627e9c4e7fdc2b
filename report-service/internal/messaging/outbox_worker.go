package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/repository"
)

const (
	workerInterval     = 1 * time.Second
	batchSize          = 50
	cleanupInterval    = 1 * time.Hour
	publishedRetention = 24 * time.Hour
)

type OutboxStore interface {
	Claim(ctx context.Context, limit int) ([]repository.OutboxEntry, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) (repository.OutboxStatus, error)
	PurgePublished(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[repository.OutboxStatus]int, error)
}

type RawPublisher interface {
	PublishRaw(ctx context.Context, messageID, routingKey string, body []byte) error
}

// OutboxWorker publishes report events from the outbox table to RabbitMQ.
type OutboxWorker struct {
	outbox    OutboxStore
	publisher RawPublisher
	logger    *slog.Logger
	now       func() time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewOutboxWorker(outbox OutboxStore, publisher RawPublisher, logger *slog.Logger) *OutboxWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &OutboxWorker{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger.With("component", "outbox"),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (w *OutboxWorker) Start() {
	w.wg.Add(2)
	go w.every(workerInterval, w.publishBatch)
	go w.every(cleanupInterval, w.cleanup)
	w.logger.Info("started")
}

func (w *OutboxWorker) every(interval time.Duration, fn func()) {
	defer w.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// publishBatch publishes one batch of claimed entries. The entry ID is the
// AMQP MessageId so redeliveries can be detected downstream.
func (w *OutboxWorker) publishBatch() {
	entries, err := w.outbox.Claim(w.ctx, batchSize)
	if err != nil {
		w.logger.Error("claim", "error", err)
		return
	}

	// Bookkeeping finishes for entries already published even when stopping.
	bg := context.WithoutCancel(w.ctx)
	for _, e := range entries {
		log := w.logger.With("id", e.ID, "report_id", e.ReportID)

		if err := w.publisher.PublishRaw(w.ctx, e.ID.String(), e.RoutingKey, e.Payload); err != nil {
			status, markErr := w.outbox.MarkFailed(bg, e.ID, err)
			switch {
			case markErr != nil:
				log.Error("mark failed", "error", markErr)
			case status == repository.OutboxFailed:
				log.Error("giving up on event", "attempts", e.Attempts+1, "error", err)
			default:
				log.Warn("publish failed, will retry", "attempts", e.Attempts+1, "error", err)
			}
			continue
		}

		if err := w.outbox.MarkPublished(bg, e.ID); err != nil {
			log.Error("mark published", "error", err)
		}
	}
}

func (w *OutboxWorker) cleanup() {
	deleted, err := w.outbox.PurgePublished(w.ctx, w.now().Add(-publishedRetention))
	if err != nil {
		w.logger.Error("cleanup", "error", err)
	} else if deleted > 0 {
		w.logger.Info("cleaned old messages", "deleted", deleted)
	}
}

func (w *OutboxWorker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.logger.Info("stopped")
}

// Stats returns entry counts per outbox status.
func (w *OutboxWorker) Stats(ctx context.Context) (map[repository.OutboxStatus]int, error) {
	return w.outbox.CountByStatus(ctx)
}
