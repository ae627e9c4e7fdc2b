package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/model"
)

const (
	maxRetryAttempts = 3
	initialDelay     = 1 * time.Second
	maxDelay         = 30 * time.Second
	consumeRetry     = 5 * time.Second
)

type DeliverySource interface {
	ConsumeQueue(queueName string) (<-chan amqp.Delivery, error)
}

type ProcessedStore interface {
	IsMessageProcessed(ctx context.Context, messageID string) (bool, error)
	MarkMessageProcessed(ctx context.Context, messageID string) error
}

type ReportNotifier interface {
	NotifyReportCreated(ctx context.Context, msg model.ReportCreatedMessage) error
}

// ReportCreatedConsumer turns report.created events into emails. Each
// message is tried a few times before it is dead-lettered.
type ReportCreatedConsumer struct {
	source    DeliverySource
	processed ProcessedStore
	notifier  ReportNotifier
	logger    *slog.Logger
	delay     time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewReportCreatedConsumer(source DeliverySource, processed ProcessedStore, notifier ReportNotifier, logger *slog.Logger) *ReportCreatedConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &ReportCreatedConsumer{
		source:    source,
		processed: processed,
		notifier:  notifier,
		logger:    logger.With("component", "consumer", "queue", QueueReportCreated),
		delay:     initialDelay,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *ReportCreatedConsumer) Start() {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info("consumer started")
}

func (c *ReportCreatedConsumer) consume() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("consumer stopping")
			return
		default:
		}

		msgs, err := c.source.ConsumeQueue(QueueReportCreated)
		if err != nil {
			c.logger.Warn("consume failed", "error", err, "retry_in", consumeRetry)
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(consumeRetry):
			}
			continue
		}

		c.logger.Info("listening for messages")
		c.processQueue(msgs)
	}
}

func (c *ReportCreatedConsumer) processQueue(msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("delivery channel closed, reconnecting")
				return
			}
			c.handle(msg)
		}
	}
}

// handle acks a message once it has been mailed or was already mailed,
// drops bodies that cannot be decoded and nacks the rest to the DLQ. A
// message still failing when the consumer stops is requeued.
func (c *ReportCreatedConsumer) handle(msg amqp.Delivery) {
	var event model.ReportCreatedMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.ReportID == "" {
		c.logger.Error("dropping malformed message", "message_id", msg.MessageId, "error", err)
		msg.Ack(false)
		return
	}

	messageID := msg.MessageId
	if messageID == "" {
		messageID = RoutingKeyReportCreated + ":" + event.ReportID
	}
	log := c.logger.With("message_id", messageID, "report_id", event.ReportID)

	processed, err := c.processed.IsMessageProcessed(c.ctx, messageID)
	if err != nil {
		log.Warn("idempotency check failed", "error", err)
	}
	if processed {
		log.Info("already processed")
		msg.Ack(false)
		return
	}

	err = retry.Do(
		func() error {
			return c.notifier.NotifyReportCreated(c.ctx, event)
		},
		retry.Attempts(maxRetryAttempts),
		retry.Delay(c.delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(c.ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("notify failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		if c.ctx.Err() != nil {
			log.Warn("consumer stopping, requeueing message", "error", err)
			msg.Nack(false, true)
			return
		}
		log.Error("notify failed, sending to DLQ", "error", err)
		msg.Nack(false, false)
		return
	}

	if err := c.processed.MarkMessageProcessed(context.WithoutCancel(c.ctx), messageID); err != nil {
		log.Warn("mark processed failed", "error", err)
	}

	msg.Ack(false)
}

func (c *ReportCreatedConsumer) Stop() {
	c.cancel()
	c.wg.Wait()
	c.logger.Info("consumer stopped")
}
