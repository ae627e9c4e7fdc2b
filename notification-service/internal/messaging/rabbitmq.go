package messaging

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/broker"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/model"
)

const (
	ExchangeName            = broker.ExchangeName
	QueueReportCreated      = broker.QueueReportCreated
	RoutingKeyReportCreated = broker.RoutingKeyReportCreated

	reconnectDelay = 5 * time.Second
	prefetchCount  = 10
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	logger  *slog.Logger
	mu      sync.RWMutex
	done    chan struct{}
}

func NewRabbitMQ(host, port, user, password string, logger *slog.Logger) (*RabbitMQ, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, password, host, port)

	rmq := &RabbitMQ{
		url:    url,
		logger: logger.With("component", "rabbitmq"),
		done:   make(chan struct{}),
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}

	go rmq.handleReconnect()

	return rmq, nil
}

func (r *RabbitMQ) connect() error {
	var err error

	r.conn, err = amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("channel: %w", err)
	}

	if err := r.channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	if err := broker.Declare(r.channel); err != nil {
		return err
	}

	r.logger.Info("connected with DLQ configuration")
	return nil
}

func (r *RabbitMQ) handleReconnect() {
	for {
		r.mu.RLock()
		closed := r.conn.NotifyClose(make(chan *amqp.Error, 1))
		r.mu.RUnlock()

		select {
		case <-r.done:
			return
		case err := <-closed:
			if err != nil {
				r.logger.Warn("disconnected", "error", err)
			}

			r.mu.Lock()
			for {
				select {
				case <-r.done:
					r.mu.Unlock()
					return
				default:
				}
				if err := r.connect(); err != nil {
					r.logger.Error("reconnect failed", "error", err)
					time.Sleep(reconnectDelay)
					continue
				}
				break
			}
			r.mu.Unlock()
		}
	}
}

func (r *RabbitMQ) ConsumeQueue(queueName string) (<-chan amqp.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil {
		return nil, fmt.Errorf("channel not available")
	}

	msgs, err := r.channel.Consume(
		queueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual for retry support)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queueName, err)
	}

	return msgs, nil
}

// QueueStats inspects every main queue and its DLQ. A passive declare fails
// and closes the channel when the queue is missing, so it runs on a
// throwaway channel.
func (r *RabbitMQ) QueueStats() ([]model.QueueStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.conn.IsClosed() {
		return nil, fmt.Errorf("connection not available")
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	defer ch.Close()

	var stats []model.QueueStats
	for _, qc := range broker.QueueConfigs {
		for _, name := range []string{qc.QueueName, qc.DLQName} {
			q, err := ch.QueueDeclarePassive(name, true, false, false, false, broker.QueueArgs(qc, name))
			if err != nil {
				return nil, fmt.Errorf("inspect %s: %w", name, err)
			}
			stats = append(stats, model.QueueStats{Queue: q.Name, Messages: q.Messages, Consumers: q.Consumers})
		}
	}
	return stats, nil
}

func (r *RabbitMQ) Close() {
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
