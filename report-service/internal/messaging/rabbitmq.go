package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/broker"
)

const (
	ExchangeName            = broker.ExchangeName
	RoutingKeyReportCreated = broker.RoutingKeyReportCreated

	reconnectDelay = 5 * time.Second
	publishTimeout = 5 * time.Second
)

// ReportCreatedMessage is published once a report has been stored.
type ReportCreatedMessage struct {
	ReportID     string `json:"report_id"`
	City         string `json:"city"`
	Area         string `json:"area"`
	WasteType    string `json:"waste_type"`
	Urgency      string `json:"urgency"`
	Description  string `json:"description"`
	PhotoKey     string `json:"photo_key"`
	ContactEmail string `json:"contact_email,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// RabbitMQ holds one publishing channel and reconnects when the broker
// closes the connection. It declares the consumer queues as well as the
// exchange.
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
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := broker.Declare(r.channel); err != nil {
		return fmt.Errorf("failed to declare topology: %w", err)
	}

	r.logger.Info("connected", "exchange", ExchangeName)
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
				r.logger.Warn("connection lost, reconnecting", "error", err)
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
					r.logger.Error("reconnect failed", "error", err, "retry_in", reconnectDelay)
					time.Sleep(reconnectDelay)
					continue
				}
				break
			}
			r.mu.Unlock()
		}
	}
}

// Publish marshals message to JSON and publishes it under routingKey.
func (r *RabbitMQ) Publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return r.PublishRaw(ctx, uuid.NewString(), routingKey, body)
}

// PublishRaw publishes an already encoded JSON body. messageID lets the
// consumer drop duplicates.
func (r *RabbitMQ) PublishRaw(ctx context.Context, messageID, routingKey string, body []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil {
		return fmt.Errorf("channel not available")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := r.channel.PublishWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	r.logger.Debug("published", "routing_key", routingKey, "message_id", messageID)
	return nil
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

	r.logger.Info("connection closed")
}
