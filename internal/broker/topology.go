// Package broker holds the RabbitMQ topology shared by the report publisher
// and the notification consumer. Both sides declare it on connect.
package broker

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName    = "clickclean.events"
	DLXExchangeName = "clickclean.events.dlx"

	QueueReportCreated    = "queue.report_created"
	QueueReportCreatedDLQ = "queue.report_created.dlq"

	RoutingKeyReportCreated = "report.created"

	dlqMessageTTL = int64(24 * time.Hour / time.Millisecond)
)

type QueueConfig struct {
	QueueName     string
	RoutingKey    string
	DLQName       string
	DLQRoutingKey string
}

var QueueConfigs = []QueueConfig{
	{
		QueueName:     QueueReportCreated,
		RoutingKey:    RoutingKeyReportCreated,
		DLQName:       QueueReportCreatedDLQ,
		DLQRoutingKey: "dlq.report_created",
	},
}

// Declarer is the part of *amqp.Channel used to declare the topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// QueueArgs returns the declare arguments for name, which must be the main
// queue or the DLQ of qc. Declares with different arguments are rejected by
// the broker, so every caller goes through here.
func QueueArgs(qc QueueConfig, name string) amqp.Table {
	if name == qc.DLQName {
		return amqp.Table{"x-message-ttl": dlqMessageTTL}
	}
	return amqp.Table{
		"x-dead-letter-exchange":    DLXExchangeName,
		"x-dead-letter-routing-key": qc.DLQRoutingKey,
	}
}

// Declare creates both exchanges and every queue with its DLQ and bindings.
// It is idempotent.
func Declare(ch Declarer) error {
	for _, name := range []string{ExchangeName, DLXExchangeName} {
		err := ch.ExchangeDeclare(
			name,
			"topic",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("exchange declare %s: %w", name, err)
		}
	}

	for _, qc := range QueueConfigs {
		// DLQ first so rejected messages always have somewhere to go
		if _, err := ch.QueueDeclare(qc.DLQName, true, false, false, false, QueueArgs(qc, qc.DLQName)); err != nil {
			return fmt.Errorf("dlq declare %s: %w", qc.DLQName, err)
		}
		if err := ch.QueueBind(qc.DLQName, qc.DLQRoutingKey, DLXExchangeName, false, nil); err != nil {
			return fmt.Errorf("dlq bind %s: %w", qc.DLQName, err)
		}

		if _, err := ch.QueueDeclare(qc.QueueName, true, false, false, false, QueueArgs(qc, qc.QueueName)); err != nil {
			return fmt.Errorf("queue declare %s: %w", qc.QueueName, err)
		}
		if err := ch.QueueBind(qc.QueueName, qc.RoutingKey, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind %s->%s: %w", qc.QueueName, qc.RoutingKey, err)
		}
	}
	return nil
}
