package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// Broker holds one RabbitMQ connection used for consuming, enqueueing and
// publishing status updates.
type Broker struct {
	conn     *amqp.Connection
	queue    string
	exchange string

	mu  sync.Mutex
	pub *amqp.Channel
}

// Dial connects to RabbitMQ and declares the reindex queue and the status
// exchange.
func Dial(url, queue, exchange string) (*Broker, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &Broker{conn: conn, queue: queue, exchange: exchange, pub: ch}, nil
}

// Deliveries opens a consumer channel with manual acks and a prefetch of
// prefetch messages.
func (b *Broker) Deliveries(prefetch int) (<-chan amqp.Delivery, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening consumer channel: %w", err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("setting qos: %w", err)
		}
	}
	msgs, err := ch.Consume(b.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consuming %s: %w", b.queue, err)
	}
	return msgs, nil
}

// Enqueue publishes a reindex request onto the queue.
func (b *Broker) Enqueue(_ context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshalling message: %w", err)
	}
	return b.publish("", b.queue, body, amqp.Persistent)
}

// PublishStatus publishes u on the status exchange.
func (b *Broker) PublishStatus(_ context.Context, u StatusUpdate) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshalling status: %w", err)
	}
	return b.publish(b.exchange, u.RoutingKey(), body, amqp.Transient)
}

func (b *Broker) publish(exchange, key string, body []byte, mode uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.pub.Publish(exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing to %q/%s: %w", exchange, key, err)
	}
	return nil
}

// Close closes the connection and its channels.
func (b *Broker) Close() error {
	return b.conn.Close()
}
