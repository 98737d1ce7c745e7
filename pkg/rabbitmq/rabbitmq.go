package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Catalog event types. They double as routing keys.
const (
	ProductCreated     = "product.created"
	ProductUpdated     = "product.updated"
	ProductDeactivated = "product.deactivated"
	ProductLowStock    = "product.low_stock"
	CategoryCreated    = "category.created"
	SupplierCreated    = "supplier.created"
)

// DefaultExchange is the topic exchange catalog events go through.
const DefaultExchange = "inventario.catalog"

// CatalogEvent announces a change to the catalog.
type CatalogEvent struct {
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	DocID      string    `json:"doc_id"`
	Name       string    `json:"name,omitempty"`
	Stock      *int      `json:"stock,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
	log      *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ and declares the catalog exchange.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Info("RabbitMQ client connected", zap.String("exchange", exchange))

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		log:      log,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishCatalogEvent publishes ev to the exchange with its type as routing key.
func (c *Client) PublishCatalogEvent(ctx context.Context, ev CatalogEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		c.exchange, // exchange
		ev.Type,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Transient,
			Timestamp:    ev.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.log.Debug("catalog event sent", zap.String("type", ev.Type), zap.String("doc_id", ev.DocID))
	return nil
}

// ConsumeCatalogEvents binds a private queue to every catalog event and hands
// each decoded event to handler until ctx is done. Every replica gets its own
// copy of each event.
func (c *Client) ConsumeCatalogEvents(ctx context.Context, handler func(context.Context, CatalogEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := c.channel.QueueDeclare(
		"",    // name: server generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}
	if err := c.channel.QueueBind(queue.Name, "#", c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("waiting for catalog events", zap.String("queue", queue.Name))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.handle(ctx, msg, handler)
			}
		}
	}()

	return nil
}

func (c *Client) handle(ctx context.Context, msg amqp.Delivery, handler func(context.Context, CatalogEvent) error) {
	ev, err := DecodeCatalogEvent(msg.Body)
	if err == nil {
		err = handler(ctx, ev)
	}
	if err != nil {
		c.log.Warn("failed to process catalog event", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
		// Dropped rather than requeued; the next refresh catches up anyway.
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.log.Error("failed to nack message", zap.Error(nackErr))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error("failed to ack message", zap.Error(ackErr))
	}
}

// DecodeCatalogEvent parses a message body.
func DecodeCatalogEvent(body []byte) (CatalogEvent, error) {
	var ev CatalogEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return CatalogEvent{}, fmt.Errorf("invalid catalog event: %w", err)
	}
	if ev.Type == "" {
		return CatalogEvent{}, fmt.Errorf("invalid catalog event: missing type")
	}
	return ev, nil
}
