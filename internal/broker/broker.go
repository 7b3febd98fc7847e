// Package broker forwards comment events to an external message broker so
// services outside the development backend can follow discussions.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"threadhub/pkg/models"
)

// Supported drivers
const (
	DriverNone     = ""
	DriverKafka    = "kafka"
	DriverRabbitMQ = "rabbitmq"
)

// Config selects and configures the event broker
type Config struct {
	Driver string `mapstructure:"driver"`
	// Brokers lists kafka bootstrap addresses
	Brokers []string `mapstructure:"brokers"`
	// URL is the AMQP url for rabbitmq
	URL string `mapstructure:"url"`
	// Topic is the kafka topic or the rabbitmq exchange
	Topic          string        `mapstructure:"topic"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// Publisher receives every comment event the backend emits
type Publisher interface {
	Publish(event models.CommentEvent)
	Close() error
}

// New connects the configured broker. DriverNone returns a publisher that
// drops everything.
func New(ctx context.Context, cfg Config) (Publisher, error) {
	if cfg.Topic == "" {
		cfg.Topic = "threadhub.comments"
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	switch cfg.Driver {
	case DriverNone:
		return Nop{}, nil
	case DriverKafka:
		return newKafkaPublisher(ctx, cfg)
	case DriverRabbitMQ:
		return newRabbitPublisher(cfg)
	default:
		return nil, fmt.Errorf("unsupported event broker %q", cfg.Driver)
	}
}

// Nop drops events
type Nop struct{}

func (Nop) Publish(models.CommentEvent) {}
func (Nop) Close() error { return nil }

// encode returns the partition/routing key and the JSON body of an event.
// Keying by article keeps one discussion's events in order.
func encode(event models.CommentEvent) ([]byte, []byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	return []byte(strconv.FormatInt(event.ArticleID, 10)), body, nil
}

// routingKey names the event for topic exchanges, e.g. comments.comment_created
func routingKey(event models.CommentEvent) string {
	return "comments." + event.Type
}
