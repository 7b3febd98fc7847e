package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"threadhub/pkg/logger"
	"threadhub/pkg/models"
)

type rabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	timeout  time.Duration
}

func newRabbitPublisher(cfg Config) (*rabbitPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq requires a url")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Topic, // name
		"topic",   // kind
		true,      // durable
		false,     // auto-deleted
		false,     // internal
		false,     // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Topic, err)
	}

	logger.Infof("Publishing comment events to RabbitMQ exchange %s", cfg.Topic)
	return &rabbitPublisher{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Topic,
		timeout:  cfg.PublishTimeout,
	}, nil
}

func (p *rabbitPublisher) Publish(event models.CommentEvent) {
	msg, err := rabbitMessage(event)
	if err != nil {
		logger.Warnf("rabbitmq: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,        // exchange
		routingKey(event), // routing key
		false,             // mandatory
		false,             // immediate
		msg,
	)
	if err != nil {
		logger.Warnf("rabbitmq: failed to publish %s event: %v", event.Type, err)
	}
}

func (p *rabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

func rabbitMessage(event models.CommentEvent) (amqp.Publishing, error) {
	key, body, err := encode(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		Type:         event.Type,
		Headers:      amqp.Table{"article_id": string(key)},
	}, nil
}
