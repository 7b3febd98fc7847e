package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"threadhub/pkg/logger"
	"threadhub/pkg/models"
)

type kafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func newKafkaPublisher(ctx context.Context, cfg Config) (*kafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka requires at least one broker address")
	}

	// Fail at startup rather than on the first event
	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kafka at %s: %w", cfg.Brokers[0], err)
	}
	conn.Close()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("kafka: failed to deliver %d comment events: %v", len(messages), err)
			}
		},
	}

	logger.Infof("Publishing comment events to kafka topic %s", cfg.Topic)
	return &kafkaPublisher{writer: writer, timeout: cfg.PublishTimeout}, nil
}

func (p *kafkaPublisher) Publish(event models.CommentEvent) {
	msg, err := kafkaMessage(event)
	if err != nil {
		logger.Warnf("kafka: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Warnf("kafka: failed to queue %s event: %v", event.Type, err)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

func kafkaMessage(event models.CommentEvent) (kafka.Message, error) {
	key, body, err := encode(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   key,
		Value: body,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}, nil
}
