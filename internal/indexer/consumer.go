package indexer

import (
	"context"
	"log/slog"

	"github.com/Allegre7tto/SearchEngineDemo/internal/posting"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/kafka"
)

// Consumer wraps a Kafka consumer to drive the batcher.
type Consumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewConsumer creates a Consumer backed by the given Kafka consumer.
func NewConsumer(kafkaConsumer *kafka.Consumer) *Consumer {
	return &Consumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("index consumer starting")
	return c.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that decodes posting events
// and enqueues them on the batcher. Undecodable messages are logged and
// dropped (committing them avoids a redelivery loop); enqueue and flush
// errors propagate so the message is redelivered.
func HandleMessage(batcher *Batcher) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[posting.Event](value)
		if err != nil {
			logger.Error("failed to decode posting event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		return batcher.Enqueue(ctx, event)
	}
}
