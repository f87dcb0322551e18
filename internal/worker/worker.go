package worker

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/queue"
	"storefront/internal/worker/processors"
)

type Worker struct {
	reader    *kafka.Reader
	processor *processors.EventProcessor
	logger    *zap.Logger
}

func New(cfg config.Kafka, processor *processors.EventProcessor, logger *zap.Logger) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.Group,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})

	return &Worker{
		reader:    reader,
		processor: processor,
		logger:    logger,
	}
}

// Start consumes until ctx is canceled. Offsets are committed after each
// event whether or not it succeeded; failures are logged.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started, listening for events...")

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			w.logger.Error("Failed to read message", zap.Error(err))
			continue
		}

		event, err := queue.Decode(message.Value)
		if err != nil {
			w.logger.Error("Dropping message", zap.Int64("offset", message.Offset), zap.Error(err))
		} else if err := w.processor.Process(ctx, event); err != nil {
			w.logger.Error("Failed to process event",
				zap.String("type", string(event.Type)),
				zap.String("topic", event.Topic),
				zap.Error(err),
			)
		} else {
			w.logger.Debug("Event processed successfully", zap.String("type", string(event.Type)))
		}

		if err := w.reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
			w.logger.Error("Failed to commit message", zap.Error(err))
		}
	}
}

func (w *Worker) Stop() error {
	w.logger.Info("Stopping worker...")
	return w.reader.Close()
}
