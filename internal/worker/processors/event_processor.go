package processors

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/pkg/retry"
	"storefront/internal/queue"
	"storefront/internal/services/shopify"
)

type Dispatcher interface {
	Listen(ctx context.Context, topic string, raw []byte) error
}

type Importer interface {
	ImportProducts(ctx context.Context) (int, error)
}

type CacheClearer interface {
	InvalidateAll(ctx context.Context) error
}

type EventProcessor struct {
	dispatcher Dispatcher
	importer   Importer
	cache      CacheClearer
	retry      config.Retry
	logger     *zap.Logger
}

func NewEventProcessor(dispatcher Dispatcher, importer Importer, cache CacheClearer, retryPolicy config.Retry, logger *zap.Logger) *EventProcessor {
	return &EventProcessor{
		dispatcher: dispatcher,
		importer:   importer,
		cache:      cache,
		retry:      retryPolicy,
		logger:     logger,
	}
}

// Process runs one queued event. Only transport failures are retried; a
// payload the services reject will not get better on a second attempt.
func (ep *EventProcessor) Process(ctx context.Context, event queue.Event) error {
	ep.logger.Debug("Processing event", zap.String("type", string(event.Type)), zap.String("topic", event.Topic))

	switch event.Type {
	case queue.EventWebhook:
		return retry.Do(ctx, ep.retry, func() error {
			return retryable(ep.dispatcher.Listen(ctx, event.Topic, event.Payload))
		})
	case queue.EventImportProducts:
		n, err := ep.importer.ImportProducts(ctx)
		if err != nil {
			return fmt.Errorf("import products: %w", err)
		}
		ep.logger.Info("Imported products", zap.Int("count", n))
		return nil
	case queue.EventCacheClear:
		return ep.cache.InvalidateAll(ctx)
	default:
		ep.logger.Warn("Unknown event type", zap.String("type", string(event.Type)))
		return nil
	}
}

func retryable(err error) error {
	if err == nil {
		return nil
	}
	var terr *shopify.TransportError
	if errors.As(err, &terr) {
		return err
	}
	return retry.Permanent(err)
}
