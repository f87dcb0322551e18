package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/content"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/reconcile"
	"storefront/internal/relations"
	"storefront/internal/services/shopify"
	"storefront/internal/session"
	"storefront/internal/webhook"
	"storefront/internal/worker"
	"storefront/internal/worker/processors"
)

const purgeInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.Must(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required to run the worker")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	cacheStore := cache.NewStore(db.DB, nil, cfg.Cache.ExcludedTypes, logger)
	client := shopify.NewClient(cfg.Shopify, cacheStore, logger)
	services := reconcile.NewServices(reconcile.Deps{
		Graph:       client,
		Cache:       cacheStore,
		Relations:   relations.NewStore(db, shopify.NewNormalizer(cfg.Shopify.Namespace), logger),
		Content:     content.NewGormStore(db.DB),
		Transformer: shopify.NewTransformer(cfg.Mapping),
		Logger:      logger,
	}, reconcile.Options{CheckoutTTL: cfg.Checkout.TTL})

	processor := processors.NewEventProcessor(
		webhook.NewDispatcher(webhook.Handlers(services), logger),
		services.Importer,
		cacheStore,
		cfg.Retry,
		logger,
	)

	// Initialize worker
	w := worker.New(cfg.Kafka, processor, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Checkout.Storage == config.StorageSession {
		go purgeSessions(ctx, session.NewServerStore(db.DB, logger), logger)
	}

	// Start worker
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(ctx); err != nil {
			logger.Error("Worker stopped", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	<-done
	if err := w.Stop(); err != nil {
		logger.Error("Failed to close reader", zap.Error(err))
	}
}

// purgeSessions drops expired server side session values.
func purgeSessions(ctx context.Context, store *session.ServerStore, logger *zap.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Purge(ctx); err != nil {
				logger.Error("Failed to purge sessions", zap.Error(err))
			}
		}
	}
}
