package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront/internal/api"
	"storefront/internal/api/handlers"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/content"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/queue"
	"storefront/internal/reconcile"
	"storefront/internal/relations"
	"storefront/internal/services/shopify"
	"storefront/internal/session"
	"storefront/internal/webhook"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.Must(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Queued invalidation runs in the worker, so only an inline api keeps an
	// in-process front for renders.
	var render *cache.RenderCache
	if cfg.WebhookMode != config.WebhookQueue {
		render = cache.MustNewRenderCache(cfg.Cache.RenderSize)
	}
	cacheStore := cache.NewStore(db.DB, render, cfg.Cache.ExcludedTypes, logger)
	client := shopify.NewClient(cfg.Shopify, cacheStore, logger)

	services := reconcile.NewServices(reconcile.Deps{
		Graph:       client,
		Cache:       cacheStore,
		Relations:   relations.NewStore(db, shopify.NewNormalizer(cfg.Shopify.Namespace), logger),
		Content:     content.NewGormStore(db.DB),
		Transformer: shopify.NewTransformer(cfg.Mapping),
		Logger:      logger,
	}, reconcile.Options{CheckoutTTL: cfg.Checkout.TTL})

	deps := api.Deps{
		Listener:  webhook.NewDispatcher(webhook.Handlers(services), logger),
		Carts:     handlers.NewCarts(services.Customers, services.Checkouts),
		Accounts:  services.Customers,
		Graph:     client,
		Installer: webhook.NewInstaller(client, db.DB, cfg.PublicURL, logger),
		Importer:  services.Importer,
		Cache:     cacheStore,
		Render:    cacheStore,
		Sessions:  session.NewOpener(cfg.Checkout.Storage, db.DB, logger),
	}
	if cfg.WebhookMode == config.WebhookQueue {
		publisher := queue.NewKafkaPublisher(cfg.Kafka, logger)
		defer publisher.Close()
		deps.Publisher = publisher
	}

	// Initialize API server
	server := api.New(cfg, logger, deps)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
