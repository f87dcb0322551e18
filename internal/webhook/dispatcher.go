// Package webhook routes remote change notifications to the sync services
// and manages the shop's webhook subscriptions.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/reconcile"
)

// HandlerFunc processes one decoded delivery.
type HandlerFunc func(ctx context.Context, payload map[string]any) error

// legacyCheckoutDelete is the spelling older installs subscribed with.
const legacyCheckoutDelete models.WebhookTopic = "CHECKOUT_DELETE"

type Dispatcher struct {
	handlers map[models.WebhookTopic]HandlerFunc
	logger   *zap.Logger
}

func NewDispatcher(handlers map[models.WebhookTopic]HandlerFunc, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: logger}
}

// Handlers builds the dispatch table over the sync services.
func Handlers(svc *reconcile.Services) map[models.WebhookTopic]HandlerFunc {
	upsertProduct := func(ctx context.Context, p map[string]any) error {
		return svc.Products.Upsert(ctx, p, true)
	}
	upsertCollection := func(ctx context.Context, p map[string]any) error {
		_, err := svc.Collections.Upsert(ctx, p, true)
		return err
	}

	return map[models.WebhookTopic]HandlerFunc{
		models.TopicProductsCreate:    upsertProduct,
		models.TopicProductsUpdate:    upsertProduct,
		models.TopicProductsDelete:    svc.Products.Delete,
		models.TopicCollectionsCreate: upsertCollection,
		models.TopicCollectionsUpdate: upsertCollection,
		models.TopicCollectionsDelete: svc.Collections.Delete,
		models.TopicOrdersCreate:      svc.Orders.OnCreate,
		models.TopicCheckoutsUpdate:   svc.Checkouts.OnUpdate,
		models.TopicCheckoutsDelete:   svc.Checkouts.Delete,
		legacyCheckoutDelete:          svc.Checkouts.Delete,
		models.TopicCustomersCreate:   svc.Customers.Upsert,
		models.TopicCustomersUpdate:   svc.Customers.Upsert,
		models.TopicCustomersDelete:   svc.Customers.Delete,
	}
}

// Handles reports whether topic has a handler.
func (d *Dispatcher) Handles(topic string) bool {
	_, ok := d.handlers[normalizeTopic(topic)]
	return ok
}

// Listen decodes raw and runs the handler for topic. Unknown topics are
// ignored.
func (d *Dispatcher) Listen(ctx context.Context, topic string, raw []byte) error {
	t := normalizeTopic(topic)
	handler, ok := d.handlers[t]
	if !ok {
		d.logger.Debug("Ignoring webhook", zap.String("hook", topic))
		return nil
	}

	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", t, err)
	}

	if err := handler(ctx, payload); err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}
	d.logger.Debug("Handled webhook", zap.String("hook", string(t)))
	return nil
}

// normalizeTopic accepts both PRODUCTS_CREATE and the header form
// products/create.
func normalizeTopic(topic string) models.WebhookTopic {
	t := strings.ToUpper(strings.TrimSpace(topic))
	return models.WebhookTopic(strings.ReplaceAll(t, "/", "_"))
}
