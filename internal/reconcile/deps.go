// Package reconcile applies remote catalog, customer and checkout changes to
// local content, relation and cache state.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/content"
	"storefront/internal/relations"
	"storefront/internal/services/shopify"
)

//go:generate mockgen -source deps.go -destination=graph_mock_test.go -package=reconcile_test

// Graph is the part of the Shopify client the services call.
type Graph interface {
	Admin(ctx context.Context, operation string, variables map[string]any, cacheable bool) (*shopify.Result, error)
	Storefront(ctx context.Context, operation string, variables map[string]any, cacheable bool) (*shopify.Result, error)
}

// Deps bundles the collaborators shared by every service.
type Deps struct {
	Graph       Graph
	Cache       *cache.Store
	Relations   *relations.Store
	Content     content.Store
	Transformer *shopify.Transformer
	Logger      *zap.Logger
}

// RemoteError carries errors the remote API reported for an operation.
type RemoteError struct {
	Op     string
	Errors shopify.Errors
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Errors)
}

// ErrRemoteNotFound means a fresh fetch returned no object for the id.
var ErrRemoteNotFound = errors.New("remote object not found")

// Services is the full set built from one Deps.
type Services struct {
	Products    *Products
	Collections *Collections
	Customers   *Customers
	Checkouts   *Checkouts
	Orders      *Orders
	Importer    *Importer
}

func NewServices(d Deps, opts Options) *Services {
	collections := NewCollections(d)
	products := NewProducts(d, collections)
	return &Services{
		Products:    products,
		Collections: collections,
		Customers:   NewCustomers(d),
		Checkouts:   NewCheckouts(d, opts.CheckoutTTL),
		Orders:      NewOrders(d),
		Importer:    NewImporter(d, products),
	}
}

// decodePayload maps a webhook body onto v, leaving identifier fields to
// the normalizer.
func decodePayload(payload map[string]any, v any) error {
	trimmed := make(map[string]any, len(payload))
	for k, val := range payload {
		if k == "id" || k == "admin_graphql_api_id" {
			continue
		}
		trimmed[k] = val
	}
	return shopify.Decode(trimmed, v)
}

// saveFailed logs why the content store rejected a save.
func saveFailed(logger *zap.Logger, msg, remoteID string, err error) {
	var verr *content.ValidationError
	if errors.As(err, &verr) {
		logger.Error(msg, zap.String("remote_id", remoteID), zap.Any("fields", verr.Fields))
		return
	}
	logger.Error(msg, zap.String("remote_id", remoteID), zap.Error(err))
}
