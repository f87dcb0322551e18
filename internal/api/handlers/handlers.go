package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/reconcile"
	"storefront/internal/services/shopify"
	"storefront/internal/session"
)

// Cart is one visitor's checkout.
type Cart interface {
	CheckoutID(ctx context.Context) (string, error)
	AddLineItem(ctx context.Context, variantID string, quantity int) (shopify.Errors, error)
	UpdateLineItem(ctx context.Context, lineItemID string, quantity int) (shopify.Errors, error)
	RemoveLineItem(ctx context.Context, lineItemID string) (shopify.Errors, error)
	ApplyDiscountCode(ctx context.Context, code string) (shopify.Errors, error)
	RemoveDiscountCode(ctx context.Context) (shopify.Errors, error)
	SetNote(ctx context.Context, note string) (shopify.Errors, error)
	SetCustomAttributes(ctx context.Context, attrs map[string]string) (shopify.Errors, error)
}

// Carts opens the cart bound to a request's storage.
type Carts interface {
	Open(ctx context.Context, storage session.Storage) (Cart, error)
}

type Accounts interface {
	Login(ctx context.Context, storage session.Storage, email, password string) (shopify.Errors, error)
	Logout(ctx context.Context, storage session.Storage) error
	CurrentCustomerID(ctx context.Context, storage session.Storage) (string, error)
}

type Listener interface {
	Handles(topic string) bool
	Listen(ctx context.Context, topic string, raw []byte) error
}

type Templater interface {
	Template(ctx context.Context, api, operation string, variables map[string]any, cacheable bool) (*shopify.Result, error)
}

type Installer interface {
	Install(ctx context.Context) (shopify.Errors, error)
	Uninstall(ctx context.Context) (shopify.Errors, error)
}

type Importer interface {
	ImportProducts(ctx context.Context) (int, error)
}

type CacheClearer interface {
	InvalidateAll(ctx context.Context) error
}

// Renders stores node summaries keyed by remote id.
type Renders interface {
	Render(ctx context.Context, id string) ([]byte, bool)
	SetRender(ctx context.Context, id string, body []byte)
}

// NewCarts opens carts for the logged in customer when there is one.
func NewCarts(customers *reconcile.Customers, checkouts *reconcile.Checkouts) Carts {
	return &carts{customers: customers, checkouts: checkouts}
}

type carts struct {
	customers *reconcile.Customers
	checkouts *reconcile.Checkouts
}

func (c *carts) Open(ctx context.Context, storage session.Storage) (Cart, error) {
	var user *models.Element
	if c.customers != nil {
		u, err := c.customers.CurrentUser(ctx, storage)
		if err != nil {
			return nil, err
		}
		user = u
	}
	return c.checkouts.For(storage, user), nil
}

// remoteFailure answers for an error from a remote call. Remote errors are
// reported as data; anything else is hidden behind a generic message.
func remoteFailure(c *gin.Context, logger *zap.Logger, msg string, err error) {
	var remote *reconcile.RemoteError
	if errors.As(err, &remote) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": remote.Errors})
		return
	}

	var transport *shopify.TransportError
	if errors.As(err, &transport) {
		logger.Error(msg, zap.Error(err), zap.String("endpoint", string(transport.Endpoint)))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Shop is unavailable, please try again"})
		return
	}

	logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "Something went wrong, please try again"})
}
