// Package session provides the per-visitor key/value storage used for the
// checkout id and the customer access token.
package session

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/config"
)

const (
	CheckoutKey = "storefrontCheckoutId"
	AuthKey     = "storefrontAuthToken"
)

// Storage is scoped to one request.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string, expires time.Time)
	Delete(key string)
}

// Opener binds a Storage to a request/response pair.
type Opener func(w http.ResponseWriter, r *http.Request) Storage

// NewOpener returns the Opener for the configured storage mode.
func NewOpener(mode string, db *gorm.DB, logger *zap.Logger) Opener {
	if mode == config.StorageSession {
		store := NewServerStore(db, logger)
		return func(w http.ResponseWriter, r *http.Request) Storage {
			return store.Open(w, r)
		}
	}
	return func(w http.ResponseWriter, r *http.Request) Storage {
		return NewCookies(w, r)
	}
}
