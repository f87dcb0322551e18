package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("SHOPIFY_SHOP_HANDLE", "demo")
	t.Setenv("SHOPIFY_ADMIN_TOKEN", "admin")
	t.Setenv("SHOPIFY_STOREFRONT_TOKEN", "front")
	t.Setenv("CHECKOUT_STORAGE", "session")
	t.Setenv("CACHE_EXCLUDED_TYPES", " CheckoutLineItem , ,ProductVariant")
	t.Setenv("SHOPIFY_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://shop.example,https://www.shop.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://demo.myshopify.com", cfg.Shopify.ShopURL())
	require.Equal(t, StorageSession, cfg.Checkout.Storage)
	require.Equal(t, []string{"CheckoutLineItem", "ProductVariant"}, cfg.Cache.ExcludedTypes)
	require.Equal(t, 3*time.Second, cfg.Shopify.Timeout)
	require.Equal(t, 14*24*time.Hour, cfg.Checkout.TTL)
	require.Equal(t, "shopify", cfg.Shopify.Namespace)
	require.Equal(t, []string{"https://shop.example", "https://www.shop.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		missing []string
	}{
		{
			name:    "all credentials missing",
			cfg:     Config{},
			missing: []string{"SHOPIFY_SHOP_HANDLE", "SHOPIFY_ADMIN_TOKEN", "SHOPIFY_STOREFRONT_TOKEN"},
		},
		{
			name:    "base url replaces shop handle",
			cfg:     Config{Shopify: Shopify{BaseURL: "http://127.0.0.1:9999", AdminToken: "a"}},
			missing: []string{"SHOPIFY_STOREFRONT_TOKEN"},
		},
		{
			name: "queue mode needs brokers",
			cfg: Config{
				Shopify:     Shopify{ShopHandle: "demo", AdminToken: "a", StorefrontToken: "s"},
				WebhookMode: WebhookQueue,
			},
			missing: []string{"KAFKA_BROKERS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var mErr *MissingEnvError
			require.ErrorAs(t, err, &mErr)
			require.Equal(t, tt.missing, mErr.Keys)
		})
	}
}

func TestValidateNormalizesStorage(t *testing.T) {
	cfg := Config{
		Shopify:  Shopify{ShopHandle: "demo", AdminToken: "a", StorefrontToken: "s"},
		Checkout: Checkout{Storage: "redis"},
	}
	require.NoError(t, cfg.Validate())
	require.Equal(t, StorageCookie, cfg.Checkout.Storage)
}
