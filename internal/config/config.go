package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Shopify struct {
	ShopHandle      string
	AdminToken      string
	StorefrontToken string
	APIVersion      string
	Namespace       string
	Timeout         time.Duration
	// BaseURL overrides https://{ShopHandle}.myshopify.com, mostly for tests.
	BaseURL string
}

// Mapping connects remote entity fields to local content placement.
type Mapping struct {
	ProductSectionUID  string
	CollectionGroupUID string
	TagGroupUID        string
	CollectionField    string
	TagField           string
}

type Cache struct {
	RenderSize    int
	ExcludedTypes []string
}

type Checkout struct {
	Storage string
	TTL     time.Duration
}

type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

type Config struct {
	// Database
	DatabaseURL string

	// API Configuration
	APIPort     string
	APIHost     string
	PublicURL   string
	CORSOrigins []string

	Shopify  Shopify
	Mapping  Mapping
	Cache    Cache
	Checkout Checkout

	// Kafka
	Kafka       Kafka
	WebhookMode string
	Retry       Retry

	// Environment
	Env      string
	LogLevel string
}

const (
	StorageCookie  = "cookie"
	StorageSession = "session"

	WebhookInline = "inline"
	WebhookQueue  = "queue"
)

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://storefront.db"),
		APIPort:     getEnv("API_PORT", "8080"),
		APIHost:     getEnv("API_HOST", "0.0.0.0"),
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "*")),
		Shopify: Shopify{
			ShopHandle:      getEnv("SHOPIFY_SHOP_HANDLE", ""),
			AdminToken:      getEnv("SHOPIFY_ADMIN_TOKEN", ""),
			StorefrontToken: getEnv("SHOPIFY_STOREFRONT_TOKEN", ""),
			APIVersion:      getEnv("SHOPIFY_API_VERSION", "2020-01"),
			Namespace:       getEnv("SHOPIFY_GID_NAMESPACE", "shopify"),
			Timeout:         getEnvAsDuration("SHOPIFY_TIMEOUT", 15*time.Second),
			BaseURL:         getEnv("SHOPIFY_BASE_URL", ""),
		},
		Mapping: Mapping{
			ProductSectionUID:  getEnv("PRODUCT_SECTION_UID", "products"),
			CollectionGroupUID: getEnv("COLLECTION_GROUP_UID", "collections"),
			TagGroupUID:        getEnv("TAG_GROUP_UID", "tags"),
			CollectionField:    getEnv("COLLECTION_FIELD_HANDLE", ""),
			TagField:           getEnv("TAG_FIELD_HANDLE", ""),
		},
		Cache: Cache{
			RenderSize:    getEnvAsInt("RENDER_CACHE_SIZE", 1024),
			ExcludedTypes: splitCSV(getEnv("CACHE_EXCLUDED_TYPES", "CheckoutLineItem,ProductVariant")),
		},
		Checkout: Checkout{
			Storage: getEnv("CHECKOUT_STORAGE", StorageCookie),
			TTL:     getEnvAsDuration("CHECKOUT_TTL", 14*24*time.Hour),
		},
		Kafka: Kafka{
			Brokers: splitCSV(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "storefront-events"),
			Group:   getEnv("KAFKA_GROUP", "storefront-worker"),
		},
		WebhookMode: getEnv("WEBHOOK_MODE", WebhookInline),
		Retry: Retry{
			Attempts:     getEnvAsInt("RETRY_ATTEMPTS", 3),
			Base:         getEnvAsDuration("RETRY_BASE", 200*time.Millisecond),
			Max:          getEnvAsDuration("RETRY_MAX", 5*time.Second),
			JitterFactor: 0.3,
		},
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every required variable that is missing at once.
func (c *Config) Validate() error {
	var missing []string
	req := []struct{ key, value string }{
		{"SHOPIFY_SHOP_HANDLE", c.Shopify.ShopHandle},
		{"SHOPIFY_ADMIN_TOKEN", c.Shopify.AdminToken},
		{"SHOPIFY_STOREFRONT_TOKEN", c.Shopify.StorefrontToken},
	}
	if c.Shopify.BaseURL != "" {
		req = req[1:]
	}
	if c.WebhookMode == WebhookQueue {
		req = append(req, struct{ key, value string }{"KAFKA_BROKERS", strings.Join(c.Kafka.Brokers, ",")})
	}
	for _, r := range req {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &MissingEnvError{Keys: missing}
	}
	if c.Checkout.Storage != StorageCookie && c.Checkout.Storage != StorageSession {
		c.Checkout.Storage = StorageCookie
	}
	if c.Cache.RenderSize <= 0 {
		c.Cache.RenderSize = 1
	}
	return nil
}

type MissingEnvError struct{ Keys []string }

func (e *MissingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// ShopURL is the origin every Shopify endpoint hangs off.
func (s Shopify) ShopURL() string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/")
	}
	return "https://" + s.ShopHandle + ".myshopify.com"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
