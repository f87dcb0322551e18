package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"

	"storefront/internal/config"
)

type Endpoint string

const (
	Admin      Endpoint = "admin"
	Storefront Endpoint = "storefront"
)

var ErrMutationNotAllowed = errors.New("mutations are not allowed in template queries")

//go:generate mockgen -source client.go -destination=client_mock_test.go -package=shopify

// Cache is the read-through store consulted for cacheable operations.
type Cache interface {
	KeyFor(operation string, variables map[string]any) string
	Get(ctx context.Context, key string) (map[string]any, bool)
	Set(ctx context.Context, key string, value map[string]any, operation string, variables map[string]any)
}

// TransportError means the endpoint could not be reached or did not answer
// with a GraphQL document. The cache is never written when one occurs.
type TransportError struct {
	Endpoint Endpoint
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("shopify %s endpoint: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("shopify %s endpoint: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type transport struct {
	url    string
	header http.Header
}

type Client struct {
	cfg        config.Shopify
	cache      Cache
	httpClient *http.Client
	logger     *zap.Logger

	mu         sync.Mutex
	transports map[string]*transport
}

func NewClient(cfg config.Shopify, cache Cache, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		cache:      cache,
		httpClient: &http.Client{},
		logger:     logger,
		transports: map[string]*transport{},
	}
}

// Admin runs an operation against the admin API.
func (c *Client) Admin(ctx context.Context, operation string, variables map[string]any, cacheable bool) (*Result, error) {
	return c.Execute(ctx, Admin, operation, variables, cacheable)
}

// Storefront runs an operation against the customer facing API.
func (c *Client) Storefront(ctx context.Context, operation string, variables map[string]any, cacheable bool) (*Result, error) {
	return c.Execute(ctx, Storefront, operation, variables, cacheable)
}

// Template is the entry point for consumer supplied queries. Mutations are
// rejected and any api other than "admin" goes to the storefront API.
func (c *Client) Template(ctx context.Context, api, operation string, variables map[string]any, cacheable bool) (*Result, error) {
	if IsMutation(operation) {
		return nil, ErrMutationNotAllowed
	}
	endpoint := Storefront
	if api == string(Admin) {
		endpoint = Admin
	}
	return c.Execute(ctx, endpoint, operation, variables, cacheable)
}

// Execute posts {query, variables} to endpoint. Remote GraphQL errors are
// returned on the Result; only transport failures produce an error. Mutations
// bypass the cache regardless of cacheable.
func (c *Client) Execute(ctx context.Context, endpoint Endpoint, operation string, variables map[string]any, cacheable bool) (*Result, error) {
	cacheable = cacheable && c.cache != nil && !IsMutation(operation)

	var key string
	if cacheable {
		key = c.cache.KeyFor(operation, variables)
		if raw, ok := c.cache.Get(ctx, key); ok {
			res, err := newResult(raw)
			if err == nil {
				c.logger.Debug("graph cache hit", zap.String("key", key))
				return res, nil
			}
			c.logger.Warn("unreadable cache entry, refetching", zap.String("key", key), zap.Error(err))
		}
	}

	raw, err := c.post(ctx, endpoint, operation, variables)
	if err != nil {
		return nil, err
	}

	res, err := newResult(raw)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	if cacheable && !res.HasErrors() {
		c.cache.Set(ctx, key, raw, operation, variables)
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, endpoint Endpoint, operation string, variables map[string]any) (map[string]any, error) {
	t, err := c.transport(endpoint)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	body := map[string]any{"query": operation}
	if len(variables) > 0 {
		body["variables"] = variables
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header = t.header.Clone()
	if fwd, ok := ctx.Value(forwardedKey{}).(Forwarded); ok {
		if fwd.IP != "" {
			req.Header.Set("Forwarded", "for="+fwd.IP)
			req.Header.Set("X-Forwarded-For", fwd.IP)
		}
		if fwd.UserAgent != "" {
			req.Header.Set("User-Agent", fwd.UserAgent)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	c.logger.Debug("graph request",
		zap.String("endpoint", string(endpoint)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &TransportError{Endpoint: endpoint, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(b)))}
	}

	var raw map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return raw, nil
}

// transport returns the memoized connection settings for endpoint, keyed by
// the credential in use so a rotated token gets a fresh entry.
func (c *Client) transport(endpoint Endpoint) (*transport, error) {
	var header, token, path string
	switch endpoint {
	case Admin:
		header, token, path = "X-Shopify-Access-Token", c.cfg.AdminToken, "/admin/api/%s/graphql.json"
	case Storefront:
		header, token, path = "X-Shopify-Storefront-Access-Token", c.cfg.StorefrontToken, "/api/%s/graphql"
	default:
		return nil, fmt.Errorf("unknown endpoint %q", endpoint)
	}

	memo := header + ":" + token

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.transports[memo]; ok {
		return t, nil
	}

	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set(header, token)

	t := &transport{
		url:    c.cfg.ShopURL() + fmt.Sprintf(path, c.cfg.APIVersion),
		header: h,
	}
	c.transports[memo] = t
	return t, nil
}

var mutationRe = regexp.MustCompile(`(?i)^\s*mutation\b`)

// IsMutation reports whether the document starts with, or contains, a
// mutation operation.
func IsMutation(operation string) bool {
	if mutationRe.MatchString(operation) {
		return true
	}
	if !strings.Contains(strings.ToLower(operation), "mutation") {
		return false
	}
	doc, err := parser.ParseQuery(&ast.Source{Input: operation})
	if err != nil {
		return false
	}
	for _, op := range doc.Operations {
		if op.Operation == ast.Mutation {
			return true
		}
	}
	return false
}

type forwardedKey struct{}

// Forwarded carries the visitor's address to the storefront API.
type Forwarded struct {
	IP        string
	UserAgent string
}

func WithForwarded(ctx context.Context, f Forwarded) context.Context {
	return context.WithValue(ctx, forwardedKey{}, f)
}
