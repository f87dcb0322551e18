package reconcile_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/content"
	"storefront/internal/database/dbtest"
	"storefront/internal/models"
	"storefront/internal/reconcile"
	"storefront/internal/relations"
	"storefront/internal/services/shopify"
)

type env struct {
	ctx       context.Context
	graph     *MockGraph
	db        *gorm.DB
	cache     *cache.Store
	relations *relations.Store
	content   *content.GormStore
	svc       *reconcile.Services
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ctrl := gomock.NewController(t)
	db := dbtest.New(t)
	logger := zaptest.NewLogger(t)

	e := &env{
		ctx:       context.Background(),
		graph:     NewMockGraph(ctrl),
		db:        db.DB,
		cache:     cache.NewStore(db.DB, cache.MustNewRenderCache(16), []string{"CheckoutLineItem", "ProductVariant"}, logger),
		relations: relations.NewStore(db, shopify.NewNormalizer("shop"), logger),
		content:   content.NewGormStore(db.DB),
	}
	e.svc = reconcile.NewServices(reconcile.Deps{
		Graph:     e.graph,
		Cache:     e.cache,
		Relations: e.relations,
		Content:   e.content,
		Transformer: shopify.NewTransformer(config.Mapping{
			ProductSectionUID:  "products",
			CollectionGroupUID: "collections",
			TagGroupUID:        "tags",
			CollectionField:    "collections",
			TagField:           "tags",
		}),
		Logger: logger,
	}, reconcile.Options{CheckoutTTL: time.Hour})
	return e
}

const nodeQuery = "query Node($id: ID!) { node(id: $id) { id } }"

// seed caches a query result that depends on id and returns its key.
func (e *env) seed(t *testing.T, id string) string {
	t.Helper()
	vars := map[string]any{"id": id}
	key := e.cache.KeyFor(nodeQuery, vars)
	e.cache.Set(e.ctx, key, map[string]any{"data": map[string]any{"node": map[string]any{"id": id}}}, nodeQuery, vars)
	_, ok := e.cache.Get(e.ctx, key)
	require.True(t, ok)
	return key
}

func (e *env) cached(key string) bool {
	_, ok := e.cache.Get(e.ctx, key)
	return ok
}

func (e *env) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (e *env) element(t *testing.T, remoteID string) *models.Element {
	t.Helper()
	id, err := e.relations.ElementIDByRemoteID(e.ctx, remoteID)
	require.NoError(t, err)
	require.NotEmpty(t, id, "no element linked to %s", remoteID)
	el, err := e.content.Find(e.ctx, id)
	require.NoError(t, err)
	return el
}

// op matches operation text containing the given fragment.
type op string

func (m op) Matches(x any) bool {
	s, ok := x.(string)
	return ok && strings.Contains(s, string(m))
}

func (m op) String() string { return "operation containing " + string(m) }

func data(d map[string]any) *shopify.Result {
	return &shopify.Result{Data: d}
}

var ctxBG = context.Background()

type checkoutAPI = *reconcile.Checkout

type memStorage map[string]string

func (m memStorage) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m memStorage) Set(key, value string, _ time.Time) { m[key] = value }

func (m memStorage) Delete(key string) { delete(m, key) }
