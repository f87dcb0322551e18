package reconcile_test

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/reconcile"
	"storefront/internal/services/shopify"
)

func TestProductUpsertFromPayload(t *testing.T) {
	e := newEnv(t)

	e.graph.EXPECT().
		Admin(gomock.Any(), op("collection(id: $id)"), map[string]any{"id": "gid://shop/Collection/9"}, false).
		Return(data(map[string]any{"collection": map[string]any{
			"id": "gid://shop/Collection/9", "title": "Sale", "handle": "sale",
		}}), nil)

	payload := map[string]any{
		"admin_graphql_api_id": "gid://shop/Product/1",
		"title":                "T",
		"collections": map[string]any{"edges": []any{
			map[string]any{"node": map[string]any{"id": "gid://shop/Collection/9"}},
		}},
	}
	require.NoError(t, e.svc.Products.Upsert(e.ctx, payload, false))

	product := e.element(t, "gid://shop/Product/1")
	assert.Equal(t, "T", product.Title)
	assert.Equal(t, models.ElementEntry, product.Type)
	assert.Equal(t, "products", product.GroupUID)
	assert.False(t, product.Enabled)

	collection := e.element(t, "gid://shop/Collection/9")
	assert.Equal(t, "Sale", collection.Title)
	assert.Equal(t, "sale", collection.Slug)
	assert.False(t, collection.Enabled)
	assert.Equal(t, []any{collection.ID}, product.Fields["collections"])

	assert.Zero(t, e.count(t, &models.CacheDependency{}, "remote_id = ?", "gid://shop/Product/1"))
}

func TestProductUpsertIsIdempotent(t *testing.T) {
	e := newEnv(t)
	payload := map[string]any{"id": float64(5), "title": "Hat", "handle": "hat"}

	require.NoError(t, e.svc.Products.Upsert(e.ctx, payload, false))
	first := e.element(t, "gid://shop/Product/5")

	payload["title"] = "Hat 2"
	require.NoError(t, e.svc.Products.Upsert(e.ctx, payload, false))

	assert.Equal(t, int64(1), e.count(t, &models.Relation{}, "remote_id = ?", "gid://shop/Product/5"))
	assert.Equal(t, int64(1), e.count(t, &models.Element{}, "type = ?", models.ElementEntry))
	again := e.element(t, "gid://shop/Product/5")
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Hat 2", again.Title)
}

func TestProductUpsertFetchFresh(t *testing.T) {
	e := newEnv(t)
	key := e.seed(t, "gid://shop/Product/7")
	unrelated := e.seed(t, "gid://shop/Product/8")

	fresh := data(map[string]any{"product": map[string]any{
		"id":          "gid://shop/Product/7",
		"title":       "Coat",
		"handle":      "coat",
		"tags":        []any{"Red", "Wool", "red"},
		"collections": map[string]any{"edges": []any{}},
	}})
	e.graph.EXPECT().
		Admin(gomock.Any(), op("product(id: $id)"), map[string]any{"id": "gid://shop/Product/7"}, false).
		Return(fresh, nil).
		Times(2)

	// the webhook body is stale; only its id is used
	payload := map[string]any{"id": "7", "title": "old"}
	require.NoError(t, e.svc.Products.Upsert(e.ctx, payload, true))
	require.NoError(t, e.svc.Products.Upsert(e.ctx, payload, true))

	product := e.element(t, "gid://shop/Product/7")
	assert.Equal(t, "Coat", product.Title)
	assert.Equal(t, "coat", product.Slug)
	assert.Len(t, product.Fields["tags"], 2)
	assert.Equal(t, int64(2), e.count(t, &models.Element{}, "type = ?", models.ElementTag))

	assert.False(t, e.cached(key))
	assert.True(t, e.cached(unrelated))
}

func TestProductUpsertRemoteErrors(t *testing.T) {
	e := newEnv(t)
	key := e.seed(t, "gid://shop/Product/3")

	e.graph.EXPECT().
		Admin(gomock.Any(), gomock.Any(), gomock.Any(), false).
		Return(&shopify.Result{Errors: shopify.Errors{{Message: "Throttled"}}}, nil)

	err := e.svc.Products.Upsert(e.ctx, map[string]any{"id": "3"}, true)

	var rerr *reconcile.RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "Throttled", rerr.Errors[0].Message)
	assert.Zero(t, e.count(t, &models.Element{}, ""))
	assert.True(t, e.cached(key))
}

func TestProductUpsertMissingRemote(t *testing.T) {
	e := newEnv(t)

	e.graph.EXPECT().
		Admin(gomock.Any(), gomock.Any(), gomock.Any(), false).
		Return(data(map[string]any{"product": nil}), nil)

	err := e.svc.Products.Upsert(e.ctx, map[string]any{"id": "3"}, true)
	assert.ErrorIs(t, err, reconcile.ErrRemoteNotFound)
}

func TestProductUpsertValidationFailure(t *testing.T) {
	e := newEnv(t)
	key := e.seed(t, "gid://shop/Product/4")

	err := e.svc.Products.Upsert(e.ctx, map[string]any{"id": "4", "title": ""}, false)
	require.Error(t, err)

	id, lookupErr := e.relations.ElementIDByRemoteID(e.ctx, "gid://shop/Product/4")
	require.NoError(t, lookupErr)
	assert.Empty(t, id)
	assert.True(t, e.cached(key), "caches are kept when nothing was saved")
}

func TestProductUpsertWrongKind(t *testing.T) {
	e := newEnv(t)

	err := e.svc.Products.Upsert(e.ctx, map[string]any{"admin_graphql_api_id": "gid://shop/Collection/1"}, false)
	assert.ErrorIs(t, err, shopify.ErrInvalidIdentifierKind)
}

func TestProductDelete(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.svc.Products.Upsert(e.ctx, map[string]any{"id": "6", "title": "Bag"}, false))
	product := e.element(t, "gid://shop/Product/6")
	key := e.seed(t, "gid://shop/Product/6")

	require.NoError(t, e.svc.Products.Delete(e.ctx, map[string]any{"id": 6}))

	_, err := e.content.Find(e.ctx, product.ID)
	assert.Error(t, err)
	assert.Zero(t, e.count(t, &models.Relation{}, "remote_id = ?", "gid://shop/Product/6"))
	assert.Zero(t, e.count(t, &models.RelationElement{}, "remote_id = ?", "gid://shop/Product/6"))
	assert.False(t, e.cached(key))

	// duplicate delivery
	assert.NoError(t, e.svc.Products.Delete(e.ctx, map[string]any{"id": 6}))
}

func TestProductDeleteUnknownIsNoop(t *testing.T) {
	e := newEnv(t)
	assert.NoError(t, e.svc.Products.Delete(e.ctx, map[string]any{"id": "999"}))
}

func TestProductUpsertRecreatesMissingElement(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.svc.Products.Upsert(e.ctx, map[string]any{"id": "10", "title": "Cap"}, false))
	gone := e.element(t, "gid://shop/Product/10")
	require.NoError(t, e.content.Delete(e.ctx, gone.ID))

	require.NoError(t, e.svc.Products.Upsert(e.ctx, map[string]any{"id": "10", "title": "Cap"}, false))

	fresh := e.element(t, "gid://shop/Product/10")
	assert.NotEqual(t, gone.ID, fresh.ID)
	assert.Equal(t, int64(1), e.count(t, &models.RelationElement{}, "remote_id = ?", "gid://shop/Product/10"))
}

func TestProductsInvalidateByRawID(t *testing.T) {
	e := newEnv(t)
	key := e.seed(t, "gid://shop/Product/11")

	require.NoError(t, e.svc.Products.InvalidateByRawID(e.ctx, "11"))
	assert.False(t, e.cached(key))
}
