package reconcile_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func TestOrderCreateClearsProductAndCustomerCaches(t *testing.T) {
	e := newEnv(t)
	product := e.seed(t, "gid://shop/Product/1")
	custom := e.seed(t, "gid://shop/Product/2")
	customer := e.seed(t, "gid://shop/Customer/9")
	other := e.seed(t, "gid://shop/Product/3")

	raw := `{
		"id": 820982911946154508,
		"line_items": [
			{"product_id": 1, "product_exists": true},
			{"product_id": 2, "product_exists": false},
			{"product_id": null, "product_exists": true}
		],
		"customer": {"id": 9}
	}`
	var payload map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&payload))

	require.NoError(t, e.svc.Orders.OnCreate(e.ctx, payload))

	assert.False(t, e.cached(product))
	assert.True(t, e.cached(custom))
	assert.False(t, e.cached(customer))
	assert.True(t, e.cached(other))
}

func TestImportProducts(t *testing.T) {
	e := newEnv(t)

	page := func(hasNext bool, cursor string, ids ...string) map[string]any {
		edges := make([]any, 0, len(ids))
		for _, id := range ids {
			edges = append(edges, map[string]any{
				"cursor": cursor,
				"node": map[string]any{
					"id":     id,
					"title":  "Product " + id,
					"handle": "product-" + strings.TrimPrefix(id, "gid://shop/Product/"),
					"collections": map[string]any{"edges": []any{
						map[string]any{"node": map[string]any{"id": "gid://shop/Collection/1", "title": "All", "handle": "all"}},
					}},
				},
			})
		}
		return map[string]any{"products": map[string]any{
			"pageInfo": map[string]any{"hasNextPage": hasNext},
			"edges":    edges,
		}}
	}

	gomock.InOrder(
		e.graph.EXPECT().
			Admin(gomock.Any(), op("products(first: 50"), map[string]any{"cursor": nil}, false).
			Return(data(page(true, "c1", "gid://shop/Product/1", "gid://shop/Product/2")), nil),
		e.graph.EXPECT().
			Admin(gomock.Any(), op("products(first: 50"), map[string]any{"cursor": "c1"}, false).
			Return(data(page(false, "c2", "gid://shop/Product/3")), nil),
	)

	n, err := e.svc.Importer.ImportProducts(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(3), e.count(t, &models.Element{}, "type = ?", models.ElementEntry))
	assert.Equal(t, int64(1), e.count(t, &models.Element{}, "type = ?", models.ElementCategory))

	p := e.element(t, "gid://shop/Product/3")
	assert.Equal(t, "product-3", p.Slug)
	assert.Len(t, p.Fields["collections"], 1)
}
