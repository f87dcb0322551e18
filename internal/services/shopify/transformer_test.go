package shopify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/models"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Summer Sale":      "summer-sale",
		"  Red / Blue  ":   "red-blue",
		"Ünïcode Tag!":     "ünïcode-tag",
		"already-slugged":  "already-slugged",
		"---":              "",
		"Tag 2024, winter": "tag-2024-winter",
	}
	for in, want := range tests {
		require.Equal(t, want, Slugify(in), in)
	}
}

func TestTransformerProduct(t *testing.T) {
	tr := NewTransformer(config.Mapping{
		ProductSectionUID: "products",
		CollectionField:   "shopifyCollections",
	})

	el := tr.NewProduct()
	require.False(t, el.Enabled)
	require.Equal(t, models.ElementEntry, el.Type)
	require.Equal(t, "products", el.GroupUID)

	tr.ApplyProduct(el, Product{Title: "Shirt", Handle: "shirt"})
	tr.ApplyProductRelations(el, nil, []string{"t1"})

	require.Equal(t, "Shirt", el.Title)
	require.Equal(t, "shirt", el.Slug)
	require.Equal(t, []string{}, el.Fields["shopifyCollections"])
	_, hasTags := el.Fields[""]
	require.False(t, hasTags)
}

func TestTagsUnmarshal(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"tags": "a, b ,,c"}`), &p))
	require.Equal(t, Tags{"a", "b", "c"}, p.Tags)

	require.NoError(t, json.Unmarshal([]byte(`{"tags": ["x", "y"]}`), &p))
	require.Equal(t, Tags{"x", "y"}, p.Tags)
}
