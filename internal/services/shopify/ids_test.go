package shopify

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer("shop")

	tests := []struct {
		name    string
		raw     string
		kind    models.EntityKind
		want    string
		wantErr error
	}{
		{name: "numeric", raw: "1", kind: models.KindProduct, want: "gid://shop/Product/1"},
		{name: "canonical unchanged", raw: "gid://shop/Product/1", kind: models.KindProduct, want: "gid://shop/Product/1"},
		{name: "canonical with key suffix", raw: "gid://shop/Checkout/abc?key=def", kind: models.KindCheckout, want: "gid://shop/Checkout/abc?key=def"},
		{
			name: "base64 storefront id",
			raw:  base64.StdEncoding.EncodeToString([]byte("gid://shop/Collection/9")),
			kind: models.KindCollection,
			want: "gid://shop/Collection/9",
		},
		{name: "other kind rejected", raw: "gid://shop/Collection/9", kind: models.KindProduct, wantErr: ErrInvalidIdentifierKind},
		{name: "malformed canonical rejected", raw: "gid://shop/Product", kind: models.KindProduct, wantErr: ErrInvalidIdentifierKind},
		{name: "empty", raw: "  ", kind: models.KindProduct, wantErr: ErrMissingIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw, tt.kind)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			again, err := n.Normalize(got, tt.kind)
			require.NoError(t, err)
			require.Equal(t, got, again)
		})
	}
}

func TestFromPayload(t *testing.T) {
	n := NewNormalizer("shopify")

	var decoded map[string]any
	dec := json.NewDecoder(strings.NewReader(`{"id": 632910392, "title": "IPod Nano"}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&decoded))

	tests := []struct {
		name    string
		payload map[string]any
		want    string
		wantErr error
	}{
		{
			name:    "prefers admin graphql id",
			payload: map[string]any{"id": 5, "admin_graphql_api_id": "gid://shopify/Product/7"},
			want:    "gid://shopify/Product/7",
		},
		{name: "json number id", payload: decoded, want: "gid://shopify/Product/632910392"},
		{name: "float id has no exponent", payload: map[string]any{"id": float64(7340032000001)}, want: "gid://shopify/Product/7340032000001"},
		{name: "missing id", payload: map[string]any{"title": "x"}, wantErr: ErrMissingIdentifier},
		{name: "wrong kind", payload: map[string]any{"admin_graphql_api_id": "gid://shopify/Order/1"}, wantErr: ErrInvalidIdentifierKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.FromPayload(tt.payload, models.KindProduct)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStorefrontEncoding(t *testing.T) {
	gid := "gid://shopify/Checkout/abc?key=xyz"
	enc := EncodeStorefront(gid)
	require.NotEqual(t, gid, enc)
	require.Equal(t, gid, DecodeStorefront(enc))

	require.Equal(t, "12345", DecodeStorefront("12345"))
	require.Equal(t, "plain", EncodeStorefront("plain"))
	// decodes fine but not to a gid: kept as is
	notGID := base64.StdEncoding.EncodeToString([]byte("hello"))
	require.Equal(t, notGID, DecodeStorefront(notGID))
}

func TestParseGID(t *testing.T) {
	g, ok := ParseGID("gid://shopify/Checkout/abc?key=xyz")
	require.True(t, ok)
	require.Equal(t, GID{Namespace: "shopify", Type: "Checkout", ID: "abc", Query: "key=xyz"}, g)
	require.Equal(t, "gid://shopify/Checkout/abc?key=xyz", g.String())
	require.Equal(t, "abc", LegacyID(g.String()))

	_, ok = ParseGID("gid://shopify/Checkout")
	require.False(t, ok)
}
