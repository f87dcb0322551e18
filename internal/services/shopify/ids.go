package shopify

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/models"
)

const gidScheme = "gid://"

var (
	ErrInvalidIdentifierKind = errors.New("identifier has a different entity kind")
	ErrMissingIdentifier     = errors.New("payload carries no identifier")
)

// GID is a parsed global identifier: gid://{Namespace}/{Type}/{ID}[?{Query}].
type GID struct {
	Namespace string
	Type      string
	ID        string
	Query     string
}

func (g GID) String() string {
	s := gidScheme + g.Namespace + "/" + g.Type + "/" + g.ID
	if g.Query != "" {
		s += "?" + g.Query
	}
	return s
}

// ParseGID splits a canonical identifier. It reports false for anything
// that does not carry the gid scheme with all three path segments.
func ParseGID(s string) (GID, bool) {
	if !strings.HasPrefix(s, gidScheme) {
		return GID{}, false
	}
	rest := strings.TrimPrefix(s, gidScheme)

	var query string
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return GID{}, false
	}
	return GID{Namespace: parts[0], Type: parts[1], ID: parts[2], Query: query}, true
}

// IsGlobalID reports whether s already uses the gid scheme.
func IsGlobalID(s string) bool {
	return strings.HasPrefix(s, gidScheme)
}

// TypeOf returns the entity type segment of a canonical identifier.
func TypeOf(s string) (string, bool) {
	g, ok := ParseGID(s)
	return g.Type, ok
}

// LegacyID returns the opaque tail of a canonical identifier, without any
// query suffix. Non-canonical input is returned unchanged.
func LegacyID(s string) string {
	if g, ok := ParseGID(s); ok {
		return g.ID
	}
	return s
}

// DecodeStorefront turns a base64 storefront identifier back into its
// canonical form. Values that are already canonical, or that do not decode
// to something canonical, are returned unchanged.
func DecodeStorefront(s string) string {
	if s == "" || IsGlobalID(s) {
		return s
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding} {
		if b, err := enc.DecodeString(s); err == nil && IsGlobalID(string(b)) {
			return string(b)
		}
	}
	return s
}

// EncodeStorefront is the inverse of DecodeStorefront.
func EncodeStorefront(gid string) string {
	if !IsGlobalID(gid) {
		return gid
	}
	return base64.StdEncoding.EncodeToString([]byte(gid))
}

type Normalizer struct {
	Namespace string
}

func NewNormalizer(namespace string) Normalizer {
	if namespace == "" {
		namespace = "shopify"
	}
	return Normalizer{Namespace: namespace}
}

func (n Normalizer) Prefix(kind models.EntityKind) string {
	return gidScheme + n.Namespace + "/" + string(kind) + "/"
}

// Normalize converts a raw numeric, opaque, base64 or canonical identifier
// into the canonical form for kind. Canonical input of the same kind is
// returned unchanged; canonical input of another kind is rejected.
func (n Normalizer) Normalize(raw string, kind models.EntityKind) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingIdentifier
	}

	raw = DecodeStorefront(raw)
	if g, ok := ParseGID(raw); ok {
		if g.Type != string(kind) {
			return "", fmt.Errorf("%w: %q is not a %s", ErrInvalidIdentifierKind, raw, kind)
		}
		return raw, nil
	}
	if IsGlobalID(raw) {
		return "", fmt.Errorf("%w: malformed identifier %q", ErrInvalidIdentifierKind, raw)
	}

	return n.Prefix(kind) + raw, nil
}

// FromPayload derives the canonical identifier from a webhook or query
// payload, preferring admin_graphql_api_id over the raw id field.
func (n Normalizer) FromPayload(payload map[string]any, kind models.EntityKind) (string, error) {
	if v := stringValue(payload["admin_graphql_api_id"]); v != "" {
		return n.Normalize(v, kind)
	}
	if v := stringValue(payload["id"]); v != "" {
		return n.Normalize(v, kind)
	}
	return "", fmt.Errorf("%w: expected %s", ErrMissingIdentifier, kind)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
