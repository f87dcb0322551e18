package shopify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is one entry of a GraphQL errors array or of a userErrors list.
type Error struct {
	Message    string         `json:"message"`
	Field      []string       `json:"field,omitempty"`
	Code       string         `json:"code,omitempty"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Errors is remote-reported failure data. It is passed back to callers as
// is rather than being raised.
type Errors []Error

func (e Errors) String() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return strings.Join(msgs, "; ")
}

type Result struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors Errors         `json:"errors,omitempty"`
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// At walks Data along path and returns whatever is found there.
func (r *Result) At(path ...string) any {
	var cur any = r.Data
	for _, step := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[step]
	}
	return cur
}

// Decode unmarshals the value at path into v.
func (r *Result) Decode(v any, path ...string) error {
	return Decode(r.At(path...), v)
}

// UserErrors returns the top-level errors if present, otherwise the list at
// data.{field}.{list}. The result is nil when the operation succeeded.
func (r *Result) UserErrors(field, list string) Errors {
	if r.HasErrors() {
		return r.Errors
	}
	var errs Errors
	if err := r.Decode(&errs, field, list); err != nil {
		return Errors{{Message: err.Error()}}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func newResult(raw map[string]any) (*Result, error) {
	res := &Result{}
	if data, ok := raw["data"].(map[string]any); ok {
		res.Data = data
	}
	switch errs := raw["errors"].(type) {
	case nil:
	case string:
		res.Errors = Errors{{Message: errs}}
	default:
		if err := Decode(errs, &res.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode errors: %w", err)
		}
	}
	if res.Data == nil && res.Errors == nil {
		return nil, fmt.Errorf("response has neither data nor errors")
	}
	return res, nil
}

// Decode converts a generic JSON value, as produced by decoding a response
// or webhook body, into a typed struct.
func Decode(in any, v any) error {
	if in == nil {
		return nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Tags accepts both the GraphQL list form and the comma separated string
// sent in REST webhook payloads.
type Tags []string

func (t *Tags) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = nil
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			*t = append(*t, tag)
		}
	}
	return nil
}

// Collection as selected by the collection fragment.
type Collection struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

type CollectionEdge struct {
	Node Collection `json:"node"`
}

type CollectionConnection struct {
	Edges []CollectionEdge `json:"edges"`
}

// Product as selected by the product fragment.
type Product struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Handle      string               `json:"handle"`
	Tags        Tags                 `json:"tags"`
	Collections CollectionConnection `json:"collections"`
}

type PageInfo struct {
	HasNextPage bool `json:"hasNextPage"`
}

type ProductEdge struct {
	Cursor string  `json:"cursor"`
	Node   Product `json:"node"`
}

type ProductConnection struct {
	PageInfo PageInfo      `json:"pageInfo"`
	Edges    []ProductEdge `json:"edges"`
}

// OrderLineItem is the subset of an order webhook line item used for cache
// invalidation.
type OrderLineItem struct {
	ProductID     json.Number `json:"product_id"`
	ProductExists bool        `json:"product_exists"`
}

type OrderCustomer struct {
	ID                json.Number `json:"id"`
	AdminGraphQLAPIID string      `json:"admin_graphql_api_id"`
}

type Order struct {
	LineItems []OrderLineItem `json:"line_items"`
	Customer  *OrderCustomer  `json:"customer"`
}

type CustomerAccessToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
}
