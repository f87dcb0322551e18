package webhook_test

import (
	"context"
	"errors"

	"storefront/internal/services/shopify"
)

type fakeGraph struct {
	admin func(op string, vars map[string]any) (*shopify.Result, error)
	ops   []string
}

func (f *fakeGraph) Admin(_ context.Context, op string, vars map[string]any, _ bool) (*shopify.Result, error) {
	f.ops = append(f.ops, op)
	if f.admin == nil {
		return nil, errors.New("unexpected admin call")
	}
	return f.admin(op, vars)
}

func (f *fakeGraph) Storefront(context.Context, string, map[string]any, bool) (*shopify.Result, error) {
	return nil, errors.New("unexpected storefront call")
}
