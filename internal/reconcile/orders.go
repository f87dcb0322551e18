package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/services/shopify"
)

type Orders struct {
	Deps
}

func NewOrders(d Deps) *Orders {
	return &Orders{Deps: d}
}

// OnCreate clears caches for every ordered product so stock levels are
// fresh, and for the ordering customer.
func (s *Orders) OnCreate(ctx context.Context, payload map[string]any) error {
	var order shopify.Order
	if err := shopify.Decode(payload, &order); err != nil {
		return fmt.Errorf("decode order: %w", err)
	}

	var errs []error
	for _, item := range order.LineItems {
		if !item.ProductExists || item.ProductID == "" {
			continue
		}
		id, err := s.Relations.Normalize(item.ProductID.String(), models.KindProduct)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, s.Cache.InvalidateByIdentifier(ctx, id))
	}

	if c := order.Customer; c != nil {
		raw := c.AdminGraphQLAPIID
		if raw == "" {
			raw = c.ID.String()
		}
		if raw != "" {
			id, err := s.Relations.Normalize(raw, models.KindCustomer)
			if err != nil {
				errs = append(errs, err)
			} else {
				errs = append(errs, s.Cache.InvalidateByIdentifier(ctx, id))
			}
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.Logger.Error("Failed to clear order caches", zap.Error(err))
	}
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
