package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/services/shopify"
	"storefront/internal/session"
)

// Checkouts handles checkout notifications and opens per visitor carts.
type Checkouts struct {
	Deps
	ttl time.Duration
	now func() time.Time
}

func NewCheckouts(d Deps, ttl time.Duration) *Checkouts {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Checkouts{Deps: d, ttl: ttl, now: time.Now}
}

// For returns the cart of one visitor. user may be nil.
func (s *Checkouts) For(storage session.Storage, user *models.Element) *Checkout {
	return &Checkout{svc: s, storage: storage, user: user}
}

// OnUpdate clears caches for the checkout and deletes it once completed.
func (s *Checkouts) OnUpdate(ctx context.Context, payload map[string]any) error {
	return s.onUpdate(ctx, payload, nil)
}

// Delete forgets the checkout. Unknown checkouts are a no-op.
func (s *Checkouts) Delete(ctx context.Context, payload map[string]any) error {
	return s.delete(ctx, payload, nil)
}

func (s *Checkouts) onUpdate(ctx context.Context, payload map[string]any, storage session.Storage) error {
	ids, err := s.resolve(ctx, payload)
	if err != nil {
		return err
	}
	if err := s.invalidate(ctx, ids); err != nil {
		return err
	}
	if completed(payload) {
		return s.delete(ctx, payload, storage)
	}
	return nil
}

func (s *Checkouts) delete(ctx context.Context, payload map[string]any, storage session.Storage) error {
	ids, err := s.resolve(ctx, payload)
	if err != nil {
		return err
	}
	if err := s.invalidate(ctx, ids); err != nil {
		return err
	}

	if storage != nil {
		if stored, ok := storage.Get(session.CheckoutKey); ok && contains(ids, shopify.DecodeStorefront(stored)) {
			storage.Delete(session.CheckoutKey)
		}
	}

	for _, id := range ids {
		if err := s.Relations.DeleteCheckout(ctx, id); err != nil {
			return err
		}
	}
	s.Logger.Debug("Deleted checkout", zap.Strings("remote_id", ids))
	return nil
}

// resolve returns every identifier the payload may refer to: the id built
// from the checkout token (webhook payloads carry a numeric id), the id
// field, and the stored ids they map to.
func (s *Checkouts) resolve(ctx context.Context, payload map[string]any) ([]string, error) {
	var ids []string
	if token, _ := payload["token"].(string); token != "" {
		if id, err := s.Relations.Normalize(token, models.KindCheckout); err == nil {
			ids = append(ids, id)
		}
	}
	id, err := s.Relations.FromPayload(payload, models.KindCheckout)
	if err != nil && len(ids) == 0 {
		return nil, err
	}
	if err == nil && !contains(ids, id) {
		ids = append(ids, id)
	}

	out := append([]string(nil), ids...)
	for _, id := range ids {
		stored, err := s.Relations.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		if stored != "" && !contains(out, stored) {
			out = append(out, stored)
		}
	}
	return out, nil
}

func (s *Checkouts) invalidate(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		errs = append(errs, s.Cache.InvalidateByIdentifier(ctx, id))
	}
	return errors.Join(errs...)
}

func completed(payload map[string]any) bool {
	switch v := payload["completed_at"].(type) {
	case nil:
		return false
	case string:
		return v != ""
	default:
		return true
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Checkout is one visitor's cart for the duration of a request.
type Checkout struct {
	svc     *Checkouts
	storage session.Storage
	user    *models.Element
	id      string
}

// CheckoutID returns the storefront id of the visitor's open checkout,
// creating one when neither the user's open checkout nor the stored id is
// still live.
func (c *Checkout) CheckoutID(ctx context.Context) (string, error) {
	if c.id != "" {
		return c.id, nil
	}

	var candidates []string
	if c.user != nil {
		open, err := c.svc.Relations.OpenCheckoutForElement(ctx, c.user.ID)
		if err != nil {
			return "", err
		}
		if open != "" {
			candidates = append(candidates, open)
		}
	}
	if stored, ok := c.storage.Get(session.CheckoutKey); ok {
		candidates = append(candidates, stored)
	}

	for _, candidate := range candidates {
		gid, live, err := c.validate(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !live {
			continue
		}
		c.id = shopify.EncodeStorefront(gid)
		if stored, _ := c.storage.Get(session.CheckoutKey); stored != c.id {
			c.storage.Set(session.CheckoutKey, c.id, c.svc.now().Add(c.svc.ttl))
		}
		return c.id, nil
	}

	return c.create(ctx)
}

// validate asks the remote whether candidate is still an open checkout.
func (c *Checkout) validate(ctx context.Context, candidate string) (string, bool, error) {
	gid := shopify.DecodeStorefront(candidate)
	if t, ok := shopify.TypeOf(gid); !ok || t != string(models.KindCheckout) {
		return "", false, nil
	}

	done, err := c.svc.Relations.CheckoutCompleted(ctx, gid)
	if err != nil || done {
		return "", false, err
	}

	res, err := c.svc.Graph.Storefront(ctx, getCheckoutQuery, map[string]any{"id": shopify.EncodeStorefront(gid)}, false)
	if err != nil {
		return "", false, err
	}
	if res.HasErrors() || res.At("node") == nil {
		return "", false, nil
	}
	if res.At("node", "completedAt") != nil {
		if err := c.svc.Relations.CompleteCheckout(ctx, gid, c.svc.now()); err != nil {
			c.svc.Logger.Warn("Failed to mark checkout completed", zap.String("remote_id", gid), zap.Error(err))
		}
		return "", false, nil
	}
	return gid, true, nil
}

func (c *Checkout) create(ctx context.Context) (string, error) {
	input := map[string]any{}
	userID := ""
	if c.user != nil {
		userID = c.user.ID
		if c.user.Email != "" {
			input["email"] = c.user.Email
		}
	}

	res, err := c.svc.Graph.Storefront(ctx, createCheckoutMutation, map[string]any{"input": input}, false)
	if err != nil {
		return "", err
	}
	if errs := res.UserErrors("checkoutCreate", "checkoutUserErrors"); errs != nil {
		c.svc.Logger.Error("Failed to create checkout", zap.String("errors", errs.String()))
		return "", &RemoteError{Op: "create checkout", Errors: errs}
	}

	id, _ := res.At("checkoutCreate", "checkout", "id").(string)
	if id == "" {
		return "", errors.New("create checkout: no id returned")
	}
	gid := shopify.DecodeStorefront(id)

	if err := c.svc.Relations.StoreCheckout(ctx, gid, userID); err != nil {
		return "", fmt.Errorf("store checkout: %w", err)
	}
	c.storage.Set(session.CheckoutKey, id, c.svc.now().Add(c.svc.ttl))
	c.id = id
	return id, nil
}

// mutate runs a checkout mutation. Remote errors come back verbatim as
// data; only transport and local failures are errors.
func (c *Checkout) mutate(ctx context.Context, op string, vars map[string]any, alias, list string) (shopify.Errors, error) {
	id, err := c.CheckoutID(ctx)
	if err != nil {
		return nil, err
	}
	vars["checkoutId"] = id

	res, err := c.svc.Graph.Storefront(ctx, op, vars, false)
	if err != nil {
		return nil, err
	}
	if errs := res.UserErrors(alias, list); errs != nil {
		c.svc.Logger.Error("Checkout mutation failed", zap.String("op", alias), zap.String("errors", errs.String()))
		return errs, nil
	}

	if err := c.svc.onUpdate(ctx, map[string]any{"id": id}, c.storage); err != nil {
		c.svc.Logger.Warn("Failed to clear checkout caches", zap.Error(err))
	}
	return nil, nil
}

func (c *Checkout) AddLineItem(ctx context.Context, variantID string, quantity int) (shopify.Errors, error) {
	return c.mutate(ctx, addLineItemMutation, map[string]any{
		"lineItems": []map[string]any{{"variantId": variantID, "quantity": quantity}},
	}, "add", "userErrors")
}

func (c *Checkout) UpdateLineItem(ctx context.Context, lineItemID string, quantity int) (shopify.Errors, error) {
	return c.mutate(ctx, updateLineItemMutation, map[string]any{
		"lineItems": []map[string]any{{"id": lineItemID, "quantity": quantity}},
	}, "update", "userErrors")
}

func (c *Checkout) RemoveLineItem(ctx context.Context, lineItemID string) (shopify.Errors, error) {
	return c.mutate(ctx, removeLineItemMutation, map[string]any{
		"lineItemIds": []string{lineItemID},
	}, "remove", "userErrors")
}

func (c *Checkout) ApplyDiscountCode(ctx context.Context, code string) (shopify.Errors, error) {
	return c.mutate(ctx, applyDiscountMutation, map[string]any{"code": code}, "apply", "checkoutUserErrors")
}

func (c *Checkout) RemoveDiscountCode(ctx context.Context) (shopify.Errors, error) {
	return c.mutate(ctx, removeDiscountMutation, map[string]any{}, "remove", "checkoutUserErrors")
}

func (c *Checkout) SetNote(ctx context.Context, note string) (shopify.Errors, error) {
	return c.mutate(ctx, setNoteMutation, map[string]any{"note": note}, "set", "checkoutUserErrors")
}

// SetCustomAttributes replaces the checkout's custom attributes with attrs.
func (c *Checkout) SetCustomAttributes(ctx context.Context, attrs map[string]string) (shopify.Errors, error) {
	list := make([]map[string]any, 0, len(attrs))
	for _, k := range sortedKeys(attrs) {
		list = append(list, map[string]any{"key": k, "value": attrs[k]})
	}
	return c.mutate(ctx, setAttributesMutation, map[string]any{"customAttributes": list}, "set", "checkoutUserErrors")
}
