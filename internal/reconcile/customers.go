package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/content"
	"storefront/internal/models"
	"storefront/internal/services/shopify"
	"storefront/internal/session"
)

// Customers ties remote customers to existing site users and manages
// customer access tokens.
type Customers struct {
	Deps
	now func() time.Time
}

func NewCustomers(d Deps) *Customers {
	return &Customers{Deps: d, now: time.Now}
}

// Upsert links the customer to the user with the same email. Users are
// never created here.
func (s *Customers) Upsert(ctx context.Context, payload map[string]any) error {
	id, err := s.Relations.FromPayload(payload, models.KindCustomer)
	if err != nil {
		return err
	}

	elementID, err := s.Relations.ElementIDByRemoteID(ctx, id)
	if err != nil || elementID != "" {
		return err
	}

	email, _ := payload["email"].(string)
	user, err := s.Content.FindUserByEmail(ctx, email)
	if errors.Is(err, content.ErrNotFound) {
		s.Logger.Debug("No user for customer", zap.String("remote_id", id))
		return nil
	}
	if err != nil {
		return err
	}

	// One customer per user: a second remote customer with the same email
	// is left unlinked.
	return s.Relations.WithLock(ctx, "user:"+user.ID, func() error {
		linked, err := s.Relations.RemoteIDByElementID(ctx, user.ID, models.KindCustomer)
		if err != nil {
			return err
		}
		if linked != "" && linked != id {
			s.Logger.Warn("User already linked to another customer",
				zap.String("remote_id", id),
				zap.String("linked_remote_id", linked),
				zap.String("element_id", user.ID),
			)
			return nil
		}
		return s.Relations.Store(ctx, id, models.KindCustomer, user.ID)
	})
}

func (s *Customers) Delete(ctx context.Context, payload map[string]any) error {
	id, err := s.Relations.FromPayload(payload, models.KindCustomer)
	if err != nil {
		return err
	}
	if err := s.Relations.Remove(ctx, id); err != nil {
		return err
	}
	return s.Cache.InvalidateByIdentifier(ctx, id)
}

// Login exchanges credentials for an access token kept in storage until
// the remote expiry. Remote user errors are returned as data.
func (s *Customers) Login(ctx context.Context, storage session.Storage, email, password string) (shopify.Errors, error) {
	res, err := s.Graph.Storefront(ctx, loginMutation, map[string]any{
		"email":    email,
		"password": password,
	}, false)
	if err != nil {
		return nil, err
	}
	if errs := res.UserErrors("login", "customerUserErrors"); errs != nil {
		return errs, nil
	}

	var token shopify.CustomerAccessToken
	if err := res.Decode(&token, "login", "customerAccessToken"); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("login returned no access token")
	}

	expires, err := time.Parse(time.RFC3339, token.ExpiresAt)
	if err != nil {
		expires = s.now().Add(24 * time.Hour)
	}
	storage.Set(session.AuthKey, token.AccessToken, expires)
	return nil, nil
}

// Logout revokes the stored token, if any, and forgets it.
func (s *Customers) Logout(ctx context.Context, storage session.Storage) error {
	token, ok := storage.Get(session.AuthKey)
	storage.Delete(session.AuthKey)
	if !ok {
		return nil
	}

	res, err := s.Graph.Storefront(ctx, logoutMutation, map[string]any{"customerAccessToken": token}, false)
	if err != nil {
		return err
	}
	if errs := res.UserErrors("logout", "userErrors"); errs != nil {
		s.Logger.Warn("Failed to revoke customer token", zap.String("errors", errs.String()))
	}
	return nil
}

// CurrentCustomerID returns the canonical id of the logged in customer, or
// "" when there is no valid token.
func (s *Customers) CurrentCustomerID(ctx context.Context, storage session.Storage) (string, error) {
	token, ok := storage.Get(session.AuthKey)
	if !ok {
		return "", nil
	}

	res, err := s.Graph.Storefront(ctx, currentCustomerQuery, map[string]any{"token": token}, false)
	if err != nil {
		return "", err
	}
	if res.HasErrors() {
		return "", nil
	}

	var customer struct {
		ID string `json:"id"`
	}
	if err := res.Decode(&customer, "customer"); err != nil || customer.ID == "" {
		return "", nil
	}
	return shopify.DecodeStorefront(customer.ID), nil
}

// CurrentUser returns the site user linked to the logged in customer, or
// nil.
func (s *Customers) CurrentUser(ctx context.Context, storage session.Storage) (*models.Element, error) {
	id, err := s.CurrentCustomerID(ctx, storage)
	if err != nil || id == "" {
		return nil, err
	}

	elementID, err := s.Relations.ElementIDByRemoteID(ctx, id)
	if err != nil || elementID == "" {
		return nil, err
	}

	user, err := s.Content.Find(ctx, elementID)
	if errors.Is(err, content.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// CustomerIDForUser returns the customer linked to a site user, or "".
func (s *Customers) CustomerIDForUser(ctx context.Context, userID string) (string, error) {
	return s.Relations.RemoteIDByElementID(ctx, userID, models.KindCustomer)
}
