package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/content"
	"storefront/internal/models"
	"storefront/internal/services/shopify"
)

// Collections maps remote collections onto category elements.
type Collections struct {
	Deps
}

func NewCollections(d Deps) *Collections {
	return &Collections{Deps: d}
}

// Upsert returns the id of the category element now mirroring the
// collection.
func (s *Collections) Upsert(ctx context.Context, payload map[string]any, fetchFresh bool) (string, error) {
	id, err := s.Relations.FromPayload(payload, models.KindCollection)
	if err != nil {
		return "", err
	}

	var c shopify.Collection
	if fetchFresh {
		if c, err = s.fetch(ctx, id); err != nil {
			return "", err
		}
	} else if err := decodePayload(payload, &c); err != nil {
		return "", fmt.Errorf("decode collection %s: %w", id, err)
	}
	c.ID = id

	return s.Save(ctx, c, nil)
}

func (s *Collections) fetch(ctx context.Context, id string) (shopify.Collection, error) {
	var c shopify.Collection

	res, err := s.Graph.Admin(ctx, getCollectionQuery, map[string]any{"id": id}, false)
	if err != nil {
		return c, err
	}
	if res.HasErrors() {
		s.Logger.Error("Failed to import collection", zap.String("remote_id", id), zap.String("errors", res.Errors.String()))
		return c, &RemoteError{Op: "fetch collection " + id, Errors: res.Errors}
	}
	if res.At("collection") == nil {
		return c, fmt.Errorf("collection %s: %w", id, ErrRemoteNotFound)
	}
	if err := res.Decode(&c, "collection"); err != nil {
		return c, fmt.Errorf("decode collection %s: %w", id, err)
	}
	return c, nil
}

// Save upserts the category for c, whose ID must already be canonical.
// A collection known only by id is fetched first.
func (s *Collections) Save(ctx context.Context, c shopify.Collection, memo *Memo) (string, error) {
	if elementID, ok := memo.Get(c.ID); ok {
		return elementID, nil
	}
	if c.Title == "" {
		id := c.ID
		fetched, err := s.fetch(ctx, id)
		if err != nil {
			return "", err
		}
		c = fetched
		c.ID = id
	}

	var elementID string
	err := s.Relations.WithLock(ctx, c.ID, func() error {
		el, created, err := loadOrNew(ctx, s.Deps, c.ID, s.Transformer.NewCollection)
		if err != nil {
			return err
		}

		s.Transformer.ApplyCollection(el, c)

		if err := s.Content.Save(ctx, el); err != nil {
			saveFailed(s.Logger, "Failed to upsert collection", c.ID, err)
			return fmt.Errorf("save collection %s: %w", c.ID, err)
		}
		elementID = el.ID

		return commit(ctx, s.Deps, c.ID, models.KindCollection, el.ID, created)
	})
	if err != nil {
		return "", err
	}

	memo.Set(c.ID, elementID)
	return elementID, nil
}

func (s *Collections) Delete(ctx context.Context, payload map[string]any) error {
	id, err := s.Relations.FromPayload(payload, models.KindCollection)
	if err != nil {
		return err
	}
	return remove(ctx, s.Deps, id)
}

// loadOrNew returns the element linked to remoteID, or a fresh one from
// build. A link to an element that no longer exists is dropped.
func loadOrNew(ctx context.Context, d Deps, remoteID string, build func() *models.Element) (*models.Element, bool, error) {
	elementID, err := d.Relations.ElementIDByRemoteID(ctx, remoteID)
	if err != nil {
		return nil, false, err
	}
	if elementID == "" {
		return build(), true, nil
	}

	el, err := d.Content.Find(ctx, elementID)
	if err == nil {
		return el, false, nil
	}
	if !errors.Is(err, content.ErrNotFound) {
		return nil, false, err
	}

	d.Logger.Warn("Linked element is gone, recreating",
		zap.String("remote_id", remoteID),
		zap.String("element_id", elementID),
	)
	if err := d.Relations.Remove(ctx, remoteID); err != nil {
		return nil, false, err
	}
	return build(), true, nil
}

// commit runs after a successful save: caches depending on remoteID are
// cleared and a first-time mapping is recorded.
func commit(ctx context.Context, d Deps, remoteID string, kind models.EntityKind, elementID string, created bool) error {
	invErr := d.Cache.InvalidateByIdentifier(ctx, remoteID)
	if invErr != nil {
		d.Logger.Error("Failed to clear caches", zap.String("remote_id", remoteID), zap.Error(invErr))
	}
	if created {
		if err := d.Relations.Store(ctx, remoteID, kind, elementID); err != nil {
			return err
		}
	}
	return invErr
}

// remove deletes the element mirroring remoteID. Unknown ids are a no-op.
func remove(ctx context.Context, d Deps, remoteID string) error {
	elementID, err := d.Relations.ElementIDByRemoteID(ctx, remoteID)
	if err != nil {
		return err
	}
	if elementID == "" {
		d.Logger.Debug("Nothing to delete", zap.String("remote_id", remoteID))
		return nil
	}

	if err := d.Content.Delete(ctx, elementID); err != nil {
		return err
	}
	if err := d.Cache.InvalidateByIdentifier(ctx, remoteID); err != nil {
		return err
	}
	return d.Relations.Remove(ctx, remoteID)
}
