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

// Products maps remote products onto entries.
type Products struct {
	Deps
	collections *Collections
}

func NewProducts(d Deps, collections *Collections) *Products {
	return &Products{Deps: d, collections: collections}
}

func (s *Products) Upsert(ctx context.Context, payload map[string]any, fetchFresh bool) error {
	id, err := s.Relations.FromPayload(payload, models.KindProduct)
	if err != nil {
		return err
	}

	var p shopify.Product
	if fetchFresh {
		if p, err = s.fetch(ctx, id); err != nil {
			return err
		}
	} else if err := decodePayload(payload, &p); err != nil {
		return fmt.Errorf("decode product %s: %w", id, err)
	}
	p.ID = id

	return s.Save(ctx, p, NewMemo(defaultMemoSize))
}

func (s *Products) fetch(ctx context.Context, id string) (shopify.Product, error) {
	var p shopify.Product

	res, err := s.Graph.Admin(ctx, getProductQuery, map[string]any{"id": id}, false)
	if err != nil {
		return p, err
	}
	if res.HasErrors() {
		s.Logger.Error("Failed to import product", zap.String("remote_id", id), zap.String("errors", res.Errors.String()))
		return p, &RemoteError{Op: "fetch product " + id, Errors: res.Errors}
	}
	if res.At("product") == nil {
		return p, fmt.Errorf("product %s: %w", id, ErrRemoteNotFound)
	}
	if err := res.Decode(&p, "product"); err != nil {
		return p, fmt.Errorf("decode product %s: %w", id, err)
	}
	return p, nil
}

// Save upserts the entry for p, whose ID must already be canonical, along
// with its collections and tags.
func (s *Products) Save(ctx context.Context, p shopify.Product, memo *Memo) error {
	return s.Relations.WithLock(ctx, p.ID, func() error {
		el, created, err := loadOrNew(ctx, s.Deps, p.ID, s.Transformer.NewProduct)
		if err != nil {
			return err
		}

		s.Transformer.ApplyProduct(el, p)

		mapping := s.Transformer.Mapping()
		var collectionIDs, tagIDs []string
		if mapping.CollectionField != "" {
			collectionIDs = s.saveCollections(ctx, p, memo)
		}
		if mapping.TagField != "" {
			if tagIDs, err = s.resolveTags(ctx, p.Tags); err != nil {
				return err
			}
		}
		s.Transformer.ApplyProductRelations(el, collectionIDs, tagIDs)

		if err := s.Content.Save(ctx, el); err != nil {
			saveFailed(s.Logger, "Failed to upsert product", p.ID, err)
			return fmt.Errorf("save product %s: %w", p.ID, err)
		}

		return commit(ctx, s.Deps, p.ID, models.KindProduct, el.ID, created)
	})
}

func (s *Products) saveCollections(ctx context.Context, p shopify.Product, memo *Memo) []string {
	ids := make([]string, 0, len(p.Collections.Edges))
	for _, edge := range p.Collections.Edges {
		c := edge.Node
		id, err := s.Relations.Normalize(c.ID, models.KindCollection)
		if err != nil {
			s.Logger.Warn("Skipping collection", zap.String("product", p.ID), zap.Error(err))
			continue
		}
		c.ID = id

		elementID, err := s.collections.Save(ctx, c, memo)
		if err != nil {
			s.Logger.Warn("Skipping collection", zap.String("product", p.ID), zap.String("remote_id", id), zap.Error(err))
			continue
		}
		ids = append(ids, elementID)
	}
	return ids
}

// resolveTags reuses tags whose slug already exists before creating new
// ones.
func (s *Products) resolveTags(ctx context.Context, tags []string) ([]string, error) {
	group := s.Transformer.Mapping().TagGroupUID
	ids := make([]string, 0, len(tags))
	seen := map[string]bool{}

	for _, title := range tags {
		tag := s.Transformer.NewTag(title)
		if tag.Slug == "" || seen[tag.Slug] {
			continue
		}
		seen[tag.Slug] = true

		existing, err := s.Content.FindBySlug(ctx, models.ElementTag, group, tag.Slug)
		switch {
		case err == nil:
			ids = append(ids, existing.ID)
			continue
		case !errors.Is(err, content.ErrNotFound):
			return nil, fmt.Errorf("lookup tag %q: %w", title, err)
		}

		if err := s.Content.Save(ctx, tag); err != nil {
			return nil, fmt.Errorf("create tag %q: %w", title, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func (s *Products) Delete(ctx context.Context, payload map[string]any) error {
	id, err := s.Relations.FromPayload(payload, models.KindProduct)
	if err != nil {
		return err
	}
	return remove(ctx, s.Deps, id)
}

// InvalidateByRawID clears caches for a product referenced by its numeric
// or canonical id.
func (s *Products) InvalidateByRawID(ctx context.Context, raw string) error {
	id, err := s.Relations.Normalize(raw, models.KindProduct)
	if err != nil {
		return err
	}
	return s.Cache.InvalidateByIdentifier(ctx, id)
}
