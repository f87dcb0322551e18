package relations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/cache"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/services/shopify"
)

// Store maps remote identifiers to local element ids.
type Store struct {
	db         *gorm.DB
	normalizer shopify.Normalizer
	locker     Locker
	logger     *zap.Logger
}

func NewStore(db *database.Database, normalizer shopify.Normalizer, logger *zap.Logger) *Store {
	var locker Locker = newKeyedMutex()
	if db.Dialect == database.DialectPostgres {
		locker = &advisoryLocker{db: db.DB}
	}
	return &Store{db: db.DB, normalizer: normalizer, locker: locker, logger: logger}
}

// Store records remoteID, keeping an existing row untouched, and links it to
// elementID when one is given.
func (s *Store) Store(ctx context.Context, remoteID string, kind models.EntityKind, elementID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return store(tx, remoteID, kind, elementID)
	})
}

func store(tx *gorm.DB, remoteID string, kind models.EntityKind, elementID string) error {
	rel := models.Relation{RemoteID: remoteID, Kind: kind}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rel).Error; err != nil {
		return fmt.Errorf("store relation %s: %w", remoteID, err)
	}
	if elementID == "" {
		return nil
	}
	link := models.RelationElement{RemoteID: remoteID, ElementID: elementID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("link %s to element %s: %w", remoteID, elementID, err)
	}
	return nil
}

// Remove deletes the relation. Element links, dependency edges and the
// checkout row go with it through foreign keys; cache entries that depended
// on remoteID are evicted in the same transaction.
func (s *Store) Remove(ctx context.Context, remoteID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cache.Invalidate(tx, remoteID); err != nil {
			return err
		}
		return tx.Delete(&models.Relation{RemoteID: remoteID}).Error
	})
	if err != nil {
		return fmt.Errorf("remove relation %s: %w", remoteID, err)
	}
	return nil
}

// ElementIDByRemoteID returns "" when remoteID has no linked element.
func (s *Store) ElementIDByRemoteID(ctx context.Context, remoteID string) (string, error) {
	var link models.RelationElement
	err := s.db.WithContext(ctx).Where("remote_id = ?", remoteID).Order("element_id").Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup element for %s: %w", remoteID, err)
	}
	return link.ElementID, nil
}

// RemoteIDByElementID returns "" when elementID has no relation of kind.
func (s *Store) RemoteIDByElementID(ctx context.Context, elementID string, kind models.EntityKind) (string, error) {
	var remoteID string
	err := s.db.WithContext(ctx).
		Table("storefront_relations_to_elements AS e").
		Select("e.remote_id").
		Joins("JOIN storefront_relations AS r ON r.remote_id = e.remote_id").
		Where("e.element_id = ? AND r.kind = ?", elementID, kind).
		Order("r.created_at DESC").
		Limit(1).
		Scan(&remoteID).Error
	if err != nil {
		return "", fmt.Errorf("lookup %s for element %s: %w", kind, elementID, err)
	}
	return remoteID, nil
}

// Resolve maps id to the stored identifier, matching stored identifiers that
// carry an extra query suffix (checkout ?key=). It returns "" when nothing
// is stored.
func (s *Store) Resolve(ctx context.Context, id string) (string, error) {
	var rel models.Relation
	err := s.db.WithContext(ctx).
		Where("remote_id = ? OR remote_id LIKE ? ESCAPE '\\'", id, escapeLike(id)+"?%").
		Order("remote_id").
		Take(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}
	return rel.RemoteID, nil
}

func (s *Store) Normalize(raw string, kind models.EntityKind) (string, error) {
	return s.normalizer.Normalize(raw, kind)
}

func (s *Store) FromPayload(payload map[string]any, kind models.EntityKind) (string, error) {
	return s.normalizer.FromPayload(payload, kind)
}

// WithLock runs fn while holding the lock for remoteID, closing the window
// in which two first-time upserts could both create an element.
func (s *Store) WithLock(ctx context.Context, remoteID string, fn func() error) error {
	return s.locker.WithLock(ctx, remoteID, fn)
}

// StoreCheckout records an open checkout, optionally owned by elementID.
func (s *Store) StoreCheckout(ctx context.Context, remoteID, elementID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := store(tx, remoteID, models.KindCheckout, elementID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Checkout{RemoteID: remoteID}).Error
	})
}

// OpenCheckoutForElement returns the most recent checkout linked to
// elementID that has not been completed, or "".
func (s *Store) OpenCheckoutForElement(ctx context.Context, elementID string) (string, error) {
	var remoteID string
	err := s.db.WithContext(ctx).
		Table("storefront_relations_to_elements AS e").
		Select("e.remote_id").
		Joins("JOIN storefront_checkouts AS c ON c.remote_id = e.remote_id").
		Joins("JOIN storefront_relations AS r ON r.remote_id = e.remote_id").
		Where("e.element_id = ? AND c.completed_at IS NULL", elementID).
		Order("r.created_at DESC").
		Limit(1).
		Scan(&remoteID).Error
	if err != nil {
		return "", fmt.Errorf("lookup open checkout for %s: %w", elementID, err)
	}
	return remoteID, nil
}

// CheckoutCompleted reports whether remoteID is known locally as completed.
func (s *Store) CheckoutCompleted(ctx context.Context, remoteID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Checkout{}).
		Where("remote_id = ? AND completed_at IS NOT NULL", remoteID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("lookup checkout %s: %w", remoteID, err)
	}
	return n > 0, nil
}

// DeleteCheckout drops the checkout and its relation.
func (s *Store) DeleteCheckout(ctx context.Context, remoteID string) error {
	return s.Remove(ctx, remoteID)
}

func (s *Store) CompleteCheckout(ctx context.Context, remoteID string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.Checkout{}).
		Where("remote_id = ?", remoteID).
		Update("completed_at", at).Error
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
