// Package content is the local element store the sync services write to.
package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"storefront/internal/models"
)

var ErrNotFound = errors.New("element not found")

// ValidationError lists field level problems that prevented a save.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

type Store interface {
	Find(ctx context.Context, id string) (*models.Element, error)
	FindBySlug(ctx context.Context, typ models.ElementType, groupUID, slug string) (*models.Element, error)
	FindUserByEmail(ctx context.Context, email string) (*models.Element, error)
	Save(ctx context.Context, el *models.Element) error
	Delete(ctx context.Context, id string) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Find(ctx context.Context, id string) (*models.Element, error) {
	return s.take(s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *GormStore) FindBySlug(ctx context.Context, typ models.ElementType, groupUID, slug string) (*models.Element, error) {
	return s.take(s.db.WithContext(ctx).
		Where("type = ? AND group_uid = ? AND slug = ?", typ, groupUID, slug))
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.Element, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	return s.take(s.db.WithContext(ctx).
		Where("type = ? AND LOWER(email) = ?", models.ElementUser, strings.ToLower(email)))
}

func (s *GormStore) take(q *gorm.DB) (*models.Element, error) {
	var el models.Element
	if err := q.Take(&el).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &el, nil
}

// Save validates and persists el. A *ValidationError leaves the stored row
// untouched.
func (s *GormStore) Save(ctx context.Context, el *models.Element) error {
	db := s.db.WithContext(ctx)
	if err := s.validate(db, el); err != nil {
		return err
	}
	if err := db.Save(el).Error; err != nil {
		return fmt.Errorf("failed to save element: %w", err)
	}
	return nil
}

func (s *GormStore) validate(db *gorm.DB, el *models.Element) error {
	verr := &ValidationError{}
	if strings.TrimSpace(el.Title) == "" {
		verr.add("title", "Title cannot be blank.")
	}
	if el.Type == "" {
		verr.add("type", "Type cannot be blank.")
	}
	if el.Type == models.ElementUser && el.Email == "" {
		verr.add("email", "Email cannot be blank.")
	}
	if el.Slug != "" {
		q := db.Model(&models.Element{}).
			Where("type = ? AND group_uid = ? AND slug = ?", el.Type, el.GroupUID, el.Slug)
		if el.ID != "" {
			q = q.Where("id <> ?", el.ID)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check slug: %w", err)
		}
		if n > 0 {
			verr.add("slug", fmt.Sprintf("Slug %q has already been taken.", el.Slug))
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Delete is a no-op for unknown ids.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Element{ID: id}).Error; err != nil {
		return fmt.Errorf("failed to delete element: %w", err)
	}
	return nil
}
