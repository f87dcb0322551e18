package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/models"
	"storefront/internal/services/shopify"
)

var keyStrip = regexp.MustCompile(`\s|,`)

const renderOperation = "render"

// Store persists query results and the identifiers each result depends on.
type Store struct {
	db       *gorm.DB
	render   *RenderCache
	excluded map[string]bool
	logger   *zap.Logger
}

// NewStore builds a Store. Identifiers whose entity type is listed in
// excludedTypes are never recorded as dependencies. render may be nil.
func NewStore(db *gorm.DB, render *RenderCache, excludedTypes []string, logger *zap.Logger) *Store {
	excluded := make(map[string]bool, len(excludedTypes))
	for _, t := range excludedTypes {
		excluded[t] = true
	}
	return &Store{db: db, render: render, excluded: excluded, logger: logger}
}

// KeyFor hashes the operation text, minus whitespace and commas, together
// with the JSON encoding of its variables.
func (s *Store) KeyFor(operation string, variables map[string]any) string {
	vars, err := json.Marshal(variables)
	if err != nil {
		vars = []byte(fmt.Sprint(variables))
	}
	sum := md5.Sum(append([]byte(keyStrip.ReplaceAllString(operation, "")), vars...))
	return hex.EncodeToString(sum[:])
}

func (s *Store) Get(ctx context.Context, key string) (map[string]any, bool) {
	var row models.Cache
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("failed to read cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var value map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(row.Value)))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return value, true
}

// Set upserts the entry and replaces its dependency edges in one
// transaction. Failures are logged and leave the previous state in place.
func (s *Store) Set(ctx context.Context, key string, value map[string]any, operation string, variables map[string]any) {
	deps, err := ExtractDependencies(operation, variables, value)
	if err != nil {
		s.logger.Warn("not caching query without traceable dependencies", zap.String("key", key), zap.Error(err))
		return
	}
	deps = s.filter(deps)

	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to encode cache value", zap.String("key", key), zap.Error(err))
		return
	}

	if err := s.write(ctx, key, string(encoded), deps); err != nil {
		s.logger.Error("failed to cache query", zap.String("key", key), zap.Error(err))
		return
	}
	s.logger.Debug("cached query", zap.String("key", key), zap.Strings("dependencies", deps))
}

// write upserts one entry and replaces its dependency edges in a single
// transaction. Dependencies without a relation row get a dependency-only
// one.
func (s *Store) write(ctx context.Context, key, value string, deps []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.Cache{Key: key, Value: value}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error; err != nil {
			return fmt.Errorf("upsert entry: %w", err)
		}

		if err := tx.Where("cache_key = ?", key).Delete(&models.CacheDependency{}).Error; err != nil {
			return fmt.Errorf("clear dependencies: %w", err)
		}
		if len(deps) == 0 {
			return nil
		}

		relations := make([]models.Relation, len(deps))
		edges := make([]models.CacheDependency, len(deps))
		for i, id := range deps {
			kind, _ := shopify.TypeOf(id)
			relations[i] = models.Relation{RemoteID: id, Kind: models.EntityKind(kind)}
			edges[i] = models.CacheDependency{RemoteID: id, CacheKey: key}
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&relations).Error; err != nil {
			return fmt.Errorf("register identifiers: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error; err != nil {
			return fmt.Errorf("insert dependencies: %w", err)
		}
		return nil
	})
}

func (s *Store) renderKey(id string) string {
	return s.KeyFor(renderOperation, map[string]any{"id": shopify.DecodeStorefront(id)})
}

// Render returns the render stored for id. Entries live in the database
// with a dependency on id, so invalidation from any process evicts them;
// the in-process LRU, when set, only fronts reads.
func (s *Store) Render(ctx context.Context, id string) ([]byte, bool) {
	if s.render != nil {
		if body, ok := s.render.Get(id); ok {
			return body, true
		}
	}

	key := s.renderKey(id)
	var row models.Cache
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("failed to read render", zap.String("remote_id", id), zap.Error(err))
		}
		return nil, false
	}

	body := []byte(row.Value)
	if s.render != nil {
		s.render.Set(id, body)
	}
	return body, true
}

// SetRender stores body for id. Failures are logged and leave the previous
// state in place.
func (s *Store) SetRender(ctx context.Context, id string, body []byte) {
	if err := s.write(ctx, s.renderKey(id), string(body), []string{shopify.DecodeStorefront(id)}); err != nil {
		s.logger.Error("failed to store render", zap.String("remote_id", id), zap.Error(err))
		return
	}
	if s.render != nil {
		s.render.Set(id, body)
	}
}

// InvalidateByIdentifier evicts every entry that recorded a dependency on id,
// along with those entries' remaining edges, and the render cache entry
// keyed by id.
func (s *Store) InvalidateByIdentifier(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return Invalidate(tx, id)
	})
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", id, err)
	}
	if s.render != nil {
		s.render.Remove(id, shopify.EncodeStorefront(id))
	}
	s.logger.Debug("cleared caches", zap.String("remote_id", id))
	return nil
}

// Invalidate deletes the entries depending on id, and id's edges, using a
// caller supplied transaction.
func Invalidate(tx *gorm.DB, id string) error {
	keys := tx.Model(&models.CacheDependency{}).Select("cache_key").Where("remote_id = ?", id)
	if err := tx.Where("cache_key IN (?)", keys).Delete(&models.Cache{}).Error; err != nil {
		return err
	}
	return tx.Where("remote_id = ?", id).Delete(&models.CacheDependency{}).Error
}

// InvalidateAll drops every cached entry and dependency edge.
func (s *Store) InvalidateAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.CacheDependency{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&models.Cache{}).Error
	})
	if err != nil {
		return fmt.Errorf("clear caches: %w", err)
	}
	if s.render != nil {
		s.render.Purge()
	}
	s.logger.Info("cleared all caches")
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&models.Cache{}).Error
}

func (s *Store) filter(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if t, ok := shopify.TypeOf(id); ok && s.excluded[t] {
			continue
		}
		out = append(out, id)
	}
	return out
}
