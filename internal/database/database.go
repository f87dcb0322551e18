package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Database struct {
	DB      *gorm.DB
	Dialect Dialect
}

type Options struct {
	LogLevel logger.LogLevel
}

func New(databaseURL string, opts ...Options) (*Database, error) {
	opt := Options{LogLevel: logger.Warn}
	if len(opts) > 0 {
		opt = opts[0]
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(opt.LogLevel),
	}

	var (
		db      *gorm.DB
		err     error
		dialect Dialect
	)

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development and tests
		dialect = DialectSQLite
		db, err = gorm.Open(sqlite.Open(sqliteDSN(strings.TrimPrefix(databaseURL, "sqlite://"))), gormCfg)
	} else {
		// PostgreSQL for production
		dialect = DialectPostgres
		db, err = gorm.Open(postgres.Open(databaseURL), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == DialectSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		// One writer keeps in-memory databases shared and avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	d := &Database{DB: db, Dialect: dialect}
	if err := d.Migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Migrate creates the storefront tables. Deleting a relation cascades to its
// element links, cache dependencies and checkout row; deleting a cache entry
// cascades to its dependencies.
func (d *Database) Migrate() error {
	for _, stmt := range schema {
		if err := d.DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS storefront_relations (
		remote_id VARCHAR(255) PRIMARY KEY,
		kind VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS storefront_relations_to_elements (
		remote_id VARCHAR(255) NOT NULL REFERENCES storefront_relations (remote_id) ON DELETE CASCADE,
		element_id VARCHAR(64) NOT NULL,
		PRIMARY KEY (remote_id, element_id)
	)`,
	`CREATE INDEX IF NOT EXISTS storefront_relations_to_elements_element_idx
		ON storefront_relations_to_elements (element_id)`,
	`CREATE TABLE IF NOT EXISTS storefront_caches (
		cache_key VARCHAR(32) PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS storefront_relations_to_caches (
		remote_id VARCHAR(255) NOT NULL REFERENCES storefront_relations (remote_id) ON DELETE CASCADE,
		cache_key VARCHAR(32) NOT NULL REFERENCES storefront_caches (cache_key) ON DELETE CASCADE,
		PRIMARY KEY (remote_id, cache_key)
	)`,
	`CREATE INDEX IF NOT EXISTS storefront_relations_to_caches_key_idx
		ON storefront_relations_to_caches (cache_key)`,
	`CREATE TABLE IF NOT EXISTS storefront_checkouts (
		remote_id VARCHAR(255) PRIMARY KEY REFERENCES storefront_relations (remote_id) ON DELETE CASCADE,
		completed_at TIMESTAMP NULL
	)`,
	`CREATE TABLE IF NOT EXISTS storefront_webhooks (
		id VARCHAR(255) PRIMARY KEY,
		hook VARCHAR(64) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS storefront_sessions (
		session_id VARCHAR(64) NOT NULL,
		session_key VARCHAR(64) NOT NULL,
		value TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		PRIMARY KEY (session_id, session_key)
	)`,
	`CREATE TABLE IF NOT EXISTS elements (
		id VARCHAR(36) PRIMARY KEY,
		type VARCHAR(32) NOT NULL,
		group_uid VARCHAR(64) NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		slug VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		fields TEXT,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS elements_lookup_idx ON elements (type, group_uid, slug)`,
}
