// Package dbtest opens throwaway in-memory databases with the storefront
// schema applied.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"storefront/internal/database"
)

func New(t testing.TB) *database.Database {
	t.Helper()

	url := "sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.New(url, database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })
	return db
}
