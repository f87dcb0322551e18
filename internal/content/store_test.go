package content_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/content"
	"storefront/internal/database/dbtest"
	"storefront/internal/models"
)

func TestSaveAssignsIDAndFinds(t *testing.T) {
	ctx := context.Background()
	store := content.NewGormStore(dbtest.New(t).DB)

	el := &models.Element{Type: models.ElementEntry, GroupUID: "products", Title: "Shirt", Slug: "shirt"}
	el.SetField("collections", []string{"c1"})
	require.NoError(t, store.Save(ctx, el))
	require.NotEmpty(t, el.ID)

	got, err := store.Find(ctx, el.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", got.Title)
	assert.False(t, got.Enabled)
	assert.Equal(t, []any{"c1"}, got.Fields["collections"])

	got, err = store.FindBySlug(ctx, models.ElementEntry, "products", "shirt")
	require.NoError(t, err)
	assert.Equal(t, el.ID, got.ID)

	el.Title = "Shirt 2"
	require.NoError(t, store.Save(ctx, el))
	got, err = store.Find(ctx, el.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirt 2", got.Title)
}

func TestSaveValidation(t *testing.T) {
	ctx := context.Background()
	store := content.NewGormStore(dbtest.New(t).DB)

	require.NoError(t, store.Save(ctx, &models.Element{Type: models.ElementTag, GroupUID: "tags", Title: "Red", Slug: "red"}))

	tests := []struct {
		name   string
		el     models.Element
		fields []string
	}{
		{"blank title", models.Element{Type: models.ElementTag, GroupUID: "tags", Slug: "blue"}, []string{"title"}},
		{"duplicate slug", models.Element{Type: models.ElementTag, GroupUID: "tags", Title: "Red", Slug: "red"}, []string{"slug"}},
		{"user without email", models.Element{Type: models.ElementUser, Title: "Ann"}, []string{"email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := tt.el
			err := store.Save(ctx, &el)

			var verr *content.ValidationError
			require.True(t, errors.As(err, &verr))
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Empty(t, el.ID)
		})
	}

	// same slug in another group is fine
	require.NoError(t, store.Save(ctx, &models.Element{Type: models.ElementTag, GroupUID: "other", Title: "Red", Slug: "red"}))
}

func TestFindUserByEmail(t *testing.T) {
	ctx := context.Background()
	store := content.NewGormStore(dbtest.New(t).DB)

	user := &models.Element{Type: models.ElementUser, Title: "Ann", Email: "ann@example.com", Enabled: true}
	require.NoError(t, store.Save(ctx, user))

	got, err := store.FindUserByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = store.FindUserByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, content.ErrNotFound)

	_, err = store.FindUserByEmail(ctx, "")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := content.NewGormStore(dbtest.New(t).DB)

	el := &models.Element{Type: models.ElementCategory, GroupUID: "collections", Title: "Sale", Slug: "sale"}
	require.NoError(t, store.Save(ctx, el))
	require.NoError(t, store.Delete(ctx, el.ID))

	_, err := store.Find(ctx, el.ID)
	assert.ErrorIs(t, err, content.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "missing"))
}
