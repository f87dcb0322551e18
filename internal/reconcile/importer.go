package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/services/shopify"
)

// Importer pulls the whole product catalog through the admin API.
type Importer struct {
	Deps
	products *Products
}

func NewImporter(d Deps, products *Products) *Importer {
	return &Importer{Deps: d, products: products}
}

// ImportProducts pages through every product and upserts it. Products that
// fail to save are logged and skipped; a remote failure stops the run.
func (s *Importer) ImportProducts(ctx context.Context) (int, error) {
	memo := NewMemo(defaultMemoSize)
	imported := 0
	var cursor any

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		res, err := s.Graph.Admin(ctx, listProductsQuery, map[string]any{"cursor": cursor}, false)
		if err != nil {
			return imported, err
		}
		if res.HasErrors() {
			return imported, &RemoteError{Op: fmt.Sprintf("list products page %d", page), Errors: res.Errors}
		}

		var conn shopify.ProductConnection
		if err := res.Decode(&conn, "products"); err != nil {
			return imported, fmt.Errorf("decode products page %d: %w", page, err)
		}

		for _, edge := range conn.Edges {
			p := edge.Node
			id, err := s.Relations.Normalize(p.ID, models.KindProduct)
			if err != nil {
				s.Logger.Warn("Skipping product", zap.String("remote_id", p.ID), zap.Error(err))
				continue
			}
			p.ID = id

			if err := s.products.Save(ctx, p, memo); err != nil {
				s.Logger.Warn("Skipping product", zap.String("remote_id", id), zap.Error(err))
				continue
			}
			imported++
		}

		s.Logger.Info("Imported product page", zap.Int("page", page), zap.Int("imported", imported))

		if !conn.PageInfo.HasNextPage || len(conn.Edges) == 0 {
			return imported, nil
		}
		cursor = conn.Edges[len(conn.Edges)-1].Cursor
	}
}
