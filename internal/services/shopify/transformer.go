package shopify

import (
	"strings"
	"unicode"

	"storefront/internal/config"
	"storefront/internal/models"
)

// Transformer maps remote entities onto local content elements according to
// the configured field mapping.
type Transformer struct {
	mapping config.Mapping
}

func NewTransformer(mapping config.Mapping) *Transformer {
	return &Transformer{mapping: mapping}
}

// NewProduct returns an unsaved, disabled entry in the product section.
func (t *Transformer) NewProduct() *models.Element {
	return &models.Element{
		Type:     models.ElementEntry,
		GroupUID: t.mapping.ProductSectionUID,
		Enabled:  false,
	}
}

// NewCollection returns an unsaved, disabled category in the collection group.
func (t *Transformer) NewCollection() *models.Element {
	return &models.Element{
		Type:     models.ElementCategory,
		GroupUID: t.mapping.CollectionGroupUID,
		Enabled:  false,
	}
}

// NewTag returns an unsaved tag element for title.
func (t *Transformer) NewTag(title string) *models.Element {
	return &models.Element{
		Type:     models.ElementTag,
		GroupUID: t.mapping.TagGroupUID,
		Title:    title,
		Slug:     Slugify(title),
		Enabled:  true,
	}
}

func (t *Transformer) ApplyProduct(el *models.Element, p Product) {
	el.Title = p.Title
	if p.Handle != "" {
		el.Slug = p.Handle
	}
}

// ApplyProductRelations writes related element ids into the mapped fields.
// Unmapped fields are left alone.
func (t *Transformer) ApplyProductRelations(el *models.Element, collectionIDs, tagIDs []string) {
	if t.mapping.CollectionField != "" {
		el.SetField(t.mapping.CollectionField, nonNil(collectionIDs))
	}
	if t.mapping.TagField != "" {
		el.SetField(t.mapping.TagField, nonNil(tagIDs))
	}
}

func (t *Transformer) ApplyCollection(el *models.Element, c Collection) {
	el.Title = c.Title
	el.Slug = c.Handle
}

func (t *Transformer) Mapping() config.Mapping { return t.mapping }

// Slugify lowercases s and collapses every run of non alphanumerics into a
// single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
