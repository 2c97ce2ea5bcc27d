package directory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Selection is the explicit parent choice an option lookup is resolved from.
// Ids are raw request values; anything that is not a positive integer counts
// as no selection.
type Selection struct {
	TypeID     string
	CategoryID string
}

// Options holds the dependent choices for a transaction form.
type Options struct {
	Categories    []*Category
	Subcategories []*Subcategory
}

// CategoriesForType returns the categories of the given type ordered by name.
// An absent, malformed or unknown id yields an empty slice.
func (s *Service) CategoriesForType(ctx context.Context, typeID string) ([]*Category, error) {
	id, ok := ParseID(typeID)
	if !ok {
		return []*Category{}, nil
	}

	categories, err := s.repo.ListCategories(ctx, CategoryFilter{TypeID: &id})
	if err != nil {
		return nil, fmt.Errorf("listing categories for type %d: %w", id, err)
	}

	if categories == nil {
		categories = []*Category{}
	}

	return categories, nil
}

// SubcategoriesForCategory returns the subcategories of the given category
// ordered by name. An absent, malformed or unknown id yields an empty slice.
func (s *Service) SubcategoriesForCategory(ctx context.Context, categoryID string) ([]*Subcategory, error) {
	id, ok := ParseID(categoryID)
	if !ok {
		return []*Subcategory{}, nil
	}

	subcategories, err := s.repo.ListSubcategories(ctx, SubcategoryFilter{CategoryID: &id})
	if err != nil {
		return nil, fmt.Errorf("listing subcategories for category %d: %w", id, err)
	}

	if subcategories == nil {
		subcategories = []*Subcategory{}
	}

	return subcategories, nil
}

// Options resolves both dependent option sets from sel. The two lookups are
// independent: a category id is honoured even when no type is selected.
func (s *Service) Options(ctx context.Context, sel Selection) (*Options, error) {
	categories, err := s.CategoriesForType(ctx, sel.TypeID)
	if err != nil {
		return nil, err
	}

	subcategories, err := s.SubcategoriesForCategory(ctx, sel.CategoryID)
	if err != nil {
		return nil, err
	}

	return &Options{Categories: categories, Subcategories: subcategories}, nil
}

// ParseID parses a positive integer id. Surrounding whitespace is ignored.
func ParseID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// FormatID renders an id for a Selection.
func FormatID(id int64) string {
	if id == 0 {
		return ""
	}

	return strconv.FormatInt(id, 10)
}
