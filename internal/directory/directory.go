package directory

import "errors"

var (
	ErrNotFound     = errors.New("directory entry not found")
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrReferenced is returned when a delete or re-parent would leave a
	// transaction pointing at a missing or mismatched hierarchy row.
	ErrReferenced = errors.New("cannot delete, still referenced")
)

// MaxNameLength bounds every directory name.
const MaxNameLength = 100

// Status is the business flag of a transaction (e.g. "Business", "Personal", "Tax").
type Status struct {
	ID   int64
	Name string
}

// Type is the operation type, the root of the classification hierarchy.
type Type struct {
	ID   int64
	Name string
}

// Category belongs to exactly one Type. Its name is unique within that Type.
type Category struct {
	ID       int64
	Name     string
	TypeID   int64
	TypeName string // Loaded via JOIN
}

// Subcategory belongs to exactly one Category. Its name is unique within that Category.
type Subcategory struct {
	ID           int64
	Name         string
	CategoryID   int64
	CategoryName string // Loaded via JOIN
	TypeID       int64  // Loaded via JOIN
	TypeName     string // Loaded via JOIN
}

// Overview is the whole directory at once.
type Overview struct {
	Statuses      []*Status
	Types         []*Type
	Categories    []*Category
	Subcategories []*Subcategory
}

// CategoryFilter narrows ListCategories. A nil TypeID lists every category.
type CategoryFilter struct {
	TypeID *int64
}

// SubcategoryFilter narrows ListSubcategories. A nil CategoryID lists every subcategory.
type SubcategoryFilter struct {
	CategoryID *int64
}
