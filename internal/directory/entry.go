package directory

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("unknown directory kind")

// Kind names one of the four directory tables.
type Kind string

const (
	KindStatus      Kind = "status"
	KindType        Kind = "type"
	KindCategory    Kind = "category"
	KindSubcategory Kind = "subcategory"
)

// Kinds lists every kind in the order the directory overview shows them.
var Kinds = []Kind{KindStatus, KindType, KindCategory, KindSubcategory}

// ParseKind accepts the singular or plural form of a kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if s == string(k) || s == k.Plural() {
			return k, true
		}
	}

	return "", false
}

func (k Kind) Plural() string {
	switch k {
	case KindStatus:
		return "statuses"
	case KindType:
		return "types"
	case KindCategory:
		return "categories"
	case KindSubcategory:
		return "subcategories"
	}

	return string(k)
}

func (k Kind) Label() string {
	switch k {
	case KindStatus:
		return "Status"
	case KindType:
		return "Type"
	case KindCategory:
		return "Category"
	case KindSubcategory:
		return "Subcategory"
	}

	return string(k)
}

// Parent returns the kind an entry of k belongs to, if any.
func (k Kind) Parent() (Kind, bool) {
	switch k {
	case KindCategory:
		return KindType, true
	case KindSubcategory:
		return KindCategory, true
	}

	return "", false
}

// Entry is a kind-agnostic view of a directory row, used by the management screens.
type Entry struct {
	Kind       Kind   `json:"kind"`
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ParentID   int64  `json:"parent_id,omitempty"`
	ParentName string `json:"parent_name,omitempty"`
}

// EntryParams is the input for creating or editing an Entry. ParentID is
// ignored for kinds without a parent.
type EntryParams struct {
	Name     string
	ParentID int64
}

// Entries lists every row of kind. For categories and subcategories a non-nil
// parentID narrows the list to the children of that parent.
func (s *Service) Entries(ctx context.Context, kind Kind, parentID *int64) ([]Entry, error) {
	var entries []Entry

	switch kind {
	case KindStatus:
		statuses, err := s.repo.ListStatuses(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing statuses: %w", err)
		}

		for _, st := range statuses {
			entries = append(entries, statusEntry(st))
		}
	case KindType:
		types, err := s.repo.ListTypes(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing types: %w", err)
		}

		for _, t := range types {
			entries = append(entries, typeEntry(t))
		}
	case KindCategory:
		categories, err := s.repo.ListCategories(ctx, CategoryFilter{TypeID: parentID})
		if err != nil {
			return nil, fmt.Errorf("listing categories: %w", err)
		}

		for _, c := range categories {
			entries = append(entries, categoryEntry(c))
		}
	case KindSubcategory:
		subcategories, err := s.repo.ListSubcategories(ctx, SubcategoryFilter{CategoryID: parentID})
		if err != nil {
			return nil, fmt.Errorf("listing subcategories: %w", err)
		}

		for _, sc := range subcategories {
			entries = append(entries, subcategoryEntry(sc))
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if entries == nil {
		entries = []Entry{}
	}

	return entries, nil
}

func (s *Service) Entry(ctx context.Context, kind Kind, id int64) (*Entry, error) {
	var e Entry

	switch kind {
	case KindStatus:
		st, err := s.repo.GetStatus(ctx, id)
		if err != nil {
			return nil, err
		}

		e = statusEntry(st)
	case KindType:
		t, err := s.repo.GetType(ctx, id)
		if err != nil {
			return nil, err
		}

		e = typeEntry(t)
	case KindCategory:
		c, err := s.repo.GetCategory(ctx, id)
		if err != nil {
			return nil, err
		}

		e = categoryEntry(c)
	case KindSubcategory:
		sc, err := s.repo.GetSubcategory(ctx, id)
		if err != nil {
			return nil, err
		}

		e = subcategoryEntry(sc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return &e, nil
}

// SaveEntry creates a row of kind when id is 0 and updates row id otherwise.
func (s *Service) SaveEntry(ctx context.Context, kind Kind, id int64, params EntryParams) (*Entry, error) {
	var e Entry

	switch kind {
	case KindStatus:
		var (
			st  *Status
			err error
		)
		if id == 0 {
			st, err = s.CreateStatus(ctx, params.Name)
		} else {
			st, err = s.UpdateStatus(ctx, id, params.Name)
		}

		if err != nil {
			return nil, err
		}

		e = statusEntry(st)
	case KindType:
		var (
			t   *Type
			err error
		)
		if id == 0 {
			t, err = s.CreateType(ctx, params.Name)
		} else {
			t, err = s.UpdateType(ctx, id, params.Name)
		}

		if err != nil {
			return nil, err
		}

		e = typeEntry(t)
	case KindCategory:
		p := CategoryParams{Name: params.Name, TypeID: params.ParentID}

		var (
			c   *Category
			err error
		)
		if id == 0 {
			c, err = s.CreateCategory(ctx, p)
		} else {
			c, err = s.UpdateCategory(ctx, id, p)
		}

		if err != nil {
			return nil, err
		}

		e = categoryEntry(c)
	case KindSubcategory:
		p := SubcategoryParams{Name: params.Name, CategoryID: params.ParentID}

		var (
			sc  *Subcategory
			err error
		)
		if id == 0 {
			sc, err = s.CreateSubcategory(ctx, p)
		} else {
			sc, err = s.UpdateSubcategory(ctx, id, p)
		}

		if err != nil {
			return nil, err
		}

		e = subcategoryEntry(sc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return &e, nil
}

func (s *Service) DeleteEntry(ctx context.Context, kind Kind, id int64) error {
	switch kind {
	case KindStatus:
		return s.DeleteStatus(ctx, id)
	case KindType:
		return s.DeleteType(ctx, id)
	case KindCategory:
		return s.DeleteCategory(ctx, id)
	case KindSubcategory:
		return s.DeleteSubcategory(ctx, id)
	}

	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func statusEntry(st *Status) Entry {
	return Entry{Kind: KindStatus, ID: st.ID, Name: st.Name}
}

func typeEntry(t *Type) Entry {
	return Entry{Kind: KindType, ID: t.ID, Name: t.Name}
}

func categoryEntry(c *Category) Entry {
	return Entry{Kind: KindCategory, ID: c.ID, Name: c.Name, ParentID: c.TypeID, ParentName: c.TypeName}
}

func subcategoryEntry(sc *Subcategory) Entry {
	parent := sc.CategoryName
	if sc.TypeName != "" {
		parent = sc.CategoryName + " (" + sc.TypeName + ")"
	}

	return Entry{Kind: KindSubcategory, ID: sc.ID, Name: sc.Name, ParentID: sc.CategoryID, ParentName: parent}
}
