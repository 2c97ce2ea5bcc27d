package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=directory
type Repository interface {
	ListStatuses(ctx context.Context) ([]*Status, error)
	GetStatus(ctx context.Context, id int64) (*Status, error)
	CreateStatus(ctx context.Context, s *Status) error
	UpdateStatus(ctx context.Context, s *Status) error
	DeleteStatus(ctx context.Context, id int64) error

	ListTypes(ctx context.Context) ([]*Type, error)
	GetType(ctx context.Context, id int64) (*Type, error)
	CreateType(ctx context.Context, t *Type) error
	UpdateType(ctx context.Context, t *Type) error
	DeleteType(ctx context.Context, id int64) error

	ListCategories(ctx context.Context, filter CategoryFilter) ([]*Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListSubcategories(ctx context.Context, filter SubcategoryFilter) ([]*Subcategory, error)
	GetSubcategory(ctx context.Context, id int64) (*Subcategory, error)
	CreateSubcategory(ctx context.Context, s *Subcategory) error
	UpdateSubcategory(ctx context.Context, s *Subcategory) error
	DeleteSubcategory(ctx context.Context, id int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CategoryParams is the input for creating or editing a Category.
type CategoryParams struct {
	Name   string
	TypeID int64
}

// SubcategoryParams is the input for creating or editing a Subcategory.
type SubcategoryParams struct {
	Name       string
	CategoryID int64
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	statuses, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}

	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing types: %w", err)
	}

	categories, err := s.repo.ListCategories(ctx, CategoryFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	subcategories, err := s.repo.ListSubcategories(ctx, SubcategoryFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing subcategories: %w", err)
	}

	return &Overview{
		Statuses:      statuses,
		Types:         types,
		Categories:    categories,
		Subcategories: subcategories,
	}, nil
}

// Statuses

func (s *Service) Statuses(ctx context.Context) ([]*Status, error) {
	return s.repo.ListStatuses(ctx)
}

func (s *Service) Status(ctx context.Context, id int64) (*Status, error) {
	return s.repo.GetStatus(ctx, id)
}

func (s *Service) CreateStatus(ctx context.Context, name string) (*Status, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	st := &Status{Name: name}
	if err := s.repo.CreateStatus(ctx, st); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, name string) (*Status, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	st := &Status{ID: id, Name: name}
	if err := s.repo.UpdateStatus(ctx, st); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *Service) DeleteStatus(ctx context.Context, id int64) error {
	return s.repo.DeleteStatus(ctx, id)
}

// Types

func (s *Service) Types(ctx context.Context) ([]*Type, error) {
	return s.repo.ListTypes(ctx)
}

func (s *Service) Type(ctx context.Context, id int64) (*Type, error) {
	return s.repo.GetType(ctx, id)
}

func (s *Service) CreateType(ctx context.Context, name string) (*Type, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	t := &Type{Name: name}
	if err := s.repo.CreateType(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) UpdateType(ctx context.Context, id int64, name string) (*Type, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	t := &Type{ID: id, Name: name}
	if err := s.repo.UpdateType(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

// DeleteType removes the type together with its categories and their
// subcategories. It fails with ErrReferenced if any transaction points at the
// type or at one of its descendants.
func (s *Service) DeleteType(ctx context.Context, id int64) error {
	return s.repo.DeleteType(ctx, id)
}

// Categories

func (s *Service) Categories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx, CategoryFilter{})
}

func (s *Service) Category(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, params CategoryParams) (*Category, error) {
	c, err := s.validateCategory(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// UpdateCategory renames a category or moves it under another type. Moving a
// category that transactions already use fails with ErrReferenced.
func (s *Service) UpdateCategory(ctx context.Context, id int64, params CategoryParams) (*Category, error) {
	c, err := s.validateCategory(ctx, params)
	if err != nil {
		return nil, err
	}

	c.ID = id
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) validateCategory(ctx context.Context, params CategoryParams) (*Category, error) {
	var errs validation.Errors

	name, nameErr := checkName(params.Name)
	if nameErr != "" {
		errs.Add("name", nameErr)
	}

	var parent *Type

	switch {
	case params.TypeID == 0:
		errs.Add("type", validation.ReasonRequired)
	default:
		t, err := s.repo.GetType(ctx, params.TypeID)
		switch {
		case errors.Is(err, ErrNotFound):
			errs.Add("type", validation.ReasonInvalidChoice)
		case err != nil:
			return nil, fmt.Errorf("getting type: %w", err)
		default:
			parent = t
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &Category{Name: name, TypeID: parent.ID, TypeName: parent.Name}, nil
}

// Subcategories

func (s *Service) Subcategories(ctx context.Context) ([]*Subcategory, error) {
	return s.repo.ListSubcategories(ctx, SubcategoryFilter{})
}

func (s *Service) Subcategory(ctx context.Context, id int64) (*Subcategory, error) {
	return s.repo.GetSubcategory(ctx, id)
}

func (s *Service) CreateSubcategory(ctx context.Context, params SubcategoryParams) (*Subcategory, error) {
	sc, err := s.validateSubcategory(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateSubcategory(ctx, sc); err != nil {
		return nil, err
	}

	return sc, nil
}

func (s *Service) UpdateSubcategory(ctx context.Context, id int64, params SubcategoryParams) (*Subcategory, error) {
	sc, err := s.validateSubcategory(ctx, params)
	if err != nil {
		return nil, err
	}

	sc.ID = id
	if err := s.repo.UpdateSubcategory(ctx, sc); err != nil {
		return nil, err
	}

	return sc, nil
}

func (s *Service) DeleteSubcategory(ctx context.Context, id int64) error {
	return s.repo.DeleteSubcategory(ctx, id)
}

func (s *Service) validateSubcategory(ctx context.Context, params SubcategoryParams) (*Subcategory, error) {
	var errs validation.Errors

	name, nameErr := checkName(params.Name)
	if nameErr != "" {
		errs.Add("name", nameErr)
	}

	var parent *Category

	switch {
	case params.CategoryID == 0:
		errs.Add("category", validation.ReasonRequired)
	default:
		c, err := s.repo.GetCategory(ctx, params.CategoryID)
		switch {
		case errors.Is(err, ErrNotFound):
			errs.Add("category", validation.ReasonInvalidChoice)
		case err != nil:
			return nil, fmt.Errorf("getting category: %w", err)
		default:
			parent = c
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &Subcategory{
		Name:         name,
		CategoryID:   parent.ID,
		CategoryName: parent.Name,
		TypeID:       parent.TypeID,
		TypeName:     parent.TypeName,
	}, nil
}

func validateName(raw string) (string, error) {
	name, reason := checkName(raw)
	if reason != "" {
		return "", validation.Errors{{Field: "name", Reason: reason}}
	}

	return name, nil
}

func checkName(raw string) (string, string) {
	name := strings.TrimSpace(raw)

	switch {
	case name == "":
		return "", validation.ReasonRequired
	case utf8.RuneCountInString(name) > MaxNameLength:
		return "", validation.ReasonTooLong
	}

	return name, ""
}
