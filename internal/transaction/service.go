package transaction

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id int64) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	CountTransactions(ctx context.Context, filter ListFilter) (int, error)

	BeginImport(ctx context.Context) (ImportTx, error)
}

type ImportTx interface {
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

// Hierarchy is the read side of the directory a transaction is checked against.
type Hierarchy interface {
	Status(ctx context.Context, id int64) (*directory.Status, error)
	Type(ctx context.Context, id int64) (*directory.Type, error)
	Category(ctx context.Context, id int64) (*directory.Category, error)
	Subcategory(ctx context.Context, id int64) (*directory.Subcategory, error)
	Options(ctx context.Context, sel directory.Selection) (*directory.Options, error)
}

type Service struct {
	repo      Repository
	hierarchy Hierarchy
	validator *Validator
}

func NewService(repo Repository, hierarchy Hierarchy) *Service {
	return &Service{
		repo:      repo,
		hierarchy: hierarchy,
		validator: NewValidator(hierarchy),
	}
}

// Validate checks f without storing anything.
func (s *Service) Validate(ctx context.Context, f Form) (CreateParams, error) {
	return s.validator.Validate(ctx, f)
}

func (s *Service) Create(ctx context.Context, f Form) (*Transaction, error) {
	params, err := s.validator.Validate(ctx, f)
	if err != nil {
		return nil, err
	}

	tx := params.transaction()
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Update(ctx context.Context, id int64, f Form) (*Transaction, error) {
	params, err := s.validator.Validate(ctx, f)
	if err != nil {
		return nil, err
	}

	tx := params.transaction()
	tx.ID = id

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteTransaction(ctx, id)
}

// FormOptions resolves the dependent choices for f from its selected type and
// category. A blank form gets empty option sets.
func (s *Service) FormOptions(ctx context.Context, f Form) (*directory.Options, error) {
	opts, err := s.hierarchy.Options(ctx, f.Selection())
	if err != nil {
		return nil, fmt.Errorf("resolving form options: %w", err)
	}

	return opts, nil
}

// List returns the page of transactions matching filter, newest first. A page
// number past the end is clamped to the last page.
func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Unmatched {
		return emptyPage(), nil
	}

	total, err := s.repo.CountTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}

	if total == 0 {
		return emptyPage(), nil
	}

	totalPages := (total + PageSize - 1) / PageSize
	number := min(max(filter.Page, 1), totalPages)

	filter.Limit = PageSize
	filter.Offset = (number - 1) * PageSize

	txs, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return &Page{
		Transactions: txs,
		Number:       number,
		TotalPages:   totalPages,
		Total:        total,
	}, nil
}

// ListAll returns every transaction matching filter, newest first, ignoring pagination.
func (s *Service) ListAll(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	if filter.Unmatched {
		return nil, nil
	}

	filter.Limit = 0
	filter.Offset = 0

	return s.repo.ListTransactions(ctx, filter)
}

// CreateBatch stores all params in one database transaction: either every
// row is written or none is.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	itx, err := s.repo.BeginImport(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	txs := make([]*Transaction, len(params))
	for i, p := range params {
		txs[i] = p.transaction()
	}

	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return txs, nil
}
