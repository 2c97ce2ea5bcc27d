package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// mapError translates constraint violations into directory errors. A foreign
// key violation raised by the transactions table means a transaction still
// points at the row; any other one means the parent row is gone.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", directory.ErrDuplicateKey, pgErr.ConstraintName)
	case pgForeignKeyViolation:
		if pgErr.TableName == "transactions" {
			return fmt.Errorf("%w: %s", directory.ErrReferenced, pgErr.ConstraintName)
		}

		return fmt.Errorf("%w: %s", directory.ErrNotFound, pgErr.ConstraintName)
	}

	return err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}

	if n == 0 {
		return directory.ErrNotFound
	}

	return nil
}

// Statuses

func (s *Store) ListStatuses(ctx context.Context) ([]*directory.Status, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM statuses ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*directory.Status

	for rows.Next() {
		var st directory.Status
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
		}

		statuses = append(statuses, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}

	return statuses, nil
}

func (s *Store) GetStatus(ctx context.Context, id int64) (*directory.Status, error) {
	var st directory.Status

	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM statuses WHERE id = $1`, id).Scan(&st.ID, &st.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}

		return nil, fmt.Errorf("getting status: %w", err)
	}

	return &st, nil
}

func (s *Store) CreateStatus(ctx context.Context, st *directory.Status) error {
	err := s.db.QueryRowContext(ctx, `INSERT INTO statuses (name) VALUES ($1) RETURNING id`, st.Name).Scan(&st.ID)
	if err != nil {
		return fmt.Errorf("creating status: %w", mapError(err))
	}

	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, st *directory.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE statuses SET name = $1 WHERE id = $2`, st.Name, st.ID)
	if err != nil {
		return fmt.Errorf("updating status: %w", mapError(err))
	}

	return expectOne(res)
}

func (s *Store) DeleteStatus(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM statuses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting status: %w", mapError(err))
	}

	return expectOne(res)
}

// Types

func (s *Store) ListTypes(ctx context.Context) ([]*directory.Type, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM types ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing types: %w", err)
	}
	defer rows.Close()

	var types []*directory.Type

	for rows.Next() {
		var t directory.Type
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning type: %w", err)
		}

		types = append(types, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating types: %w", err)
	}

	return types, nil
}

func (s *Store) GetType(ctx context.Context, id int64) (*directory.Type, error) {
	var t directory.Type

	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM types WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}

		return nil, fmt.Errorf("getting type: %w", err)
	}

	return &t, nil
}

func (s *Store) CreateType(ctx context.Context, t *directory.Type) error {
	err := s.db.QueryRowContext(ctx, `INSERT INTO types (name) VALUES ($1) RETURNING id`, t.Name).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("creating type: %w", mapError(err))
	}

	return nil
}

func (s *Store) UpdateType(ctx context.Context, t *directory.Type) error {
	res, err := s.db.ExecContext(ctx, `UPDATE types SET name = $1 WHERE id = $2`, t.Name, t.ID)
	if err != nil {
		return fmt.Errorf("updating type: %w", mapError(err))
	}

	return expectOne(res)
}

// DeleteType relies on the schema: categories and subcategories cascade, and
// the RESTRICT keys on transactions are checked for every cascaded row, so a
// transaction anywhere below the type blocks the whole delete.
func (s *Store) DeleteType(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting type: %w", mapError(err))
	}

	return expectOne(res)
}

// Categories

const selectCategoryColumns = `c.id, c.name, c.type_id, t.name`

func scanCategory(s scanner) (*directory.Category, error) {
	var c directory.Category
	if err := s.Scan(&c.ID, &c.Name, &c.TypeID, &c.TypeName); err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context, filter directory.CategoryFilter) ([]*directory.Category, error) {
	query := `SELECT ` + selectCategoryColumns + `
		FROM categories c
		JOIN types t ON t.id = c.type_id`

	var args []any

	if filter.TypeID != nil {
		query += " WHERE c.type_id = $1"

		args = append(args, *filter.TypeID)
	}

	query += " ORDER BY c.name, t.name, c.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []*directory.Category

	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return categories, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*directory.Category, error) {
	query := `SELECT ` + selectCategoryColumns + `
		FROM categories c
		JOIN types t ON t.id = c.type_id
		WHERE c.id = $1`

	c, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}

		return nil, fmt.Errorf("getting category: %w", err)
	}

	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *directory.Category) error {
	query := `INSERT INTO categories (name, type_id) VALUES ($1, $2) RETURNING id`

	if err := s.db.QueryRowContext(ctx, query, c.Name, c.TypeID).Scan(&c.ID); err != nil {
		return fmt.Errorf("creating category: %w", mapError(err))
	}

	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *directory.Category) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = $1, type_id = $2 WHERE id = $3`,
		c.Name, c.TypeID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating category: %w", mapError(err))
	}

	return expectOne(res)
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", mapError(err))
	}

	return expectOne(res)
}

// Subcategories

const selectSubcategoryColumns = `s.id, s.name, s.category_id, c.name, c.type_id, t.name`

const subcategoryJoins = `
		FROM subcategories s
		JOIN categories c ON c.id = s.category_id
		JOIN types t ON t.id = c.type_id`

func scanSubcategory(s scanner) (*directory.Subcategory, error) {
	var sc directory.Subcategory
	if err := s.Scan(&sc.ID, &sc.Name, &sc.CategoryID, &sc.CategoryName, &sc.TypeID, &sc.TypeName); err != nil {
		return nil, err
	}

	return &sc, nil
}

func (s *Store) ListSubcategories(ctx context.Context, filter directory.SubcategoryFilter) ([]*directory.Subcategory, error) {
	query := `SELECT ` + selectSubcategoryColumns + subcategoryJoins

	var args []any

	if filter.CategoryID != nil {
		query += " WHERE s.category_id = $1"

		args = append(args, *filter.CategoryID)
	}

	query += " ORDER BY s.name, c.name, s.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing subcategories: %w", err)
	}
	defer rows.Close()

	var subcategories []*directory.Subcategory

	for rows.Next() {
		sc, err := scanSubcategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subcategory: %w", err)
		}

		subcategories = append(subcategories, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subcategories: %w", err)
	}

	return subcategories, nil
}

func (s *Store) GetSubcategory(ctx context.Context, id int64) (*directory.Subcategory, error) {
	query := `SELECT ` + selectSubcategoryColumns + subcategoryJoins + `
		WHERE s.id = $1`

	sc, err := scanSubcategory(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, directory.ErrNotFound
		}

		return nil, fmt.Errorf("getting subcategory: %w", err)
	}

	return sc, nil
}

func (s *Store) CreateSubcategory(ctx context.Context, sc *directory.Subcategory) error {
	query := `INSERT INTO subcategories (name, category_id) VALUES ($1, $2) RETURNING id`

	if err := s.db.QueryRowContext(ctx, query, sc.Name, sc.CategoryID).Scan(&sc.ID); err != nil {
		return fmt.Errorf("creating subcategory: %w", mapError(err))
	}

	return nil
}

func (s *Store) UpdateSubcategory(ctx context.Context, sc *directory.Subcategory) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subcategories SET name = $1, category_id = $2 WHERE id = $3`,
		sc.Name, sc.CategoryID, sc.ID,
	)
	if err != nil {
		return fmt.Errorf("updating subcategory: %w", mapError(err))
	}

	return expectOne(res)
}

func (s *Store) DeleteSubcategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting subcategory: %w", mapError(err))
	}

	return expectOne(res)
}
