package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

const pgForeignKeyViolation = "23503"

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

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanTransaction reads a transaction row from the scanner and returns a populated Transaction.
// Expected column order matches selectTransactionColumns.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	if err := s.Scan(
		&tx.ID, &tx.Date,
		&tx.StatusID, &tx.TypeID, &tx.CategoryID, &tx.SubcategoryID,
		&tx.Status, &tx.Type, &tx.Category, &tx.Subcategory,
		&tx.Amount, &tx.Comment, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &tx, nil
}

const selectTransactionColumns = `
	t.id, t.date,
	t.status_id, t.type_id, t.category_id, t.subcategory_id,
	st.name, ty.name, c.name, sc.name,
	t.amount, t.comment, t.created_at, t.updated_at
`

const transactionJoins = `
	JOIN statuses st ON st.id = t.status_id
	JOIN types ty ON ty.id = t.type_id
	JOIN categories c ON c.id = t.category_id
	JOIN subcategories sc ON sc.id = t.subcategory_id
`

// mapError reports a foreign key violation on write as a stale hierarchy:
// the status or one of the chain rows vanished after validation.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", transaction.ErrStaleHierarchy, pgErr.ConstraintName)
	}

	return err
}

// insertTransaction writes tx and reads it back with the hierarchy names.
func insertTransaction(ctx context.Context, q querier, tx *transaction.Transaction) error {
	query := `
		WITH t AS (
			INSERT INTO transactions (date, status_id, type_id, category_id, subcategory_id, amount, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING *
		)
		SELECT ` + selectTransactionColumns + ` FROM t` + transactionJoins

	created, err := scanTransaction(q.QueryRowContext(ctx, query,
		tx.Date,
		tx.StatusID,
		tx.TypeID,
		tx.CategoryID,
		tx.SubcategoryID,
		tx.Amount,
		tx.Comment,
	))
	if err != nil {
		return mapError(err)
	}

	*tx = *created

	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if err := insertTransaction(ctx, s.db, tx); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t` + transactionJoins + `
		WHERE t.id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		WITH t AS (
			UPDATE transactions
			SET date = $1, status_id = $2, type_id = $3, category_id = $4, subcategory_id = $5,
				amount = $6, comment = $7, updated_at = NOW()
			WHERE id = $8
			RETURNING *
		)
		SELECT ` + selectTransactionColumns + ` FROM t` + transactionJoins

	updated, err := scanTransaction(s.db.QueryRowContext(ctx, query,
		tx.Date,
		tx.StatusID,
		tx.TypeID,
		tx.CategoryID,
		tx.SubcategoryID,
		tx.Amount,
		tx.Comment,
		tx.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transaction.ErrNotFound
		}

		return fmt.Errorf("updating transaction: %w", mapError(err))
	}

	*tx = *updated

	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

// whereClause renders the filter as a WHERE clause with numbered placeholders.
func whereClause(filter transaction.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	argIdx := 1

	add := func(cond string, arg any) {
		conds = append(conds, fmt.Sprintf(cond, argIdx))

		args = append(args, arg)
		argIdx++
	}

	if filter.Date != nil {
		from, to := dayBounds(*filter.Date)
		add("t.date >= $%d", from)
		add("t.date < $%d", to)
	}

	if filter.StatusID != nil {
		add("t.status_id = $%d", *filter.StatusID)
	}

	if filter.TypeID != nil {
		add("t.type_id = $%d", *filter.TypeID)
	}

	if filter.CategoryID != nil {
		add("t.category_id = $%d", *filter.CategoryID)
	}

	if filter.SubcategoryID != nil {
		add("t.subcategory_id = $%d", *filter.SubcategoryID)
	}

	if filter.Query != "" {
		add("t.comment ILIKE '%%' || $%d::text || '%%'", escapeLike(filter.Query))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// dayBounds returns the midnights that open and close the calendar day of d
// in d's own location, so the day does not depend on the session TimeZone.
func dayBounds(d time.Time) (time.Time, time.Time) {
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return from, from.AddDate(0, 0, 1)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	where, args := whereClause(filter)

	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t` + transactionJoins + where + `
		ORDER BY t.date DESC, t.id DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, max(filter.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) CountTransactions(ctx context.Context, filter transaction.ListFilter) (int, error) {
	where, args := whereClause(filter)

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions t`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}

	return n, nil
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context) (transaction.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	return &importTx{tx: dbTx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for i, tx := range txs {
		if err := insertTransaction(ctx, itx.tx, tx); err != nil {
			return fmt.Errorf("creating transaction %d: %w", i+1, err)
		}
	}

	return nil
}
