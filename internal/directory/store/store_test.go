package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
)

func TestMapError(t *testing.T) {
	type testCase struct {
		name    string
		err     error
		wantErr error
	}

	tests := []testCase{
		{
			name:    "UniqueViolation",
			err:     &pgconn.PgError{Code: "23505", TableName: "categories", ConstraintName: "categories_name_type_key"},
			wantErr: directory.ErrDuplicateKey,
		},
		{
			name:    "WrappedUniqueViolation",
			err:     fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", TableName: "statuses"}),
			wantErr: directory.ErrDuplicateKey,
		},
		{
			name:    "ReferencedByTransaction",
			err:     &pgconn.PgError{Code: "23503", TableName: "transactions", ConstraintName: "transactions_subcategory_category_fkey"},
			wantErr: directory.ErrReferenced,
		},
		{
			name:    "MissingParent",
			err:     &pgconn.PgError{Code: "23503", TableName: "subcategories", ConstraintName: "subcategories_category_id_fkey"},
			wantErr: directory.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.wantErr)
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	plain := errors.New("connection refused")
	assert.Equal(t, plain, mapError(plain))

	other := &pgconn.PgError{Code: "40001"}
	got := mapError(other)
	assert.NotErrorIs(t, got, directory.ErrDuplicateKey)
	assert.NotErrorIs(t, got, directory.ErrReferenced)
	assert.NotErrorIs(t, got, directory.ErrNotFound)
}
