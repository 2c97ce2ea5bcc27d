// Package dbtest gives integration tests a migrated, throwaway Postgres schema.
package dbtest

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cashflow/internal/database"
)

// EnvURL names the variable holding a postgres:// URL for integration tests.
// Tests that need a database are skipped when it is unset.
const EnvURL = "CASHFLOW_TEST_DATABASE_URL"

// SessionTimeZone is set on every test connection. It is far from any usual
// local zone, so calendar-day logic that leaks into SQL shows up in tests.
const SessionTimeZone = "Pacific/Kiritimati"

// Open creates a fresh schema, runs the migrations in it and returns a pool
// bound to that schema. The schema is dropped when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	raw := os.Getenv(EnvURL)
	if raw == "" {
		t.Skipf("%s is not set", EnvURL)
	}

	admin, err := database.New(raw)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	if _, err := admin.ExecContext(context.Background(), `CREATE SCHEMA `+schema); err != nil {
		admin.Close()
		t.Fatalf("creating schema: %v", err)
	}

	t.Cleanup(func() {
		if _, err := admin.ExecContext(context.Background(), `DROP SCHEMA `+schema+` CASCADE`); err != nil {
			t.Errorf("dropping schema %s: %v", schema, err)
		}

		admin.Close()
	})

	connStr, err := scoped(raw, schema)
	if err != nil {
		t.Fatalf("building test url: %v", err)
	}

	if err := database.Migrate(connStr); err != nil {
		t.Fatalf("migrating test schema: %v", err)
	}

	db, err := database.New(connStr)
	if err != nil {
		t.Fatalf("connecting to test schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// scoped points raw at schema and pins the session time zone. pgx passes
// unknown URL parameters through as run-time parameters.
func scoped(raw, schema string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("search_path", schema)
	q.Set("timezone", SessionTimeZone)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
