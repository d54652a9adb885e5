// Package testdb provides SQLite databases for tests.
package testdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/fittrack/fittrack/internal/db"
	"github.com/fittrack/fittrack/internal/db/migrate"
	"github.com/fittrack/fittrack/migrations"
)

// RunWhile runs a database while the provided test is executing.
// It returns an empty database with all migrations applied.
func RunWhile(t *testing.T) *sql.DB {
	t.Helper()

	db := RunUnmigratedWhile(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := migrate.RunFS(ctx, db, migrations.FS)
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// RunUnmigratedWhile runs a database while the provided test is executing.
// It returns an empty database without any migrations applied.
//
// The database is opened in write mode, which limits the pool to a single
// connection. That matters for in-memory databases: every new connection
// would otherwise get its own empty database.
func RunUnmigratedWhile(t *testing.T) *sql.DB {
	t.Helper()

	db, err := db.OpenSQLite(":memory:", true)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		err := db.Close()
		if err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	return db
}
