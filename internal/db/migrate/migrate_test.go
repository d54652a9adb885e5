package migrate_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/fittrack/fittrack/internal/db/migrate"
	"github.com/fittrack/fittrack/internal/db/testdb"
)

func migrationFS() fstest.MapFS {
	return fstest.MapFS{
		"0001_things.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT NOT NULL);"),
		},
		"0002_things_index.sql": &fstest.MapFile{
			Data: []byte("CREATE INDEX idx_things_name ON things (name);"),
		},
	}
}

func Test_RunFS(t *testing.T) {
	t.Run("ok, run all migrations", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t)

		got, err := migrate.RunFS(context.Background(), db, migrationFS())
		if err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if len(got) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(got))
		}

		for i, m := range got {
			if m.Sequence != i {
				t.Errorf("expected sequence %d, got %d", i, m.Sequence)
			}
		}

		// The migrated schema should be usable.
		if _, err := db.Exec("INSERT INTO things (name) VALUES (?)", "a thing"); err != nil {
			t.Errorf("failed to use migrated schema: %v", err)
		}
	})

	t.Run("ok, second run is a no-op", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t)

		if _, err := migrate.RunFS(context.Background(), db, migrationFS()); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		got, err := migrate.RunFS(context.Background(), db, migrationFS())
		if err != nil {
			t.Fatalf("failed to re-run migrations: %v", err)
		}

		if len(got) != 0 {
			t.Errorf("expected 0 migrations on second run, got %d", len(got))
		}
	})

	t.Run("ok, only new migrations run", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t)

		fsys := migrationFS()
		delete(fsys, "0002_things_index.sql")

		if _, err := migrate.RunFS(context.Background(), db, fsys); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		got, err := migrate.RunFS(context.Background(), db, migrationFS())
		if err != nil {
			t.Fatalf("failed to run new migrations: %v", err)
		}

		if len(got) != 1 || got[0].Filename != "0002_things_index" {
			t.Fatalf("expected only the new migration to run, got %+v", got)
		}
	})

	t.Run("fail, migration file removed", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t)

		if _, err := migrate.RunFS(context.Background(), db, migrationFS()); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		fsys := migrationFS()
		delete(fsys, "0002_things_index.sql")

		_, err := migrate.RunFS(context.Background(), db, fsys)
		if !errors.Is(err, migrate.ErrMigrationsMismatch) {
			t.Fatalf("expected %v, but got %v (via errors.Is)", migrate.ErrMigrationsMismatch, err)
		}
	})

	t.Run("fail, migration file renamed", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t)

		if _, err := migrate.RunFS(context.Background(), db, migrationFS()); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		fsys := migrationFS()
		fsys["0002_other_name.sql"] = fsys["0002_things_index.sql"]
		delete(fsys, "0002_things_index.sql")

		_, err := migrate.RunFS(context.Background(), db, fsys)
		if !errors.Is(err, migrate.ErrMigrationsMismatch) {
			t.Fatalf("expected %v, but got %v (via errors.Is)", migrate.ErrMigrationsMismatch, err)
		}
	})

	t.Run("fail, broken migration rolls back", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t)

		fsys := migrationFS()
		fsys["0003_broken.sql"] = &fstest.MapFile{Data: []byte("NOT VALID SQL;")}

		_, err := migrate.RunFS(context.Background(), db, fsys)

		var mErr migrate.MigrationError
		if !errors.As(err, &mErr) {
			t.Fatalf("expected a MigrationError, got %v", err)
		}

		if mErr.Filename != "0003_broken" {
			t.Errorf("expected failure in 0003_broken, got %q", mErr.Filename)
		}

		// Nothing should have been applied.
		if _, err := db.Exec("INSERT INTO things (name) VALUES (?)", "a thing"); err == nil {
			t.Errorf("expected schema to be rolled back, but insert succeeded")
		}
	})
}
