// Package migrate runs SQL migrations from a file system.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Migration is a migration that was ran.
type Migration struct {
	// Sequence is the number of the migration. Starts at 0.
	Sequence int
	Filename string
	// Timestamp records when the migration ran. Helps with debugging
	// if something does go wrong.
	Timestamp time.Time
}

const migrationsTableQuery = `CREATE TABLE IF NOT EXISTS migrations (
	sequence  INTEGER PRIMARY KEY,
	filename  TEXT NOT NULL,
	timestamp TIMESTAMP NOT NULL
)
`

// ErrMigrationsMismatch indicates a mismatch between migrations that ran
// before and the ones available now.
var ErrMigrationsMismatch = errors.New("migrations mismatch")

// MigrationError is an error that occurred while running a migration.
type MigrationError struct {
	Sequence int
	Filename string
	Err      error
}

func (m MigrationError) Error() string {
	return fmt.Sprintf("migration [%d] %q failed: %v", m.Sequence, m.Filename, m.Err)
}

func (m MigrationError) Unwrap() error {
	return m.Err
}

type file struct {
	name    string
	content string
}

// RunFS runs migrations from the provided fs.FS. It returns the migrations
// that were run, an empty slice if there was nothing new to do. RunFS only
// considers files with the .sql extension in the root of the FS and runs
// them in lexical order inside a single transaction.
func RunFS(ctx context.Context, db *sql.DB, fileSys fs.FS) ([]Migration, error) {
	files, err := loadFiles(fileSys)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(migrationsTableQuery)
	if err != nil {
		return nil, rollback(tx, fmt.Errorf("failed to create migrations table: %w", err))
	}

	before, err := queryMigrations(tx)
	if err != nil {
		return nil, rollback(tx, err)
	}

	result, err := migrate(tx, before, files)
	if err != nil {
		return nil, rollback(tx, err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

func migrate(tx *sql.Tx, ranBefore []Migration, files []file) ([]Migration, error) {
	// Check that no files were removed.
	if len(ranBefore) > len(files) {
		return nil, fmt.Errorf(
			"found %d existing migrations but only have %d files: %w",
			len(ranBefore), len(files), ErrMigrationsMismatch,
		)
	}

	// Verify the files that ran before are still the same.
	for i, before := range ranBefore {
		if i != before.Sequence {
			return nil, fmt.Errorf(
				"migration sequence mismatch, wanted %d got %d: %w",
				i, before.Sequence, ErrMigrationsMismatch,
			)
		}

		if before.Filename != files[i].name {
			return nil, fmt.Errorf(
				"migration filename mismatch at %d, ran %q before but have %q: %w",
				i, before.Filename, files[i].name, ErrMigrationsMismatch,
			)
		}
	}

	// Run the new files.
	out := make([]Migration, 0, len(files)-len(ranBefore))
	for i := len(ranBefore); i < len(files); i++ {
		m := Migration{
			Sequence:  i,
			Filename:  files[i].name,
			Timestamp: time.Now(),
		}

		if _, err := tx.Exec(files[i].content); err != nil {
			return nil, MigrationError{Sequence: i, Filename: files[i].name, Err: err}
		}

		_, err := tx.Exec(
			"INSERT INTO migrations (sequence, filename, timestamp) VALUES (?, ?, ?)",
			m.Sequence, m.Filename, m.Timestamp,
		)
		if err != nil {
			return nil, MigrationError{Sequence: i, Filename: files[i].name, Err: err}
		}

		out = append(out, m)
	}

	return out, nil
}

func queryMigrations(tx *sql.Tx) ([]Migration, error) {
	rows, err := tx.Query("SELECT sequence, filename, timestamp FROM migrations ORDER BY sequence ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}

	defer rows.Close()

	out := make([]Migration, 0)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Sequence, &m.Filename, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}

		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migrations: %w", err)
	}

	return out, nil
}

func loadFiles(fileSys fs.FS) ([]file, error) {
	names, err := fs.Glob(fileSys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to glob migration files: %w", err)
	}

	sort.Strings(names)

	files := make([]file, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fileSys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %q: %w", name, err)
		}

		files = append(files, file{
			name:    strings.TrimSuffix(name, ".sql"),
			content: string(content),
		})
	}

	return files, nil
}

func rollback(tx *sql.Tx, err error) error {
	rBackErr := tx.Rollback()
	if rBackErr != nil {
		return errors.Join(err, rBackErr)
	}

	return err
}
