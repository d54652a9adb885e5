package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/internal/db"
	"github.com/fittrack/fittrack/internal/email"
	"github.com/fittrack/fittrack/internal/errorz"
	"github.com/fittrack/fittrack/internal/krypto"
)

func insertUser(ctx context.Context, ex *sql.DB, u *auth.User) error {
	var q db.Query
	q.Unsafe(`INSERT INTO users (email, password_hash, created_at, updated_at) VALUES (`)
	q.Params(string(u.Email), u.PasswordHash.String(), u.CreatedAt, u.UpdatedAt)
	q.Unsafe(`)`)

	s, params := q.Get()

	result, err := ex.ExecContext(ctx, s, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errorz.MapDBErr(err)
	}

	u.ID = id

	return nil
}

func updateUser(ctx context.Context, ex *sql.DB, u *auth.User) error {
	var q db.Query
	q.Unsafe(`UPDATE users SET email = `)
	q.Param(string(u.Email))
	q.Unsafe(`, password_hash = `)
	q.Param(u.PasswordHash.String())
	q.Unsafe(`, created_at = `)
	q.Param(u.CreatedAt)
	q.Unsafe(`, updated_at = `)
	q.Param(u.UpdatedAt)
	q.Unsafe(` WHERE id = `)
	q.Param(u.ID)

	s, params := q.Get()

	result, err := ex.ExecContext(ctx, s, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if rows == 0 {
		return fmt.Errorf("user not found: %w", errorz.ErrNotFound)
	}

	return nil
}

func deleteUser(ctx context.Context, ex *sql.DB, id int64) error {
	var q db.Query
	q.Unsafe(`DELETE FROM users WHERE id = `)
	q.Param(id)

	s, params := q.Get()

	// Zero rows affected is not an error, deletes are idempotent.
	_, err := ex.ExecContext(ctx, s, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

func selectUsers(ctx context.Context, qr *sql.DB, f *auth.UserFilter) ([]auth.User, error) {
	var q db.Query
	q.Unsafe(`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE 1=1 `)

	if len(f.IDs) > 0 {
		q.Unsafe(`AND id IN (`)
		q.Params(anySlice(f.IDs)...)
		q.Unsafe(`) `)
	}

	if len(f.Emails) > 0 {
		q.Unsafe(`AND email IN (`)
		q.Params(anySlice(f.Emails)...)
		q.Unsafe(`) `)
	}

	q.Unsafe(`ORDER BY id ASC`)

	s, params := q.Get()

	rows, err := qr.QueryContext(ctx, s, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]auth.User, 0)
	for rows.Next() {
		var (
			u       auth.User
			addr    string
			pwdHash string
		)

		err := rows.Scan(&u.ID, &addr, &pwdHash, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		u.Email = email.Address(addr)

		u.PasswordHash, err = krypto.ParseArgon2Hash(pwdHash)
		if err != nil {
			return nil, err
		}

		out = append(out, u)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

func anySlice[T any](s []T) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}
