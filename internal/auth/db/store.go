// Package db implements the auth store on SQLite.
package db

import (
	"context"
	"database/sql"

	"github.com/fittrack/fittrack/internal/auth"
)

// Store is responsible for persisting users.
// It uses separate pools for writing and reading, matching how the
// SQLite connections are configured.
type Store struct {
	w *sql.DB
	r *sql.DB
}

// New creates a new Store.
func New(w, r *sql.DB) *Store {
	return &Store{
		w: w,
		r: r,
	}
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	return insertUser(ctx, s.w, u)
}

func (s *Store) UpdateUser(ctx context.Context, u *auth.User) error {
	return updateUser(ctx, s.w, u)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return deleteUser(ctx, s.w, id)
}

func (s *Store) FindUsers(ctx context.Context, filter *auth.UserFilter) ([]auth.User, error) {
	return selectUsers(ctx, s.r, filter)
}
