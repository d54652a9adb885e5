// Package db implements the activity store on SQLite.
package db

import (
	"context"
	"database/sql"

	"github.com/fittrack/fittrack/internal/activity"
)

// Store is responsible for persisting activities.
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

func (s *Store) CreateActivity(ctx context.Context, a *activity.Activity) error {
	return insertActivity(ctx, s.w, a)
}

func (s *Store) UpdateActivity(ctx context.Context, id int64, rec activity.Record) error {
	return updateActivity(ctx, s.w, id, rec)
}

func (s *Store) DeleteActivity(ctx context.Context, id int64) error {
	return deleteActivity(ctx, s.w, id)
}

func (s *Store) FindActivities(ctx context.Context, filter *activity.Filter) ([]activity.Activity, error) {
	return selectActivities(ctx, s.r, filter)
}

func (s *Store) FindActivitiesWithOwner(ctx context.Context) ([]activity.OwnedActivity, error) {
	return selectActivitiesWithOwner(ctx, s.r)
}
