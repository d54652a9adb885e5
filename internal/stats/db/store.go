// Package db implements the stats store on SQLite.
package db

import (
	"context"
	"database/sql"

	"github.com/fittrack/fittrack/internal/errorz"
	"github.com/fittrack/fittrack/internal/stats"
)

// Store reads aggregates from the database. It only queries, so it
// uses the read pool.
type Store struct {
	r *sql.DB
}

// New creates a new Store.
func New(r *sql.DB) *Store {
	return &Store{r: r}
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return countRow(ctx, s.r, `SELECT COUNT(*) FROM users`)
}

func (s *Store) CountActivities(ctx context.Context) (int64, error) {
	return countRow(ctx, s.r, `SELECT COUNT(*) FROM activities`)
}

func (s *Store) SumCalories(ctx context.Context) (float64, error) {
	var sum float64

	err := s.r.QueryRowContext(ctx, `SELECT COALESCE(SUM(calories), 0) FROM activities`).Scan(&sum)
	if err != nil {
		return 0, errorz.MapDBErr(err)
	}

	return sum, nil
}

func (s *Store) CountByType(ctx context.Context) ([]stats.TypeCount, error) {
	query := `SELECT activity_type, COUNT(*) AS cnt
		FROM activities
		GROUP BY activity_type
		ORDER BY cnt DESC, activity_type ASC`

	rows, err := s.r.QueryContext(ctx, query)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]stats.TypeCount, 0)
	for rows.Next() {
		var tc stats.TypeCount

		err := rows.Scan(&tc.Type, &tc.Count)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		out = append(out, tc)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

func countRow(ctx context.Context, qr *sql.DB, query string) (int64, error) {
	var n int64

	err := qr.QueryRowContext(ctx, query).Scan(&n)
	if err != nil {
		return 0, errorz.MapDBErr(err)
	}

	return n, nil
}
