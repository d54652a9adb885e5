package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fittrack/fittrack/internal/activity"
	"github.com/fittrack/fittrack/internal/db"
	"github.com/fittrack/fittrack/internal/email"
	"github.com/fittrack/fittrack/internal/errorz"
)

// Dates are stored as ISO text, so lexical and chronological order agree.
const dateFormat = time.DateOnly

func insertActivity(ctx context.Context, ex *sql.DB, a *activity.Activity) error {
	var q db.Query
	q.Unsafe(`INSERT INTO activities (activity_type, duration, calories, date, user_id) VALUES (`)
	q.Params(a.Type, a.Duration, a.Calories, a.Date.Format(dateFormat), ownerParam(a.OwnerID))
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

	a.ID = id

	return nil
}

func updateActivity(ctx context.Context, ex *sql.DB, id int64, rec activity.Record) error {
	var q db.Query
	q.Unsafe(`UPDATE activities SET activity_type = `)
	q.Param(rec.Type)
	q.Unsafe(`, duration = `)
	q.Param(rec.Duration)
	q.Unsafe(`, calories = `)
	q.Param(rec.Calories)
	q.Unsafe(`, date = `)
	q.Param(rec.Date.Format(dateFormat))
	q.Unsafe(` WHERE id = `)
	q.Param(id)

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
		return fmt.Errorf("activity not found: %w", errorz.ErrNotFound)
	}

	return nil
}

func deleteActivity(ctx context.Context, ex *sql.DB, id int64) error {
	var q db.Query
	q.Unsafe(`DELETE FROM activities WHERE id = `)
	q.Param(id)

	s, params := q.Get()

	// Zero rows affected is not an error, deletes are idempotent.
	_, err := ex.ExecContext(ctx, s, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

func selectActivities(ctx context.Context, qr *sql.DB, f *activity.Filter) ([]activity.Activity, error) {
	var q db.Query
	q.Unsafe(`SELECT id, activity_type, duration, calories, date, user_id FROM activities WHERE 1=1 `)

	if len(f.IDs) > 0 {
		q.Unsafe(`AND id IN (`)
		q.Params(anySlice(f.IDs)...)
		q.Unsafe(`) `)
	}

	if len(f.OwnerIDs) > 0 {
		q.Unsafe(`AND user_id IN (`)
		q.Params(anySlice(f.OwnerIDs)...)
		q.Unsafe(`) `)
	}

	q.Unsafe(`ORDER BY date DESC, id DESC`)

	s, params := q.Get()

	rows, err := qr.QueryContext(ctx, s, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]activity.Activity, 0)
	for rows.Next() {
		var (
			a       activity.Activity
			date    string
			ownerID sql.NullInt64
		)

		err := rows.Scan(&a.ID, &a.Type, &a.Duration, &a.Calories, &date, &ownerID)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		a.Date, err = time.Parse(dateFormat, date)
		if err != nil {
			return nil, err
		}

		if ownerID.Valid {
			a.OwnerID = &ownerID.Int64
		}

		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

func selectActivitiesWithOwner(ctx context.Context, qr *sql.DB) ([]activity.OwnedActivity, error) {
	// Left join, activities without a resolvable owner still appear.
	query := `SELECT activities.id, activities.activity_type, activities.duration,
		activities.calories, activities.date, activities.user_id, users.email
		FROM activities
		LEFT JOIN users ON activities.user_id = users.id
		ORDER BY activities.id DESC`

	rows, err := qr.QueryContext(ctx, query)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}

	defer rows.Close()

	out := make([]activity.OwnedActivity, 0)
	for rows.Next() {
		var (
			a       activity.OwnedActivity
			date    string
			ownerID sql.NullInt64
			addr    sql.NullString
		)

		err := rows.Scan(&a.ID, &a.Type, &a.Duration, &a.Calories, &date, &ownerID, &addr)
		if err != nil {
			return nil, errorz.MapDBErr(err)
		}

		a.Date, err = time.Parse(dateFormat, date)
		if err != nil {
			return nil, err
		}

		if ownerID.Valid {
			a.OwnerID = &ownerID.Int64
		}

		if addr.Valid {
			ownerEmail := email.Address(addr.String)
			a.OwnerEmail = &ownerEmail
		}

		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

func ownerParam(id *int64) any {
	if id == nil {
		return nil
	}

	return *id
}

func anySlice[T any](s []T) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}
