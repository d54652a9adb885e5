package activity

import "context"

// Filter is used to filter activities.
// Returned activities must match all the provided fields.
// If a field is empty or nil, it's ignored.
type Filter struct {
	IDs      []int64
	OwnerIDs []int64
}

// Store provides access to the activity store.
type Store interface {
	// CreateActivity creates an activity.
	// It updates the activity's ID when successful.
	CreateActivity(ctx context.Context, a *Activity) error

	// UpdateActivity overwrites the record fields of the activity with
	// the given id. It returns errorz.ErrNotFound if no activity is found.
	UpdateActivity(ctx context.Context, id int64, rec Record) error

	// DeleteActivity removes the activity with the given id. Deleting a
	// non-existent activity is not an error.
	DeleteActivity(ctx context.Context, id int64) error

	// FindActivities queries for activities based on the provided filter,
	// most recent date first. It returns an empty slice if none are found.
	FindActivities(ctx context.Context, filter *Filter) ([]Activity, error)

	// FindActivitiesWithOwner returns all activities joined with their
	// owner's email address, newest id first. Activities without a
	// resolvable owner are included with a nil email.
	FindActivitiesWithOwner(ctx context.Context) ([]OwnedActivity, error)
}
