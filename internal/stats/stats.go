// Package stats aggregates usage statistics over users and activities.
package stats

import "context"

// Sentinel values reported when no meaningful most-common activity
// type exists.
const (
	NoActivities    = "No activities"
	NoRepeatedTypes = "No repeated activity types"
)

// Stats is an aggregate snapshot of the whole system.
type Stats struct {
	TotalUsers         int64   `json:"total_users"`
	TotalActivities    int64   `json:"total_activities"`
	TotalCalories      float64 `json:"total_calories"`
	MostCommonActivity string  `json:"most_common_activity"`
}

// TypeCount is the number of activities recorded for a single type.
type TypeCount struct {
	Type  string
	Count int64
}

// Store provides the raw aggregates the statistics are computed from.
type Store interface {
	// CountUsers returns the total number of registered users.
	CountUsers(ctx context.Context) (int64, error)

	// CountActivities returns the total number of activities.
	CountActivities(ctx context.Context) (int64, error)

	// SumCalories returns the sum of calories over all activities,
	// zero when there are none.
	SumCalories(ctx context.Context) (float64, error)

	// CountByType returns per-type activity counts, highest count
	// first. Ties are broken by type name in ascending order.
	CountByType(ctx context.Context) ([]TypeCount, error)
}

// Aggregator computes statistics snapshots.
type Aggregator struct {
	store Store
}

func NewAggregator(s Store) *Aggregator {
	return &Aggregator{store: s}
}

// Compute builds a statistics snapshot.
//
// The most common activity type is only reported when it actually
// repeats. A tally where every type occurs once says nothing about
// what's common, so that case gets a sentinel value instead.
func (a *Aggregator) Compute(ctx context.Context) (Stats, error) {
	users, err := a.store.CountUsers(ctx)
	if err != nil {
		return Stats{}, err
	}

	activities, err := a.store.CountActivities(ctx)
	if err != nil {
		return Stats{}, err
	}

	calories, err := a.store.SumCalories(ctx)
	if err != nil {
		return Stats{}, err
	}

	counts, err := a.store.CountByType(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalUsers:      users,
		TotalActivities: activities,
		TotalCalories:   calories,
	}

	switch {
	case len(counts) == 0:
		stats.MostCommonActivity = NoActivities
	case counts[0].Count <= 1:
		stats.MostCommonActivity = NoRepeatedTypes
	default:
		stats.MostCommonActivity = counts[0].Type
	}

	return stats, nil
}
