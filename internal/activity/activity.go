// Package activity provides logging and managing of exercise activities.
package activity

import (
	"time"

	"github.com/fittrack/fittrack/internal/email"
)

// Activity is a single recorded exercise activity.
type Activity struct {
	ID       int64
	Type     string
	Duration float64
	Calories float64
	Date     time.Time

	// OwnerID references the owning user. It is nil for activities
	// whose owner was deleted.
	OwnerID *int64
}

// Record is the owner-independent part of an activity, used to
// create one or overwrite an existing one.
type Record struct {
	Type     string
	Duration float64
	Calories float64
	Date     time.Time
}

// OwnedActivity is an activity joined with its owner's email address
// for the admin listing. OwnerEmail is nil when the owner was deleted.
type OwnedActivity struct {
	Activity
	OwnerEmail *email.Address
}
