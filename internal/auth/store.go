package auth

import (
	"context"

	"github.com/fittrack/fittrack/internal/email"
)

// UserFilter is used to filter users.
// Returned users must match all the provided fields.
// If a field is empty or nil, it's ignored.
type UserFilter struct {
	IDs    []int64
	Emails []email.Address
}

// Store provides access to the user store.
type Store interface {
	// CreateUser creates a user. It updates the user's ID when successful
	// and returns errorz.ErrConstraintViolated if the email is taken.
	CreateUser(ctx context.Context, u *User) error

	// UpdateUser overwrites the stored user with the same ID.
	// It returns errorz.ErrNotFound if no user is found.
	UpdateUser(ctx context.Context, u *User) error

	// DeleteUser removes the user with the given ID. Deleting a
	// non-existent user is not an error.
	DeleteUser(ctx context.Context, id int64) error

	// FindUsers queries for users based on the provided filter.
	// It returns an empty slice if no users are found.
	FindUsers(ctx context.Context, filter *UserFilter) ([]User, error)
}
