package auth

import (
	"time"

	"github.com/fittrack/fittrack/internal/email"
	"github.com/fittrack/fittrack/internal/krypto"
)

// User contains the data for a user.
type User struct {
	ID           int64
	Email        email.Address
	PasswordHash krypto.Argon2Hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials is an email address and plaintext password pair.
type Credentials struct {
	Email    email.Address
	Password Password
}

// Identity is the authenticated principal for a request: either the
// single admin or a specific user by id. The zero value is no identity.
type Identity struct {
	UserID  int64
	IsAdmin bool
}
