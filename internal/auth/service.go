// Package auth provides the main rules for authentication: password
// policy and hashing, registering and authenticating accounts, and the
// admin identity.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/fittrack/fittrack/internal/email"
	"github.com/fittrack/fittrack/internal/errorz"
	"github.com/fittrack/fittrack/internal/krypto"
)

var (
	ErrDuplicateUser = errors.New("duplicate user")

	// ErrInvalidCredentials is returned for both unknown email addresses
	// and wrong passwords, so callers can't tell which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AdminCredentials identify the single privileged admin. They are
// provided via configuration, the admin does not exist as a user row.
type AdminCredentials struct {
	Email        email.Address
	PasswordHash krypto.Argon2Hash
}

// Service is the type that provides the main rules for authentication.
type Service struct {
	store Store
	admin AdminCredentials

	// comparisonHash is used to compare passwords when no user was found.
	comparisonHash krypto.Argon2Hash

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewService(s Store, admin AdminCredentials) (*Service, error) {
	// Hash a random value to get a comparison hash for non-existing users.
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	hash, err := krypto.HashArgon2(buf)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:          s,
		admin:          admin,
		comparisonHash: hash,
		NowFunc:        time.Now,
	}, nil
}

// Register registers a new user with the provided credentials.
// It returns ErrDuplicateUser if the email address is already taken.
// A failed registration leaves no partial state behind, the only write
// is a single insert.
func (s *Service) Register(ctx context.Context, c Credentials) error {
	pwdHash, err := c.Password.Hash()
	if err != nil {
		return err
	}

	now := s.NowFunc()
	user := User{
		Email:        c.Email,
		PasswordHash: pwdHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.CreateUser(ctx, &user)
	if errors.Is(err, errorz.ErrConstraintViolated) {
		return ErrDuplicateUser
	}

	return err
}

// Authenticate checks the provided credentials and returns the matching
// identity. The admin credentials are checked first, then the user store.
//
// Unknown email addresses and wrong passwords both result in
// ErrInvalidCredentials. The unknown-email path still performs a hash
// comparison to prevent timing differences that could result in user
// enumeration attacks.
func (s *Service) Authenticate(ctx context.Context, c Credentials) (Identity, error) {
	if c.Email == s.admin.Email && c.Password.Match(s.admin.PasswordHash) {
		return Identity{IsAdmin: true}, nil
	}

	users, err := s.store.FindUsers(ctx, &UserFilter{
		Emails: []email.Address{c.Email},
	})
	if err != nil {
		return Identity{}, err
	}

	if len(users) != 1 {
		_ = c.Password.Match(s.comparisonHash)
		return Identity{}, ErrInvalidCredentials
	}

	if !c.Password.Match(users[0].PasswordHash) {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{UserID: users[0].ID}, nil
}

// Users lists all registered users. Admin functionality.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	return s.store.FindUsers(ctx, &UserFilter{})
}

// UpdateUser replaces the email address of the user with the given id,
// and the password hash if a new password is provided. A nil password
// leaves the stored hash untouched. Admin functionality.
func (s *Service) UpdateUser(ctx context.Context, id int64, addr email.Address, pwd *Password) error {
	users, err := s.store.FindUsers(ctx, &UserFilter{
		IDs: []int64{id},
	})
	if err != nil {
		return err
	}

	if len(users) != 1 {
		return errorz.ErrNotFound
	}

	user := users[0]
	user.Email = addr

	if pwd != nil {
		user.PasswordHash, err = pwd.Hash()
		if err != nil {
			return err
		}
	}

	user.UpdatedAt = s.NowFunc()

	return s.store.UpdateUser(ctx, &user)
}

// DeleteUser removes the user with the given id. The user's activities
// are kept, their owner reference is cleared by the store schema.
// Deleting a non-existent user is not an error. Admin functionality.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.store.DeleteUser(ctx, id)
}
