package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/internal/db/testdb"
	"github.com/fittrack/fittrack/internal/email"
	"github.com/fittrack/fittrack/internal/errorz"
	"github.com/fittrack/fittrack/internal/krypto"
)

func newTestUser(t *testing.T, addr string) *auth.User {
	t.Helper()

	hash, err := krypto.ParseArgon2Hash("$argon2id$v=19$m=47104,t=1,p=1$vP9U4C5jsOzFQLj0gvUkYw$YLrSb2dGfcVohlm8syynqHs6/NHxXS9rt/t6TjL7pi0")
	if err != nil {
		t.Fatalf("failed to parse hash: %v", err)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	return &auth.User{
		Email:        email.Address(addr),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStore_CreateUser(t *testing.T) {
	t.Run("ok, create a user", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		user := newTestUser(t, "info@example.com")
		err := store.CreateUser(context.Background(), user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID == 0 {
			t.Errorf("expected user ID to be set")
		}

		got, err := store.FindUsers(context.Background(), &auth.UserFilter{
			IDs: []int64{user.ID},
		})
		if err != nil {
			t.Fatalf("failed to find users: %v", err)
		}

		if len(got) != 1 {
			t.Fatalf("expected 1 user, got %d", len(got))
		}

		if got[0].Email != user.Email {
			t.Errorf("got email %q, want %q", got[0].Email, user.Email)
		}

		if got[0].PasswordHash.String() != user.PasswordHash.String() {
			t.Errorf("got hash %q, want %q", got[0].PasswordHash, user.PasswordHash)
		}
	})

	t.Run("fail, duplicate email", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		err := store.CreateUser(context.Background(), newTestUser(t, "info@example.com"))
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		err = store.CreateUser(context.Background(), newTestUser(t, "info@example.com"))
		if !errors.Is(err, errorz.ErrConstraintViolated) {
			t.Errorf("got error %v, want %v", err, errorz.ErrConstraintViolated)
		}
	})
}

func TestStore_UpdateUser(t *testing.T) {
	t.Run("ok, update a user", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		user := newTestUser(t, "info@example.com")
		err := store.CreateUser(context.Background(), user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		user.Email = email.Address("other@example.com")
		user.UpdatedAt = user.UpdatedAt.Add(time.Hour)

		err = store.UpdateUser(context.Background(), user)
		if err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		got, err := store.FindUsers(context.Background(), &auth.UserFilter{
			IDs: []int64{user.ID},
		})
		if err != nil {
			t.Fatalf("failed to find users: %v", err)
		}

		if len(got) != 1 {
			t.Fatalf("expected 1 user, got %d", len(got))
		}

		if got[0].Email != email.Address("other@example.com") {
			t.Errorf("got email %q, want %q", got[0].Email, "other@example.com")
		}
	})

	t.Run("fail, user not found", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		user := newTestUser(t, "info@example.com")
		user.ID = 42

		err := store.UpdateUser(context.Background(), user)
		if !errors.Is(err, errorz.ErrNotFound) {
			t.Errorf("got error %v, want %v", err, errorz.ErrNotFound)
		}
	})
}

func TestStore_DeleteUser(t *testing.T) {
	t.Run("ok, delete a user", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		user := newTestUser(t, "info@example.com")
		err := store.CreateUser(context.Background(), user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		err = store.DeleteUser(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		got, err := store.FindUsers(context.Background(), &auth.UserFilter{})
		if err != nil {
			t.Fatalf("failed to find users: %v", err)
		}

		if len(got) != 0 {
			t.Errorf("expected 0 users, got %d", len(got))
		}
	})

	t.Run("ok, delete a non-existent user", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		err := store.DeleteUser(context.Background(), 42)
		if err != nil {
			t.Errorf("got error %v, want nil", err)
		}
	})
}

func TestStore_FindUsers(t *testing.T) {
	t.Run("ok, filter by email", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		for _, addr := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			err := store.CreateUser(context.Background(), newTestUser(t, addr))
			if err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		got, err := store.FindUsers(context.Background(), &auth.UserFilter{
			Emails: []email.Address{"b@example.com"},
		})
		if err != nil {
			t.Fatalf("failed to find users: %v", err)
		}

		if len(got) != 1 {
			t.Fatalf("expected 1 user, got %d", len(got))
		}

		if got[0].Email != email.Address("b@example.com") {
			t.Errorf("got email %q, want %q", got[0].Email, "b@example.com")
		}
	})

	t.Run("ok, no filter lists all users in id order", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		addrs := []string{"a@example.com", "b@example.com", "c@example.com"}
		for _, addr := range addrs {
			err := store.CreateUser(context.Background(), newTestUser(t, addr))
			if err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		got, err := store.FindUsers(context.Background(), &auth.UserFilter{})
		if err != nil {
			t.Fatalf("failed to find users: %v", err)
		}

		if len(got) != len(addrs) {
			t.Fatalf("expected %d users, got %d", len(addrs), len(got))
		}

		for i, addr := range addrs {
			if got[i].Email != email.Address(addr) {
				t.Errorf("user %d: got email %q, want %q", i, got[i].Email, addr)
			}
		}
	})

	t.Run("ok, no match returns empty slice", func(t *testing.T) {
		pool := testdb.RunWhile(t)
		store := New(pool, pool)

		got, err := store.FindUsers(context.Background(), &auth.UserFilter{
			IDs: []int64{42},
		})
		if err != nil {
			t.Fatalf("failed to find users: %v", err)
		}

		if len(got) != 0 {
			t.Errorf("expected 0 users, got %d", len(got))
		}
	})
}
