package auth

import (
	"fmt"
	"strings"

	"github.com/fittrack/fittrack/internal/krypto"
)

const (
	minPasswordLen = 8
	// We put a generous upper cap on password length, so people can use
	// passphrases but we don't allow MBs of data as a password.
	maxPasswordLen = 512

	// PasswordSymbols is the set of symbols allowed in passwords.
	// At least one of them is required.
	PasswordSymbols = "@$!%*?&"
)

var ErrInvalidPassword = fmt.Errorf("invalid password")

// Password is a plaintext password.
//
// It should never be persisted, logged or exposed in any other way. To
// protect ourselves from accidentally doing so, the type implements
// several common interfaces that would allow it to be used inappropriately.
//
// There are only two operations allowed on a Password:
// - Converting it to a hash.
// - Comparing it with an existing hash to see if they match.
type Password struct {
	plain []byte
}

// ParsePassword creates a new Password from a plaintext string after
// checking the strength policy: 8 to 512 characters with at least one
// uppercase letter, one digit and one symbol from PasswordSymbols.
// Letters, digits and those symbols are the only allowed characters.
func ParsePassword(pwd string) (Password, error) {
	if len(pwd) < minPasswordLen || len(pwd) > maxPasswordLen {
		return Password{}, ErrInvalidPassword
	}

	var upper, digit, symbol bool
	for _, r := range pwd {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			// allowed, satisfies no requirement.
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		default:
			return Password{}, ErrInvalidPassword
		}
	}

	if !upper || !digit || !symbol {
		return Password{}, ErrInvalidPassword
	}

	return Password{
		plain: []byte(pwd),
	}, nil
}

// SubmittedPassword wraps a password submitted for authentication.
// Only the length cap is enforced: the strength policy applies when a
// password is chosen, not when it is compared. In particular the admin
// password is configured externally as a hash and may contain
// characters the signup policy does not allow.
func SubmittedPassword(pwd string) (Password, error) {
	if len(pwd) > maxPasswordLen {
		return Password{}, ErrInvalidPassword
	}

	return Password{
		plain: []byte(pwd),
	}, nil
}

// Match checks if the plaintext password matches the given hash.
func (p Password) Match(h krypto.Argon2Hash) bool {
	return h.MatchBytes(p.plain)
}

// Hash hashes the plaintext password using the argon2id algorithm.
func (p Password) Hash() (krypto.Argon2Hash, error) {
	return krypto.HashArgon2(p.plain)
}

func (p Password) Format(f fmt.State, verb rune) {
	f.Write([]byte(krypto.SecretMarker))
}

func (p Password) MarshalText() ([]byte, error) {
	return []byte(krypto.SecretMarker), nil
}

func (p *Password) UnmarshalText(text []byte) error {
	pwd, err := ParsePassword(string(text))
	if err != nil {
		return err
	}

	*p = pwd

	return nil
}
