package krypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	hashLen = 32

	variantArgon2id = "argon2id"

	// Parameters follow the first OWASP recommendation for argon2id.
	argonMemoryKiB   = 47104
	argonIterations  = 1
	argonParallelism = 1
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidHash  = errors.New("invalid argon2 hash")
)

// Argon2Hash is a salted argon2 digest together with the parameters
// used to create it. Matching re-derives the digest with the stored
// parameters, so hashes created with older parameters keep working.
type Argon2Hash struct {
	Variant     string
	Version     int
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	Salt        []byte
	Hash        []byte
}

// HashArgon2 hashes raw using argon2id with a new random salt.
func HashArgon2(raw []byte) (Argon2Hash, error) {
	if len(raw) == 0 {
		return Argon2Hash{}, ErrInvalidInput
	}

	salt, err := genRandomBytes(saltLen)
	if err != nil {
		return Argon2Hash{}, err
	}

	hash := argon2.IDKey(raw, salt, argonIterations, argonMemoryKiB, argonParallelism, hashLen)

	return Argon2Hash{
		Variant:     variantArgon2id,
		Version:     argon2.Version,
		MemoryKiB:   argonMemoryKiB,
		Iterations:  argonIterations,
		Parallelism: argonParallelism,
		Salt:        salt,
		Hash:        hash,
	}, nil
}

// MatchBytes reports whether raw hashes to h using the parameters stored in h.
// The comparison of the digests is done in constant time.
func (h Argon2Hash) MatchBytes(raw []byte) bool {
	if h.Variant != variantArgon2id || h.Version != argon2.Version {
		return false
	}

	other := argon2.IDKey(raw, h.Salt, h.Iterations, h.MemoryKiB, h.Parallelism, uint32(len(h.Hash)))

	return subtle.ConstantTimeCompare(h.Hash, other) == 1
}

// String encodes the hash in the common PHC format:
//
//	$argon2id$v=19$m=47104,t=1,p=1$<salt>$<hash>
func (h Argon2Hash) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		h.Variant,
		h.Version,
		h.MemoryKiB,
		h.Iterations,
		h.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.Salt),
		base64.RawStdEncoding.EncodeToString(h.Hash),
	)
}

// ParseArgon2Hash parses a hash in the format produced by String.
func ParseArgon2Hash(raw string) (Argon2Hash, error) {
	parts := strings.Split(raw, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Argon2Hash{}, ErrInvalidHash
	}

	h := Argon2Hash{
		Variant: parts[1],
	}

	if h.Variant != variantArgon2id {
		return Argon2Hash{}, ErrInvalidHash
	}

	if _, err := fmt.Sscanf(parts[2], "v=%d", &h.Version); err != nil {
		return Argon2Hash{}, ErrInvalidHash
	}

	if h.Version != argon2.Version {
		return Argon2Hash{}, ErrInvalidHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.MemoryKiB, &h.Iterations, &h.Parallelism); err != nil {
		return Argon2Hash{}, ErrInvalidHash
	}

	var err error
	h.Salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Hash{}, ErrInvalidHash
	}

	h.Hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2Hash{}, ErrInvalidHash
	}

	return h, nil
}

func (h Argon2Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Argon2Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseArgon2Hash(string(text))
	if err != nil {
		return err
	}

	*h = parsed

	return nil
}
