package helpers

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used when none is configured.
const DefaultPasswordCost = 10

// bcryptMaxBytes is the longest input bcrypt accepts.
const bcryptMaxBytes = 72

// ErrHashing is returned when a digest cannot be produced.
var ErrHashing = errors.New("hashing failed")

// PasswordCodec hashes and verifies secrets with bcrypt.
// It is used for account passwords and for raw verification tokens alike.
// Secrets longer than 72 bytes are reduced to a SHA-256 digest first, so every
// byte counts and no length is rejected.
type PasswordCodec struct {
	Cost int
}

func NewPasswordCodec(cost int) *PasswordCodec {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	return &PasswordCodec{Cost: cost}
}

// Hash returns a salted bcrypt digest of plain.
func (c *PasswordCodec) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(prepare(plain), c.Cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(b), nil
}

// Verify compares plain against digest in constant time.
// A wrong secret yields false with a nil error; only a malformed digest is an error.
func (c *PasswordCodec) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), prepare(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

func prepare(plain string) []byte {
	if len(plain) <= bcryptMaxBytes {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
