// Package hasher wraps bcrypt behind the password hashing port.
package hasher

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"docvault/internal/apperr"
)

var ErrIncorrectPassword = apperr.New(apperr.KindAuthentication, "INCORRECT_PASSWORD", "incorrect password")

type Hasher interface {
	Hash(plain string) (string, error)
	Compare(plain, digest string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A cost of zero selects bcrypt.DefaultCost.
func NewBcrypt(cost int) Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", apperr.New(apperr.KindInternal, "HASH_FAILED", "could not hash password").Wrap(err)
	}
	return string(digest), nil
}

// Compare returns nil on a match and ErrIncorrectPassword on a mismatch.
func (h *bcryptHasher) Compare(plain, digest string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrIncorrectPassword
	default:
		return ErrIncorrectPassword.Wrap(err)
	}
}
