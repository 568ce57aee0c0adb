package security

import (
	"errors"
	"fmt"
	"sync"

	"github.com/geocoder89/authcore/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt. The salt and cost are
// embedded in every hash it produces.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher returns a Hasher using cost, falling back to bcrypt.DefaultCost
// when cost is out of bcrypt's range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a fresh salted hash of plain. Two calls with the same input
// yield different outputs.
func (h *Hasher) Hash(plain string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.New("security.hash", apperr.ErrInvalidArgument, err)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return hash, nil
}

// Verify compares plain against a stored hash in constant time. A malformed
// or empty hash is a mismatch, never an error.
func (h *Hasher) Verify(plain string, hash []byte) bool {
	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}

// DummyHash returns a valid hash of a fixed string, computed once. Login
// compares against it when the email is unknown so both failure paths cost
// one bcrypt run.
func (h *Hasher) DummyHash() []byte {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("authcore-timing-equaliser"), h.cost)
	})
	return h.dummy
}
