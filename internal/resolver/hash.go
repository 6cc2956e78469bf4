package resolver

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns a secret into an irreversible, verifiable digest.
type Hasher interface {
	Hash(plain string) (string, error)
	// Compare returns nil when plain matches hash.
	Compare(hash, plain string) error
}

// BcryptHasher hashes with bcrypt. A zero Cost uses bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
