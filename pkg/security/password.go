package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed = errors.New("password hashing failed")
	ErrPasswordShort = errors.New("password too short")
	ErrPasswordLong  = errors.New("password too long")
	ErrMismatch      = errors.New("password does not match")
	MinPasswordLen   = 8
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
// rather than silently truncated.
const maxPasswordLen = 72

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns ErrMismatch for a wrong password.
	Compare(hashedPassword, password string) error
	// CompareDummy burns the same time as Compare for logins whose account
	// does not exist, so response time does not reveal registered emails.
	CompareDummy(password string)
}

type bcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewBcryptHasher returns a bcrypt hasher. A cost outside bcrypt's range
// means bcrypt.DefaultCost.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	switch {
	case len(password) < MinPasswordLen:
		return "", ErrPasswordShort
	case len(password) > maxPasswordLen:
		return "", ErrPasswordLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hash), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

func (b *bcryptHasher) CompareDummy(password string) {
	b.dummyOnce.Do(func() {
		b.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), b.cost)
	})
	_ = bcrypt.CompareHashAndPassword(b.dummy, []byte(password))
}
