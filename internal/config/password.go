package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordGate guards the review UI with a single shared password. The
// plain password is hashed once at startup and never kept.
type PasswordGate struct {
	hash []byte
}

// NewPasswordGate hashes the configured password. An empty password yields a
// disabled gate that admits everyone.
func NewPasswordGate(password string) (*PasswordGate, error) {
	if password == "" {
		return &PasswordGate{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash APP_PASSWORD: %w", err)
	}
	return &PasswordGate{hash: hash}, nil
}

// Enabled reports whether a password is required.
func (g *PasswordGate) Enabled() bool {
	return g != nil && len(g.hash) > 0
}

// Verify checks a submitted password. A disabled gate accepts anything.
func (g *PasswordGate) Verify(pw string) bool {
	if !g.Enabled() {
		return true
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(pw)) == nil
}
