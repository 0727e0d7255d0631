package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shoptracker/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuthenticator checks the configured console credentials and issues
// admin tokens.
type AdminAuthenticator struct {
	email        string
	passwordHash []byte
	ttl          time.Duration
	tokens       *Verifier
}

type AdminSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
}

func NewAdminAuthenticator(email, passwordHash string, ttl time.Duration, tokens *Verifier) (*AdminAuthenticator, error) {
	if tokens == nil {
		return nil, errors.New("auth: token verifier is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(passwordHash) == "" {
		return nil, errors.New("auth: admin email and password hash are required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("auth: admin password hash: %w", err)
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AdminAuthenticator{
		email:        email,
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		tokens:       tokens,
	}, nil
}

func (a *AdminAuthenticator) Login(email, password string) (AdminSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AdminSession{}, fmt.Errorf("email and password are required: %w", domain.ErrValidation)
	}
	if email != a.email {
		return AdminSession{}, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return AdminSession{}, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	token, exp, err := a.tokens.Issue(Identity{Email: a.email, DisplayName: "Administrator", Admin: true}, a.ttl)
	if err != nil {
		return AdminSession{}, err
	}
	return AdminSession{Token: token, ExpiresAt: exp, Email: a.email}, nil
}
