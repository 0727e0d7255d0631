package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shoptracker/internal/domain"

	"github.com/golang-jwt/jwt/v4"
)

const roleAdmin = "admin"

// Claims carried by identity and admin tokens. The subject is the tenant id
// for tenant tokens.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for the identity. The identity provider issues tenant
// tokens in production; the admin login and tests use this directly.
func (v *Verifier) Issue(identity Identity, ttl time.Duration) (string, time.Time, error) {
	now := v.now()
	exp := now.Add(ttl)
	claims := &Claims{
		Name:  identity.DisplayName,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.TenantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if identity.Admin {
		claims.Role = roleAdmin
		claims.Subject = roleAdmin + ":" + identity.Email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses the token and returns the identity it carries. Every
// failure is reported as domain.ErrUnauthorized.
func (v *Verifier) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}

	parser := jwt.Parser{}
	token, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token: %v: %w", err, domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	if claims.ExpiresAt == nil {
		return Identity{}, fmt.Errorf("token has no expiry: %w", domain.ErrUnauthorized)
	}

	if claims.Role == roleAdmin {
		return Identity{Email: claims.Email, DisplayName: claims.Name, Admin: true}, nil
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, fmt.Errorf("token has no subject: %w", domain.ErrUnauthorized)
	}
	return Identity{
		TenantID:    claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
