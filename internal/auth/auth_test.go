package auth

import (
	"context"
	"testing"
	"time"

	"shoptracker/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifierRoundTrip(t *testing.T) {
	verifier, err := NewVerifier("secret")
	require.NoError(t, err)

	token, exp, err := verifier.Issue(Identity{TenantID: "tenant-1", Email: "a@b.c", DisplayName: "Ana"}, time.Hour)
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	identity, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, Identity{TenantID: "tenant-1", Email: "a@b.c", DisplayName: "Ana"}, identity)
}

func TestVerifierRejectsBadTokens(t *testing.T) {
	verifier, err := NewVerifier("secret")
	require.NoError(t, err)
	other, err := NewVerifier("other")
	require.NoError(t, err)

	foreign, _, err := other.Issue(Identity{TenantID: "t"}, time.Hour)
	require.NoError(t, err)
	_, err = verifier.Verify(foreign)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	expired, _, err := verifier.Issue(Identity{TenantID: "t"}, -time.Minute)
	require.NoError(t, err)
	_, err = verifier.Verify(expired)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	noSubject, _, err := verifier.Issue(Identity{}, time.Hour)
	require.NoError(t, err)
	_, err = verifier.Verify(noSubject)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = verifier.Verify("")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifierRejectsOtherAlgorithms(t *testing.T) {
	verifier, err := NewVerifier("secret")
	require.NoError(t, err)

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "t",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", BearerToken("Bearer abc"))
	require.Equal(t, "abc", BearerToken("bearer   abc "))
	require.Empty(t, BearerToken("Basic abc"))
	require.Empty(t, BearerToken(""))
}

func TestAdminLogin(t *testing.T) {
	verifier, err := NewVerifier("secret")
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)

	admin, err := NewAdminAuthenticator(" Admin@Shop.io ", string(hash), time.Hour, verifier)
	require.NoError(t, err)

	_, err = admin.Login("admin@shop.io", "wrong")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = admin.Login("someone@shop.io", "correctpass")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = admin.Login("", "")
	require.ErrorIs(t, err, domain.ErrValidation)

	session, err := admin.Login("ADMIN@shop.io", "correctpass")
	require.NoError(t, err)
	require.Equal(t, "admin@shop.io", session.Email)

	identity, err := verifier.Verify(session.Token)
	require.NoError(t, err)
	require.True(t, identity.Admin)
	require.Empty(t, identity.TenantID)
	require.Equal(t, "admin@shop.io", identity.Actor())
}

func TestNewAdminAuthenticatorRejectsPlainPassword(t *testing.T) {
	verifier, err := NewVerifier("secret")
	require.NoError(t, err)
	_, err = NewAdminAuthenticator("admin@shop.io", "plain-text", time.Hour, verifier)
	require.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	require.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{TenantID: "t1"})
	identity, ok := IdentityFrom(ctx)
	require.True(t, ok)
	require.Equal(t, "t1", identity.TenantID)
	require.Equal(t, "t1", identity.Actor())
}
