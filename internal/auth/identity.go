package auth

import "context"

// Identity is the caller resolved from a bearer token.
type Identity struct {
	TenantID    string
	Email       string
	DisplayName string
	Admin       bool
}

// Actor names the identity in activity entries.
func (i Identity) Actor() string {
	switch {
	case i.Email != "":
		return i.Email
	case i.DisplayName != "":
		return i.DisplayName
	case i.Admin:
		return "admin"
	default:
		return i.TenantID
	}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}
