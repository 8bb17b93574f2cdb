// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package auth

import (
	"context"

	"github.com/google/uuid"
)

// User is an account identity.
type User struct {
	ID       uuid.UUID
	Username string
}

// Credential is the login material for exactly one user.
type Credential struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
}

// Session is one authenticated login. Sessions do not expire; they live
// until logout deletes them.
type Session struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// Identity is the result of a successful session check.
type Identity struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
}

// ParseSessionToken converts a cookie value into a session ID.
// Only the canonical hyphenated form is accepted. Issued cookies are always
// canonical, so the 32-hex, braced and urn forms that uuid.Parse also takes
// are rejected rather than aliased to the same session.
func ParseSessionToken(token string) (uuid.UUID, error) {
	if len(token) != 36 {
		return uuid.Nil, ErrInvalidSession
	}
	id, err := uuid.Parse(token)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidSession
	}
	return id, nil
}

// identityKey is the context key for the resolved Identity.
type identityKey struct{}

// WithIdentity returns a new context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the Identity attached by the session guard.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
