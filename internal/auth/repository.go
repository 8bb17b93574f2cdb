// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package auth

import (
	"context"

	"github.com/google/uuid"
)

// Transactor runs a function inside one database transaction.
// Repository calls made with the context passed to fn join that transaction.
type Transactor interface {
	// InTransaction commits if fn returns nil and rolls back otherwise.
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create inserts a user and returns its generated ID.
	Create(ctx context.Context, username string) (uuid.UUID, error)
}

// CredentialRepository manages credential persistence.
type CredentialRepository interface {
	// GetByEmail returns ErrNotFound if no credential has the given email.
	GetByEmail(ctx context.Context, email string) (*Credential, error)

	// Create stores a credential. Returns ErrUserAlreadyExists if the email
	// is already taken.
	Create(ctx context.Context, cred *Credential) error
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create inserts a session for userID and returns its generated ID.
	Create(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)

	// Delete removes a session and reports whether it existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// UserForSession returns the owning user of a session.
	// Returns ErrNotFound if the session or its user does not exist.
	UserForSession(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}
