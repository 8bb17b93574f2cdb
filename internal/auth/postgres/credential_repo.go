// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/latchkey/latchkey/internal/auth"
)

// CredentialRepository implements auth.CredentialRepository using PostgreSQL.
type CredentialRepository struct {
	pool Pool
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(pool Pool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

// GetByEmail retrieves the credential registered under email.
func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	var cred auth.Credential
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT user_id, email, password
		FROM credentials
		WHERE email = $1
	`, email).Scan(&cred.UserID, &cred.Email, &cred.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_GET_FAILED").
			With("operation", "get credential by email").
			Wrap(err)
	}
	return &cred, nil
}

// Create stores cred. A taken email is reported as auth.ErrUserAlreadyExists.
func (r *CredentialRepository) Create(ctx context.Context, cred *auth.Credential) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO credentials (user_id, email, password)
		VALUES ($1, $2, $3)
	`, cred.UserID, cred.Email, cred.PasswordHash)
	if isUniqueViolation(err) {
		return oops.Code("CREDENTIAL_EMAIL_TAKEN").
			With("user_id", cred.UserID.String()).
			Wrap(auth.ErrUserAlreadyExists)
	}
	if err != nil {
		return oops.Code("CREDENTIAL_CREATE_FAILED").
			With("operation", "insert credential").
			With("user_id", cred.UserID.String()).
			Wrap(err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ auth.CredentialRepository = (*CredentialRepository)(nil)
