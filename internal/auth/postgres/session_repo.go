// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/latchkey/latchkey/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create opens a session for userID and returns its ID.
func (r *SessionRepository) Create(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO sessions (user_id) VALUES ($1) RETURNING id`, userID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return id, nil
}

// Delete removes the session with the given ID and reports whether a row
// was deleted.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("session_id", id.String()).
			Wrap(err)
	}
	return tag.RowsAffected() > 0, nil
}

// UserForSession returns the ID of the user owning the session.
func (r *SessionRepository) UserForSession(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT sessions.user_id
		FROM sessions
		JOIN users ON sessions.user_id = users.id
		WHERE sessions.id = $1
	`, id).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, oops.Code("SESSION_NOT_FOUND").
			With("session_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session").
			With("session_id", id.String()).
			Wrap(err)
	}
	return userID, nil
}

var _ auth.SessionRepository = (*SessionRepository)(nil)
