// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/latchkey/latchkey/internal/auth"
)

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a user and returns the database-generated ID.
func (r *UserRepository) Create(ctx context.Context, username string) (uuid.UUID, error) {
	var id uuid.UUID
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (username) VALUES ($1) RETURNING id`, username,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return id, nil
}

var _ auth.UserRepository = (*UserRepository)(nil)
