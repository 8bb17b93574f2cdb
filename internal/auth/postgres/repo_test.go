// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latchkey/latchkey/internal/auth"
	"github.com/latchkey/latchkey/pkg/errutil"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

var (
	insertUserSQL       = regexp.QuoteMeta(`INSERT INTO users (username) VALUES ($1) RETURNING id`)
	selectCredentialSQL = `SELECT user_id, email, password\s+FROM credentials\s+WHERE email = \$1`
	insertCredentialSQL = `INSERT INTO credentials \(user_id, email, password\)`
	insertSessionSQL    = regexp.QuoteMeta(`INSERT INTO sessions (user_id) VALUES ($1) RETURNING id`)
	deleteSessionSQL    = regexp.QuoteMeta(`DELETE FROM sessions WHERE id = $1`)
	userForSessionSQL   = `SELECT sessions.user_id\s+FROM sessions\s+JOIN users ON sessions.user_id = users.id\s+WHERE sessions.id = \$1`
)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("returns generated id", func(t *testing.T) {
		mock := newMock(t)
		id := uuid.New()
		mock.ExpectQuery(insertUserSQL).WithArgs("alice").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

		got, err := NewUserRepository(mock).Create(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("wraps database error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(insertUserSQL).WithArgs("alice").
			WillReturnError(errors.New("connection refused"))

		_, err := NewUserRepository(mock).Create(ctx, "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		errutil.AssertErrorCode(t, err, "USER_CREATE_FAILED")
	})
}

func TestCredentialRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, userID uuid.UUID)
		wantErr   error
		wantCode  string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface, userID uuid.UUID) {
				mock.ExpectQuery(selectCredentialSQL).WithArgs("a@x.com").
					WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "password"}).
						AddRow(userID, "a@x.com", "$argon2id$hash"))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface, _ uuid.UUID) {
				mock.ExpectQuery(selectCredentialSQL).WithArgs("a@x.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr:  auth.ErrNotFound,
			wantCode: "CREDENTIAL_NOT_FOUND",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface, _ uuid.UUID) {
				mock.ExpectQuery(selectCredentialSQL).WithArgs("a@x.com").
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: "CREDENTIAL_GET_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			userID := uuid.New()
			tt.setupMock(mock, userID)

			cred, err := NewCredentialRepository(mock).GetByEmail(ctx, "a@x.com")
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Nil(t, cred)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NotErrorIs(t, err, auth.ErrNotFound)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &auth.Credential{UserID: userID, Email: "a@x.com", PasswordHash: "$argon2id$hash"}, cred)
		})
	}
}

func TestCredentialRepository_Create(t *testing.T) {
	ctx := context.Background()
	cred := &auth.Credential{UserID: uuid.New(), Email: "a@x.com", PasswordHash: "$argon2id$hash"}

	t.Run("inserts", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(insertCredentialSQL).WithArgs(cred.UserID, cred.Email, cred.PasswordHash).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewCredentialRepository(mock).Create(ctx, cred))
	})

	t.Run("unique violation maps to user already exists", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(insertCredentialSQL).WithArgs(cred.UserID, cred.Email, cred.PasswordHash).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "credentials_email_key"})

		err := NewCredentialRepository(mock).Create(ctx, cred)
		errutil.AssertSentinel(t, err, auth.ErrUserAlreadyExists, "CREDENTIAL_EMAIL_TAKEN")
	})

	t.Run("other constraint errors stay unexpected", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(insertCredentialSQL).WithArgs(cred.UserID, cred.Email, cred.PasswordHash).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

		err := NewCredentialRepository(mock).Create(ctx, cred)
		errutil.AssertNotSentinel(t, err, auth.ErrUserAlreadyExists, "CREDENTIAL_CREATE_FAILED")
	})
}

func TestSessionRepository_Create(t *testing.T) {
	mock := newMock(t)
	userID, sessionID := uuid.New(), uuid.New()
	mock.ExpectQuery(insertSessionSQL).WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(sessionID))

	got, err := NewSessionRepository(mock).Create(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
}

func TestSessionRepository_Delete(t *testing.T) {
	tests := []struct {
		name        string
		result      pgconn.CommandTag
		err         error
		wantDeleted bool
		wantErr     bool
	}{
		{name: "existing session", result: pgxmock.NewResult("DELETE", 1), wantDeleted: true},
		{name: "missing session", result: pgxmock.NewResult("DELETE", 0), wantDeleted: false},
		{name: "database error", err: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			id := uuid.New()
			exp := mock.ExpectExec(deleteSessionSQL).WithArgs(id)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(tt.result)
			}

			deleted, err := NewSessionRepository(mock).Delete(context.Background(), id)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "SESSION_DELETE_FAILED")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDeleted, deleted)
		})
	}
}

func TestSessionRepository_UserForSession(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		sessionID, userID := uuid.New(), uuid.New()
		mock.ExpectQuery(userForSessionSQL).WithArgs(sessionID).
			WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))

		got, err := NewSessionRepository(mock).UserForSession(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		sessionID := uuid.New()
		mock.ExpectQuery(userForSessionSQL).WithArgs(sessionID).WillReturnError(pgx.ErrNoRows)

		_, err := NewSessionRepository(mock).UserForSession(ctx, sessionID)
		require.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorContext(t, err, "session_id", sessionID.String())
	})

	t.Run("database error", func(t *testing.T) {
		mock := newMock(t)
		sessionID := uuid.New()
		mock.ExpectQuery(userForSessionSQL).WithArgs(sessionID).WillReturnError(errors.New("timeout"))

		_, err := NewSessionRepository(mock).UserForSession(ctx, sessionID)
		errutil.AssertNotSentinel(t, err, auth.ErrNotFound, "SESSION_GET_FAILED")
	})
}
