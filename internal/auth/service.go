// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Workflow names used for logging and metrics.
const (
	OpRegister     = "register"
	OpLogin        = "login"
	OpLogout       = "logout"
	OpAuthenticate = "authenticate"
)

// OutcomeSuccess is the outcome label recorded for a successful workflow.
const OutcomeSuccess = "success"

// OutcomeRecorder receives one outcome per workflow call.
type OutcomeRecorder interface {
	RecordAuthOutcome(operation, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthOutcome(string, string) {}

// ServiceDeps are the collaborators of a Service. Logger and Recorder are
// optional.
type ServiceDeps struct {
	Transactor  Transactor
	Users       UserRepository
	Credentials CredentialRepository
	Sessions    SessionRepository
	Hasher      PasswordHasher
	Strength    StrengthChecker
	Logger      *slog.Logger
	Recorder    OutcomeRecorder
}

// Service provides the authentication workflows.
type Service struct {
	tx          Transactor
	users       UserRepository
	credentials CredentialRepository
	sessions    SessionRepository
	hasher      PasswordHasher
	strength    StrengthChecker
	logger      *slog.Logger
	recorder    OutcomeRecorder

	// dummyHash is verified when the email is unknown so that login takes
	// the same time whether or not the account exists. It is made by the
	// configured hasher, so it carries the same cost parameters as real
	// credentials, and its password is discarded.
	dummyHash string
}

// NewService creates a Service, validating required dependencies.
func NewService(deps ServiceDeps) (*Service, error) {
	switch {
	case deps.Transactor == nil:
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("transactor is required")
	case deps.Users == nil:
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("users repository is required")
	case deps.Credentials == nil:
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("credentials repository is required")
	case deps.Sessions == nil:
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("sessions repository is required")
	case deps.Hasher == nil:
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("password hasher is required")
	case deps.Strength == nil:
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("strength checker is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var recorder OutcomeRecorder = noopRecorder{}
	if deps.Recorder != nil {
		recorder = deps.Recorder
	}

	dummyHash, err := deps.Hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, oops.Code("AUTH_DUMMY_HASH_FAILED").Wrap(err)
	}

	return &Service{
		tx:          deps.Transactor,
		users:       deps.Users,
		credentials: deps.Credentials,
		sessions:    deps.Sessions,
		hasher:      deps.Hasher,
		strength:    deps.Strength,
		logger:      logger.With("component", "auth"),
		recorder:    recorder,
		dummyHash:   dummyHash,
	}, nil
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput is the payload of a login.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a user, its credential and a first session in one
// transaction and returns the new session ID.
// Empty fields get no special treatment: an empty password is weak.
func (s *Service) Register(ctx context.Context, in RegisterInput) (uuid.UUID, error) {
	var userID, sessionID uuid.UUID
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		_, err := s.credentials.GetByEmail(ctx, in.Email)
		if err == nil {
			return ErrUserAlreadyExists
		}
		if !errors.Is(err, ErrNotFound) {
			return unexpected("get credential by email", err)
		}

		if !s.strength.IsStrong(in.Password, in.Email, in.Username) {
			return ErrWeakPassword
		}

		userID, err = s.users.Create(ctx, in.Username)
		if err != nil {
			return unexpected("insert user", err)
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return unexpected("hash password", err)
		}

		err = s.credentials.Create(ctx, &Credential{UserID: userID, Email: in.Email, PasswordHash: hash})
		if errors.Is(err, ErrUserAlreadyExists) {
			// Lost a race with a concurrent registration of the same email.
			return ErrUserAlreadyExists
		}
		if err != nil {
			return unexpected("insert credential", err)
		}

		sessionID, err = s.sessions.Create(ctx, userID)
		if err != nil {
			return unexpected("insert session", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, s.finish(ctx, OpRegister, err)
	}

	s.logger.DebugContext(ctx, "registered", "user_id", userID.String(), "session_id", sessionID.String())
	s.recorder.RecordAuthOutcome(OpRegister, OutcomeSuccess)
	return sessionID, nil
}

// Login verifies email and password and opens a new session.
// An unknown email and a wrong password produce the same error, and so
// do empty ones.
func (s *Service) Login(ctx context.Context, in LoginInput) (uuid.UUID, error) {
	var userID, sessionID uuid.UUID
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		cred, err := s.credentials.GetByEmail(ctx, in.Email)
		if errors.Is(err, ErrNotFound) {
			// Burn the same hashing time as a real check.
			_, _ = s.hasher.Verify(in.Password, s.dummyHash) //nolint:errcheck // result is irrelevant
			return ErrWrongLoginOrPassword
		}
		if err != nil {
			return unexpected("get credential by email", err)
		}

		ok, err := s.hasher.Verify(in.Password, cred.PasswordHash)
		if err != nil {
			return unexpected("verify password", err)
		}
		if !ok {
			return ErrWrongLoginOrPassword
		}

		userID = cred.UserID
		sessionID, err = s.sessions.Create(ctx, userID)
		if err != nil {
			return unexpected("insert session", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, s.finish(ctx, OpLogin, err)
	}

	s.logger.DebugContext(ctx, "logged in", "user_id", userID.String(), "session_id", sessionID.String())
	s.recorder.RecordAuthOutcome(OpLogin, OutcomeSuccess)
	return sessionID, nil
}

// Logout deletes the session named by token. A token that parses but has
// no session is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	sessionID, err := ParseSessionToken(token)
	if err != nil {
		return s.finish(ctx, OpLogout, err)
	}

	var deleted bool
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.sessions.Delete(ctx, sessionID)
		if err != nil {
			return unexpected("delete session", err)
		}
		return nil
	})
	if err != nil {
		return s.finish(ctx, OpLogout, err)
	}

	s.logger.DebugContext(ctx, "logged out", "session_id", sessionID.String(), "deleted", deleted)
	s.recorder.RecordAuthOutcome(OpLogout, OutcomeSuccess)
	return nil
}

// Authenticate resolves a session token to the identity it belongs to.
// It never creates, extends or deletes a session.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	sessionID, err := ParseSessionToken(token)
	if err != nil {
		return Identity{}, s.finish(ctx, OpAuthenticate, err)
	}

	userID, err := s.sessions.UserForSession(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return Identity{}, s.finish(ctx, OpAuthenticate, ErrInvalidSession)
	}
	if err != nil {
		return Identity{}, s.finish(ctx, OpAuthenticate, unexpected("get session", err))
	}

	s.recorder.RecordAuthOutcome(OpAuthenticate, OutcomeSuccess)
	return Identity{UserID: userID, SessionID: sessionID}, nil
}

// finish records a failed workflow. Domain errors pass through unchanged;
// anything else is tagged AUTH_UNEXPECTED.
func (s *Service) finish(ctx context.Context, op string, err error) error {
	kind := KindOf(err)
	s.recorder.RecordAuthOutcome(op, kind.String())
	if kind != KindUnexpected {
		s.logger.DebugContext(ctx, "request rejected", "operation", op, "reason", kind.String())
		return err
	}
	return oops.Code("AUTH_UNEXPECTED").With("workflow", op).Wrap(err)
}
