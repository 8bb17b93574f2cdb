// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Domain errors returned by the workflows. Their text is shown to clients.
var (
	ErrUserAlreadyExists    = errors.New("User already exists")
	ErrMissingCredential    = errors.New("Missing credential")
	ErrWeakPassword         = errors.New("Password is too weak")
	ErrWrongLoginOrPassword = errors.New("Incorrect email or password")
	ErrInvalidSession       = errors.New("Invalid or expired session")
)

// UnexpectedMessage is the only text a client sees for an unexpected failure.
const UnexpectedMessage = "Unexpected server error"

// Kind classifies a workflow error.
type Kind uint8

// Error kinds. KindUnexpected is the zero value so that anything unknown
// degrades to the generic response.
const (
	KindUnexpected Kind = iota
	KindUserAlreadyExists
	KindMissingCredential
	KindWeakPassword
	KindWrongLoginOrPassword
	KindInvalidSession
)

// Kinds lists every error kind.
func Kinds() []Kind {
	return []Kind{
		KindUnexpected,
		KindUserAlreadyExists,
		KindMissingCredential,
		KindWeakPassword,
		KindWrongLoginOrPassword,
		KindInvalidSession,
	}
}

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnexpected:
		return "unexpected"
	case KindUserAlreadyExists:
		return "user_already_exists"
	case KindMissingCredential:
		return "missing_credential"
	case KindWeakPassword:
		return "weak_password"
	case KindWrongLoginOrPassword:
		return "wrong_login_or_password"
	case KindInvalidSession:
		return "invalid_session"
	default:
		return "unknown"
	}
}

// Message returns the client-facing message for the kind.
func (k Kind) Message() string {
	switch k {
	case KindUserAlreadyExists:
		return ErrUserAlreadyExists.Error()
	case KindMissingCredential:
		return ErrMissingCredential.Error()
	case KindWeakPassword:
		return ErrWeakPassword.Error()
	case KindWrongLoginOrPassword:
		return ErrWrongLoginOrPassword.Error()
	case KindInvalidSession:
		return ErrInvalidSession.Error()
	case KindUnexpected:
		return UnexpectedMessage
	default:
		return UnexpectedMessage
	}
}

// KindOf classifies err. Errors that do not wrap a domain sentinel are
// KindUnexpected.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUserAlreadyExists):
		return KindUserAlreadyExists
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, ErrWeakPassword):
		return KindWeakPassword
	case errors.Is(err, ErrWrongLoginOrPassword):
		return KindWrongLoginOrPassword
	case errors.Is(err, ErrInvalidSession):
		return KindInvalidSession
	default:
		return KindUnexpected
	}
}

// unexpected wraps an infrastructure failure at the point it enters a workflow.
func unexpected(operation string, err error) error {
	return oops.Code("AUTH_UNEXPECTED").With("operation", operation).Wrap(err)
}
