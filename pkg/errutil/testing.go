// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error whose innermost code is
// code. On mismatch the error's context is printed as well.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code(), "error %q with context %v", err.Error(), oopsErr.Context())
}

// AssertErrorContext asserts that err is an oops error carrying key=value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertSentinel asserts that a repository error both resolves to the
// domain sentinel and carries the storage-level code.
func AssertSentinel(t *testing.T, err, sentinel error, code string) {
	t.Helper()
	require.ErrorIs(t, err, sentinel)
	AssertErrorCode(t, err, code)
}

// AssertNotSentinel asserts that err carries code but does not resolve to
// sentinel, so a storage failure is never reported as a domain outcome.
func AssertNotSentinel(t *testing.T, err, sentinel error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.False(t, errors.Is(err, sentinel), "error %q must not match %q", err, sentinel)
	AssertErrorCode(t, err, code)
}
