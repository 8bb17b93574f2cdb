// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

// Package mocks provides testify mocks for the auth interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/latchkey/latchkey/internal/auth"
)

// MockUserRepository is a mock of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock that asserts its expectations on cleanup.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockUserRepository) Create(ctx context.Context, username string) (uuid.UUID, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockCredentialRepository is a mock of auth.CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

// NewMockCredentialRepository creates a mock that asserts its expectations on cleanup.
func NewMockCredentialRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockCredentialRepository {
	m := &MockCredentialRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// GetByEmail provides a mock function.
func (m *MockCredentialRepository) GetByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	args := m.Called(ctx, email)
	var cred *auth.Credential
	if v := args.Get(0); v != nil {
		cred = v.(*auth.Credential)
	}
	return cred, args.Error(1)
}

// Create provides a mock function.
func (m *MockCredentialRepository) Create(ctx context.Context, cred *auth.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

// MockSessionRepository is a mock of auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a mock that asserts its expectations on cleanup.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockSessionRepository) Create(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// Delete provides a mock function.
func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// UserForSession provides a mock function.
func (m *MockSessionRepository) UserForSession(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockPasswordHasher is a mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a mock that asserts its expectations on cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, encodedHash string) (bool, error) {
	args := m.Called(password, encodedHash)
	return args.Bool(0), args.Error(1)
}

// MockStrengthChecker is a mock of auth.StrengthChecker.
type MockStrengthChecker struct {
	mock.Mock
}

// NewMockStrengthChecker creates a mock that asserts its expectations on cleanup.
func NewMockStrengthChecker(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockStrengthChecker {
	m := &MockStrengthChecker{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// IsStrong provides a mock function.
func (m *MockStrengthChecker) IsStrong(password string, userInputs ...string) bool {
	args := m.Called(password, userInputs)
	return args.Bool(0)
}

// MockOutcomeRecorder is a mock of auth.OutcomeRecorder.
type MockOutcomeRecorder struct {
	mock.Mock
}

// NewMockOutcomeRecorder creates a mock that asserts its expectations on cleanup.
func NewMockOutcomeRecorder(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockOutcomeRecorder {
	m := &MockOutcomeRecorder{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// RecordAuthOutcome provides a mock function.
func (m *MockOutcomeRecorder) RecordAuthOutcome(operation, outcome string) {
	m.Called(operation, outcome)
}

var (
	_ auth.UserRepository       = (*MockUserRepository)(nil)
	_ auth.CredentialRepository = (*MockCredentialRepository)(nil)
	_ auth.SessionRepository    = (*MockSessionRepository)(nil)
	_ auth.PasswordHasher       = (*MockPasswordHasher)(nil)
	_ auth.StrengthChecker      = (*MockStrengthChecker)(nil)
	_ auth.OutcomeRecorder      = (*MockOutcomeRecorder)(nil)
)
