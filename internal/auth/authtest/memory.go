// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

// Package authtest provides an in-memory credential store for tests.
package authtest

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/latchkey/latchkey/internal/auth"
)

// Store keeps users, credentials and sessions in memory. It implements
// auth.Transactor and hands out the three repositories.
//
// Transactions are serialized and rolled back by restoring a snapshot.
// Reads outside a transaction may observe uncommitted writes.
type Store struct {
	txMu sync.Mutex

	mu          sync.Mutex
	users       map[uuid.UUID]auth.User
	credentials map[string]auth.Credential
	sessions    map[uuid.UUID]auth.Session

	commits   int
	rollbacks int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:       make(map[uuid.UUID]auth.User),
		credentials: make(map[string]auth.Credential),
		sessions:    make(map[uuid.UUID]auth.Session),
	}
}

// InTransaction implements auth.Transactor.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	users, creds, sessions := maps.Clone(s.users), maps.Clone(s.credentials), maps.Clone(s.sessions)
	s.mu.Unlock()

	defer func() {
		p := recover()
		if err == nil && p == nil {
			s.mu.Lock()
			s.commits++
			s.mu.Unlock()
			return
		}
		s.mu.Lock()
		s.users, s.credentials, s.sessions = users, creds, sessions
		s.rollbacks++
		s.mu.Unlock()
		if p != nil {
			panic(p)
		}
	}()

	return fn(ctx)
}

// Users returns the user repository.
func (s *Store) Users() auth.UserRepository { return userRepo{s} }

// Credentials returns the credential repository.
func (s *Store) Credentials() auth.CredentialRepository { return credentialRepo{s} }

// Sessions returns the session repository.
func (s *Store) Sessions() auth.SessionRepository { return sessionRepo{s} }

// Commits returns how many transactions committed.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks returns how many transactions rolled back.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// UserCount returns the number of stored users.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Credential returns the stored credential for email.
func (s *Store) Credential(email string) (auth.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[email]
	return c, ok
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, username string) (uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := uuid.New()
	r.s.users[id] = auth.User{ID: id, Username: username}
	return id, nil
}

type credentialRepo struct{ s *Store }

func (r credentialRepo) GetByEmail(_ context.Context, email string) (*auth.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.credentials[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &c, nil
}

func (r credentialRepo) Create(_ context.Context, cred *auth.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.credentials[cred.Email]; ok {
		return auth.ErrUserAlreadyExists
	}
	r.s.credentials[cred.Email] = *cred
	return nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := uuid.New()
	r.s.sessions[id] = auth.Session{ID: id, UserID: userID}
	return id, nil
}

func (r sessionRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.sessions[id]
	delete(r.s.sessions, id)
	return ok, nil
}

func (r sessionRepo) UserForSession(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return uuid.Nil, auth.ErrNotFound
	}
	if _, ok := r.s.users[sess.UserID]; !ok {
		return uuid.Nil, auth.ErrNotFound
	}
	return sess.UserID, nil
}

// NewService wires a Service over store with the given hasher and checker.
func NewService(store *Store, hasher auth.PasswordHasher, strength auth.StrengthChecker) (*auth.Service, error) {
	return auth.NewService(auth.ServiceDeps{ //nolint:wrapcheck // test helper
		Transactor:  store,
		Users:       store.Users(),
		Credentials: store.Credentials(),
		Sessions:    store.Sessions(),
		Hasher:      hasher,
		Strength:    strength,
	})
}

// FastHasher returns an argon2id hasher with minimal cost for tests.
func FastHasher() *auth.Argon2idHasher {
	return auth.NewArgon2idHasherWithParams(auth.Argon2Params{MemoryKiB: 64, Iterations: 1, Parallelism: 1})
}

var _ auth.Transactor = (*Store)(nil)
