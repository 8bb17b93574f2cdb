// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

// Package auth implements credential and session authentication.
//
// # Domain Types
//
//   - User - identity row created once at registration
//   - Credential - email and password hash, one per user
//   - Session - server-side record referenced by the session cookie
//   - Identity - what the session guard resolves a cookie to
//
// # Services
//
// Service runs the Register, Login and Logout workflows and the
// Authenticate check used by protected routes. Every workflow runs inside
// a single Transactor.InTransaction call, so all of its statements commit
// together or not at all.
//
// # Errors
//
// Workflow errors belong to a closed set of kinds (see Kind). Domain
// failures are returned as the package sentinels; any storage or hashing
// failure is reported as KindUnexpected and must never reach a client in
// detail.
package auth
