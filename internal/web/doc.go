// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

// Package web exposes the auth workflows over HTTP.
//
// Routes live under /auth. Successful register and login responses set the
// session cookie; RequireSession guards routes that need a signed-in user.
// Every error response is {"errorInfo": "<message>"} with the status
// derived from the auth error kind.
package web
