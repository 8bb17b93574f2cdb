// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/latchkey/latchkey/internal/auth"
)

// Authenticator resolves a session token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// RequireSession admits only requests whose session cookie names a live
// session. The resolved auth.Identity is attached to the request context.
// A missing cookie is rejected the same way as an unknown one.
func RequireSession(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := sessionToken(r)
			if !ok {
				writeError(w, r, logger, auth.ErrInvalidSession)
				return
			}

			id, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
