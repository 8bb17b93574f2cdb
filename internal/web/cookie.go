// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package web

import (
	"net/http"

	"github.com/google/uuid"
)

// SessionCookieName is the name of the cookie carrying the session ID.
const SessionCookieName = "session"

// CookieOptions controls the session cookie attributes.
type CookieOptions struct {
	// Secure restricts the cookie to HTTPS.
	Secure bool
}

func (o CookieOptions) session(id uuid.UUID) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (o CookieOptions) cleared() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// sessionToken returns the raw session cookie value and whether the
// cookie was sent.
func sessionToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	return c.Value, true
}
