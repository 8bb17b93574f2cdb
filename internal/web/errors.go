// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/latchkey/latchkey/internal/auth"
	"github.com/latchkey/latchkey/pkg/errutil"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	ErrorInfo string `json:"errorInfo"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindUserAlreadyExists, auth.KindMissingCredential, auth.KindWeakPassword:
		return http.StatusBadRequest
	case auth.KindWrongLoginOrPassword, auth.KindInvalidSession:
		return http.StatusUnauthorized
	case auth.KindUnexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the client response for err. Unexpected errors are
// logged with their full detail; the client only sees the generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := auth.KindOf(err)
	if kind == auth.KindUnexpected {
		errutil.LogError(r.Context(), logger, "request failed", err)
	}
	writeJSON(w, statusFor(kind), errorBody{ErrorInfo: kind.Message()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
