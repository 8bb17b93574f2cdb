// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/latchkey/latchkey/internal/auth"
)

// maxBodyBytes bounds register and login request bodies.
const maxBodyBytes = 1 << 20

// AuthService is the set of workflows the HTTP layer calls.
type AuthService interface {
	Authenticator
	Register(ctx context.Context, in auth.RegisterInput) (uuid.UUID, error)
	Login(ctx context.Context, in auth.LoginInput) (uuid.UUID, error)
	Logout(ctx context.Context, token string) error
}

// Options configures a Server.
type Options struct {
	Service AuthService
	Cookie  CookieOptions
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// Recorder receives per-request metrics; optional.
	Recorder RequestRecorder
}

// Server holds the HTTP handlers for the auth API.
type Server struct {
	svc      AuthService
	cookie   CookieOptions
	logger   *slog.Logger
	recorder RequestRecorder
}

// NewServer creates a Server. It panics if opts.Service is nil.
func NewServer(opts Options) *Server {
	if opts.Service == nil {
		panic("web: nil auth service")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var recorder RequestRecorder = noopRequestRecorder{}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}
	return &Server{
		svc:      opts.Service,
		cookie:   opts.Cookie,
		logger:   logger.With("component", "web"),
		recorder: recorder,
	}
}

// Handler returns the routed handler wrapped in the middleware pipeline.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.Handle("GET /auth/me", RequireSession(s.svc, s.logger)(http.HandlerFunc(s.handleMe)))
	mux.HandleFunc("/", handleNotFound)

	return withRequestID(withTracing(withAccessLog(s.logger, s.recorder, withRecover(s.logger, mux))))
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	UserID string `json:"userId"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, auth.ErrMissingCredential)
		return
	}

	sessionID, err := s.svc.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	http.SetCookie(w, s.cookie.session(sessionID))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, auth.ErrMissingCredential)
		return
	}

	sessionID, err := s.svc.Login(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	http.SetCookie(w, s.cookie.session(sessionID))
	w.WriteHeader(http.StatusOK)
}

// handleLogout succeeds without touching cookies when none was sent.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.svc.Logout(r.Context(), token); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	http.SetCookie(w, s.cookie.cleared())
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, s.logger, auth.ErrInvalidSession)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{UserID: id.UserID.String()})
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, "Endpoint not found")
}

// decodeJSON reads exactly one JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		//nolint:wrapcheck // mapped to a domain error by the caller
		return err
	}
	if dec.More() {
		return io.ErrUnexpectedEOF
	}
	return nil
}
