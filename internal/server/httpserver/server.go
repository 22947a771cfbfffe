// Package httpserver exposes the storage API over HTTP.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/avelkine/filevault/internal/errs"
	"github.com/avelkine/filevault/internal/service"
)

// tokenHeader carries the opaque session token on protected requests.
const tokenHeader = "X-Token"

// Pinger reports liveness of an external store client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires services into HTTP handlers.
type Server struct {
	auth  service.AuthService
	files service.FileService
	stats service.StatsService
	db    Pinger
	cache Pinger
	log   *zap.Logger
}

// New constructs a server with injected services and store handles.
func New(auth service.AuthService, files service.FileService, stats service.StatsService, db, cache Pinger, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, files: files, stats: stats, db: db, cache: cache, log: log}
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.HandleFunc("POST /users", s.handleRegister)
	mux.HandleFunc("GET /connect", s.handleConnect)
	mux.HandleFunc("GET /disconnect", s.handleDisconnect)
	mux.HandleFunc("GET /users/me", s.withUser(s.handleMe))

	mux.HandleFunc("POST /files", s.withUser(s.handleCreateFile))
	mux.HandleFunc("GET /files", s.withUser(s.handleListFiles))
	mux.HandleFunc("GET /files/{id}", s.withUser(s.handleGetFile))
	mux.HandleFunc("PUT /files/{id}/publish", s.withUser(s.handlePublish(true)))
	mux.HandleFunc("PUT /files/{id}/unpublish", s.withUser(s.handlePublish(false)))
	mux.HandleFunc("GET /files/{id}/data", s.handleFileData)

	return Recover(s.log, Logging(s.log, mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr translates service errors into the API's error taxonomy. Internal
// detail is logged, never exposed.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyExists):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Already exist"})
	case errors.Is(err, errs.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	default:
		s.log.Error("internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
