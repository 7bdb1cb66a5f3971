package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/joescharf/codereview/internal/models"
	"github.com/joescharf/codereview/internal/review"
)

const (
	// DefaultRequestTimeout bounds how long a handler may run.
	DefaultRequestTimeout = 90 * time.Second
	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 1 << 20

	fallbackOrigin = "http://localhost:3000"
)

// Config tunes the server middleware.
type Config struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Logger         *slog.Logger
	Version        string
}

// Server provides the code review HTTP handlers.
type Server struct {
	review *review.Service
	cfg    Config
	logger *slog.Logger
}

// NewServer creates a new API server backed by svc.
func NewServer(svc *review.Service, cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{review: svc, cfg: cfg, logger: logger}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.root)
	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("POST /api/review", s.reviewCode)
	mux.HandleFunc("POST /api/refactor", s.refactorCode)
	mux.HandleFunc("POST /api/chat", s.chat)

	var h http.Handler = mux
	h = chimiddleware.Timeout(s.cfg.RequestTimeout)(h)
	h = chimiddleware.RequestSize(s.cfg.MaxBodyBytes)(h)
	h = corsMiddleware(h)
	h = s.logRequests(h)
	h = chimiddleware.RequestID(h)
	h = chimiddleware.Recoverer(h)
	return h
}

// allowedOrigin echoes local development origins and pins everything else to
// the default UI origin.
func allowedOrigin(origin string) string {
	if origin == "" {
		return fallbackOrigin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return fallbackOrigin
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		return origin
	}
	return fallbackOrigin
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin(r.Header.Get("Origin")))
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Add("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.Envelope{Success: false, Error: msg})
}

// writeServiceError maps review service errors to status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, review.ErrMissingCode), errors.Is(err, review.ErrMissingMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Meta ---

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Code review API",
		"backend": s.review.Backend(),
		"version": s.cfg.Version,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- Review ---

func (s *Server) reviewCode(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	rep, err := s.review.Review(r.Context(), req.Code, req.Language)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	raw, err := json.Marshal(rep)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Report: raw})
}

func (s *Server) refactorCode(w http.ResponseWriter, r *http.Request) {
	var req models.RefactorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	code, err := s.review.Refactor(r.Context(), req.Code, req.Language)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, RefactoredCode: &code})
}

// --- Chat ---

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reply, err := s.review.Chat(r.Context(), req.SessionID, req.Message, req.Code)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Response: &reply})
}
