package taskapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todo/internal/logging"
	"todo/internal/service"
)

// BasePath is the collection path served by Server.
const BasePath = "/api/tasks"

// RequestIDHeader is echoed on every response; a fresh id is assigned when
// the request has none.
const RequestIDHeader = "X-Request-ID"

const maxRequestBody = 1 << 20

// Server is the HTTP task API.
type Server struct {
	repo Repository
	log  *log.Logger
	mux  *http.ServeMux
}

// NewServer creates a Server over repo. A nil logger discards output.
func NewServer(repo Repository, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		repo: repo,
		log:  logger,
		mux:  http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	rec.Header().Set(RequestIDHeader, requestID)

	// Browser clients are served from another origin.
	rec.Header().Set("Access-Control-Allow-Origin", "*")
	s.mux.ServeHTTP(rec, r)

	s.log.Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"request_id", requestID,
		"elapsed", time.Since(start).Round(time.Microsecond),
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET "+BasePath, s.handleList)
	s.mux.HandleFunc("POST "+BasePath, s.handleCreate)
	s.mux.HandleFunc("PUT "+BasePath+"/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE "+BasePath+"/{id}", s.handleDelete)
	s.mux.HandleFunc("OPTIONS "+BasePath, s.handlePreflight)
	s.mux.HandleFunc("OPTIONS "+BasePath+"/{id}", s.handlePreflight)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.repo.List(r.Context())
	if err != nil {
		s.internalError(w, "list", err)
		return
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft service.Draft
	if err := decodeBody(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	t, err := s.repo.Create(r.Context(), draft)
	if err != nil {
		s.internalError(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := service.ID(r.PathValue("id"))
	var t service.Task
	if err := decodeBody(w, r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	updated, err := s.repo.Update(r.Context(), id, t)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found: "+id.String())
		return
	}
	if err != nil {
		s.internalError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := service.ID(r.PathValue("id"))
	err := s.repo.Delete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found: "+id.String())
		return
	}
	if err != nil {
		s.internalError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error("repository error", "op", op, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeBody decodes a single JSON object from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
