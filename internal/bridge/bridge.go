// Package bridge republishes the MCP tool surface as a plain REST API, for
// callers (workflow engines, dashboards) that speak HTTP but not MCP.
package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/finbridge/investor-agent/internal/tools"
	"github.com/finbridge/investor-agent/pkg/errors"
)

// ServiceName identifies the bridge in status responses.
const ServiceName = "investor-agent-bridge"

// Server serves the REST bridge over a tool registry.
type Server struct {
	tools   *tools.Server
	logger  *log.Logger
	version string
}

// New creates a bridge server. A nil logger falls back to the default.
func New(t *tools.Server, logger *log.Logger, version string) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{tools: t, logger: logger, version: version}
}

// Router builds the HTTP handler with all bridge routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(allowCORS)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/tools", s.handleListTools)
	r.Get("/tools/{name}", s.handleToolInfo)
	r.Post("/call", s.handleCall)
	return r
}

type callRequest struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}

type callResponse struct {
	Success  bool   `json:"success"`
	ToolName string `json:"tool_name"`
	Result   any    `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

type toolList struct {
	Tools []tools.Info `json:"tools"`
	Count int          `json:"count"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Investor Agent Bridge",
		"version": s.version,
		"status":  "running",
		"endpoints": map[string]string{
			"tools":  "/tools",
			"call":   "/call",
			"health": "/health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	infos := s.tools.Tools()
	writeJSON(w, http.StatusOK, toolList{Tools: infos, Count: len(infos)})
}

func (s *Server) handleToolInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, ok := s.tools.Lookup(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "tool " + name + " not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, callResponse{
			Success: false,
			Error:   "malformed request body: " + err.Error(),
			Code:    string(errors.ErrCodeInvalidInput),
		})
		return
	}
	if req.ToolName == "" {
		writeJSON(w, http.StatusBadRequest, callResponse{
			Success: false,
			Error:   "tool_name is required",
			Code:    string(errors.ErrCodeInvalidInput),
		})
		return
	}
	if _, ok := s.tools.Lookup(req.ToolName); !ok {
		writeJSON(w, http.StatusNotFound, callResponse{
			Success:  false,
			ToolName: req.ToolName,
			Error:    "tool " + req.ToolName + " not found",
			Code:     string(errors.ErrCodeNotFound),
		})
		return
	}

	result, err := s.tools.Call(r.Context(), req.ToolName, req.Arguments)
	if err != nil {
		writeJSON(w, statusFor(err), callResponse{
			Success:  false,
			ToolName: req.ToolName,
			Error:    errors.UserMessage(err),
			Code:     string(errors.GetCode(err)),
		})
		return
	}
	writeJSON(w, http.StatusOK, callResponse{
		Success:  true,
		ToolName: req.ToolName,
		Result:   result,
	})
}

// statusFor maps the three surfaced error kinds onto HTTP statuses: caller
// mistakes are 4xx, missing server configuration is 503, and upstream
// failures are 502 so clients can tell them from bridge bugs.
func statusFor(err error) int {
	switch {
	case errors.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeRateLimited):
		return http.StatusTooManyRequests
	case errors.IsConfiguration(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client gone, nothing to do
}

// requestID tags every request with a UUID, echoed in the response header
// and attached to the request logs.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type contextKey struct{ name string }

var requestIDKey = &contextKey{"request-id"}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		id, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// allowCORS opens the bridge to browser-based callers; the surface is
// read-only market data.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
