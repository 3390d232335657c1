package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/codeflow-dev/codeflow/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed openapi.yaml
var rawSpec []byte

// GetSpec parses and validates the embedded OpenAPI document.
var GetSpec = sync.OnceValues(func() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, err
	}
	return doc, nil
})

// Engine defines what the HTTP surface needs from the trace engine.
type Engine interface {
	Execute(ctx context.Context, src domain.Source) (*codeflow.Result, error)
	Validate(code string) error
	Languages() []string
	Canonical(language string) string
	MaxSourceBytes() int
}

// Server serves the one-shot API and mounts the session socket and metrics.
type Server struct {
	Engine Engine

	socket  http.Handler
	metrics http.Handler
	origins []string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithSocket mounts h at GET /ws.
func WithSocket(h http.Handler) Option {
	return func(s *Server) { s.socket = h }
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithAllowedOrigins restricts CORS to origins. Without it every origin is
// allowed.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(server.cors)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Post("/api/execute", server.Execute)
	r.Post("/api/validate", server.Validate)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	if server.socket != nil {
		r.Method(http.MethodGet, "/ws", server.socket)
	}
	return r
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.origins) > 0 {
			origin = r.Header.Get("Origin")
			if !slices.Contains(s.origins, origin) {
				origin = ""
			}
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>codeflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// SourceRequest is the body of /api/execute and /api/validate.
type SourceRequest struct {
	Code     string   `json:"code"`
	Inputs   []string `json:"inputs"`
	Language string   `json:"language"`
}

// ValidationResponse is the body returned by /api/validate.
type ValidationResponse struct {
	Valid  bool   `json:"valid"`
	Error  string `json:"error,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Note   string `json:"note,omitempty"`
}

// Execute handles the POST /api/execute request.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decode(w, r)
	if !ok {
		return
	}

	res, err := s.Engine.Execute(r.Context(), domain.Source{
		Code:     body.Code,
		Inputs:   body.Inputs,
		Language: body.Language,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// Validate handles the POST /api/validate request. Only interpreted
// languages are parsed; every other language is reported valid.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decode(w, r)
	if !ok {
		return
	}

	if s.Engine.Canonical(body.Language) != interpreter.Language {
		s.writeJSON(w, http.StatusOK, ValidationResponse{Valid: true, Note: "Only javascript is parsed; other languages are analyzed statically."})
		return
	}

	err := s.Engine.Validate(body.Code)
	var syntaxErr *domain.SyntaxError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, ValidationResponse{Valid: true})
	case errors.As(err, &syntaxErr):
		s.writeJSON(w, http.StatusOK, ValidationResponse{
			Error:  syntaxErr.Message,
			Line:   syntaxErr.Line,
			Column: syntaxErr.Column,
		})
	default:
		s.fail(w, err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if spec, err := GetSpec(); err == nil && spec.Info != nil {
		apiVersion = spec.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":         "codeflow-http",
		"version":     strings.TrimSpace(codeflow.Version),
		"api_version": apiVersion,
		"languages":   s.Engine.Languages(),
		"limits": map[string]int{
			"max_source_bytes": s.Engine.MaxSourceBytes(),
		},
	})
}

// decode reads a SourceRequest, answering 400 when the body is unusable.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (SourceRequest, bool) {
	// Room for JSON escaping of a source at the size limit.
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.Engine.MaxSourceBytes())*6+4096)

	var body SourceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return body, false
	}
	return body, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrEmptySource) || errors.Is(err, domain.ErrSourceTooLarge) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": session.ErrorMessage(err, s.Engine.MaxSourceBytes())})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
