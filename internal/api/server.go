// Package api exposes the grid pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz    liveness and build information
//	POST /v1/grids   raw image body in, JSON result out
//
// Pipeline options come from the query string (?colors=6&category=time) or,
// for the full option set, from a JSON object in the X-Coloriage-Options
// header. Header values win over query values.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/coloriage/pkg/buildinfo"
	"github.com/matzehuels/coloriage/pkg/errors"
	"github.com/matzehuels/coloriage/pkg/io"
	"github.com/matzehuels/coloriage/pkg/pipeline"
)

// OptionsHeader carries JSON-encoded pipeline options.
const OptionsHeader = "X-Coloriage-Options"

// ResultTTL is how long a complete response stays cached.
const ResultTTL = 24 * time.Hour

// Server serves the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	maxBytes int64
	timeout  time.Duration
}

// Config tunes a Server. Zero values select defaults.
type Config struct {
	// MaxBytes bounds the request body.
	MaxBytes int64
	// Timeout bounds one pipeline run.
	Timeout time.Duration
}

// New creates a server backed by runner.
func New(runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = io.DefaultMaxBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Server{runner: runner, logger: logger, maxBytes: cfg.MaxBytes, timeout: cfg.Timeout}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/grids", s.handleGrid)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	img, format, err := io.DecodeImage(r.Body, s.maxBytes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	hash := pipeline.ImageHash(img)
	keyOpts := opts
	keyOpts.Refresh = false
	key := s.runner.Keyer.ResultKey(hash, keyOpts)
	if !opts.Refresh {
		if data, hit, err := s.runner.Cache.Get(ctx, key); err == nil && hit {
			w.Header().Set("X-Cache", "hit")
			writeRaw(w, http.StatusOK, data)
			return
		}
	}

	res, err := s.runner.Execute(ctx, img, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("grid generated",
		"request_id", requestIDFrom(r.Context()),
		"format", format,
		"regions", len(res.Regions))

	data, err := json.Marshal(res)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode result"))
		return
	}
	if err := s.runner.Cache.Set(ctx, key, data, ResultTTL); err != nil {
		s.logger.Warn("cache write failed", "error", err)
	}
	w.Header().Set("X-Cache", "miss")
	writeRaw(w, http.StatusOK, data)
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err):
		status = http.StatusBadRequest
	case stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		return
	}

	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", requestIDFrom(r.Context()), "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Code: code, Message: msg, RequestID: requestIDFrom(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
