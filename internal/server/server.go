// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeranaias/draftpad/internal/config"
	"github.com/jeranaias/draftpad/internal/ollama"
	"github.com/jeranaias/draftpad/internal/prompt"
	"github.com/jeranaias/draftpad/internal/util"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8787

	// MaxRequestBodySize is the maximum size for request body to prevent DoS (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// DefaultRateLimitRPS is the default per-IP request rate for API routes.
	DefaultRateLimitRPS = 5

	// DefaultRateLimitBurst is the default per-IP burst for API routes.
	DefaultRateLimitBurst = 10
)

// Version is the relay version reported by /healthz and the startup log.
// Overridden at build time via -ldflags.
var Version = "1.0.0"

// Stream sentinels. Tokens travel as plain data events; these two markers are
// the only in-band control values, so any generated text that happens to
// start with them would be misread by clients. Acceptable for a local tool;
// the markers are unusual enough in prose.
const (
	doneEvent        = "[DONE]"
	errorEventPrefix = "[Error]"
)

// ============================================================================
// SERVER
// ============================================================================

// Server is the local relay between editor clients and the inference backend.
// It serves the embedded browser app, streams generations over SSE, and
// exposes health and metrics surfaces.
type Server struct {
	port   int
	router *http.ServeMux
	server *http.Server

	backend      *ollama.Client
	defaultModel string

	rateRPS   float64
	rateBurst int

	// mu guards backend and defaultModel, which config hot-reload swaps
	// while streams are in flight.
	mu sync.RWMutex
}

// NewServer creates a new Server with the specified port.
// If port is 0, the default port (8787) is used.
func NewServer(port int) *Server {
	if port == 0 {
		port = DefaultPort
	}

	backend := ollama.NewClient()

	s := &Server{
		port:         port,
		router:       http.NewServeMux(),
		backend:      backend,
		defaultModel: backend.DefaultModel(),
		rateRPS:      DefaultRateLimitRPS,
		rateBurst:    DefaultRateLimitBurst,
	}

	s.setupRoutes()
	return s
}

// WithBackend sets a custom backend client.
func (s *Server) WithBackend(client *ollama.Client) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = client
	s.defaultModel = client.DefaultModel()
	return s
}

// WithDefaultModel sets the model used when a request names none.
func (s *Server) WithDefaultModel(model string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if model != "" {
		s.defaultModel = model
	}
	return s
}

// WithRateLimit sets the per-IP admission rate for API routes.
// Takes effect when the handler chain is built, so call before Start.
func (s *Server) WithRateLimit(rps float64, burst int) *Server {
	if rps > 0 {
		s.rateRPS = rps
	}
	if burst > 0 {
		s.rateBurst = burst
	}
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// ApplyConfig adopts the hot-reloadable parts of a freshly loaded config:
// backend URL and default model. Streams already in flight keep the client
// they started with; rate-limit settings bind at Start and need a restart.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Backend.URL != s.backend.BaseURL() {
		s.backend = ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.Backend.URL,
			DefaultModel: cfg.Model(),
		})
	}
	s.defaultModel = cfg.Model()

	log.Printf("CONFIG_APPLIED | backend=%s model=%s", cfg.Backend.URL, s.defaultModel)
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Relay endpoints
	s.router.HandleFunc("POST /api/ai", s.handleGenerate)
	s.router.HandleFunc("GET /api/ai-ping", s.handlePing)

	// Health and metrics endpoints
	s.router.HandleFunc("GET /healthz", s.handleHealthz)
	s.router.Handle("GET /metrics", promhttp.Handler())

	// Embedded browser app
	s.router.Handle("GET /", s.webHandler())
}

// ============================================================================
// GENERATE HANDLER
// ============================================================================

// handleGenerate handles POST /api/ai: the streaming relay.
//
// The response is an SSE stream committed with status 200 before the request
// body is even parsed. From that point every failure travels in-band as a
// single [Error] event, so clients deal with exactly one response shape.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	reqID := shortID(RequestIDFrom(r.Context()))

	// Set SSE headers and commit the stream before any backend contact
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	// Generations can outlast the server write timeout; clear the deadline
	// for this response only. Writers that lack deadline support (test
	// recorders) make this a no-op.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	var req prompt.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := "invalid request body"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			msg = fmt.Sprintf("request body exceeds %d bytes", int64(MaxRequestBodySize))
		}
		log.Printf("GENERATE_REJECTED | id=%s reason=decode err=%v", reqID, err)
		generateRequests.WithLabelValues(outcomeRejected).Inc()
		writeErrorEvent(w, flusher, msg)
		return
	}

	if err := prompt.Validate(req); err != nil {
		log.Printf("GENERATE_REJECTED | id=%s reason=validation err=%v", reqID, err)
		generateRequests.WithLabelValues(outcomeRejected).Inc()
		writeErrorEvent(w, flusher, err.Error())
		return
	}

	s.mu.RLock()
	backend := s.backend
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}
	s.mu.RUnlock()

	promptText := prompt.Build(req)

	activeStreams.Inc()
	defer activeStreams.Dec()

	start := time.Now()
	chunks := 0

	// r.Context() ends when the client disconnects; GenerateStream abandons
	// the backend read at that moment and the cancellation propagates
	// upstream through the closed request body.
	ctx := r.Context()
	err := backend.GenerateStream(ctx, model, promptText, func(chunk ollama.StreamChunk) {
		if chunk.Content == "" {
			return
		}
		chunks++
		relayedChunks.Inc()
		writeTokenEvent(w, flusher, chunk.Content)
	})

	duration := time.Since(start)

	switch {
	case ctx.Err() != nil:
		// Client is gone; nothing left to write
		log.Printf("GENERATE_CANCELLED | id=%s model=%s chunks=%d duration=%.3fs",
			reqID, model, chunks, duration.Seconds())
		generateRequests.WithLabelValues(outcomeCancelled).Inc()
	case err != nil:
		log.Printf("GENERATE_ERROR | id=%s model=%s chunks=%d err=%v", reqID, model, chunks, err)
		generateRequests.WithLabelValues(outcomeError).Inc()
		writeErrorEvent(w, flusher, util.SanitizeErrorText(err.Error()))
	default:
		fmt.Fprintf(w, "data: %s\n\n", doneEvent)
		flusher.Flush()
		log.Printf("GENERATE_COMPLETE | id=%s model=%s chunks=%d duration=%.3fs",
			reqID, model, chunks, duration.Seconds())
		generateRequests.WithLabelValues(outcomeCompleted).Inc()
	}
}

// writeTokenEvent emits one SSE event carrying one token. Newlines inside
// the token become additional data: lines within the same event; clients
// rejoin them with "\n", so token text survives byte-for-byte.
func writeTokenEvent(w io.Writer, flusher http.Flusher, token string) {
	for _, line := range strings.Split(token, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
	flusher.Flush()
}

// writeErrorEvent emits the single in-band error event and flushes it.
// msg must be sanitized and newline-free before it gets here.
func writeErrorEvent(w io.Writer, flusher http.Flusher, msg string) {
	fmt.Fprintf(w, "data: %s %s\n\n", errorEventPrefix, msg)
	flusher.Flush()
}

// ============================================================================
// HEALTH HANDLERS
// ============================================================================

// PingResponse is the JSON body of GET /api/ai-ping.
type PingResponse struct {
	OK              bool `json:"ok"`
	Status          int  `json:"status"`
	ModelsAvailable int  `json:"modelsAvailable"`
}

// handlePing handles GET /api/ai-ping: backend reachability for clients.
// An unreachable backend is a valid answer, not an HTTP error.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	backend := s.backend
	s.mu.RUnlock()

	backendPings.Inc()
	result := backend.Ping(r.Context())

	s.writeJSON(w, http.StatusOK, PingResponse{
		OK:              result.OK,
		Status:          result.StatusCode,
		ModelsAvailable: result.ModelCount,
	})
}

// HealthResponse is the JSON body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealthz handles GET /healthz: relay self-health, no backend contact.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Handler returns the full middleware-wrapped handler. Exposed so tests can
// exercise the server without binding a port.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		RequestIDMiddleware(),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(s.rateRPS, s.rateBurst),
	)(s.router)
}

// Start starts the HTTP server. Blocks until the listener fails or Shutdown
// is called, mirroring http.Server.ListenAndServe.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		// WriteTimeout bounds every response except generation streams,
		// which clear their own deadline in handleGenerate.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("SERVER_START | addr=%s version=%s", addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    status,
		},
	})
}
