// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/draftpad/internal/config"
	"github.com/jeranaias/draftpad/internal/ollama"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// newBackend starts a fake inference backend and returns an ollama client
// pointed at it. The handler receives every request the relay issues.
func newBackend(t *testing.T, handler http.HandlerFunc) *ollama.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      srv.URL,
		DefaultModel: "test-model",
	})
}

// ndjsonBackend returns a backend that answers /api/generate with the given
// records, one per line, followed by a done record.
func ndjsonBackend(t *testing.T, tokens ...string) *ollama.Client {
	t.Helper()
	return newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		for _, tok := range tokens {
			rec, _ := json.Marshal(ollama.GenerateResponse{Response: tok})
			fmt.Fprintf(w, "%s\n", rec)
		}
		fmt.Fprintln(w, `{"response":"","done":true,"done_reason":"stop"}`)
	})
}

// parseSSE splits a recorded response body into its event payloads, joining
// multi-line data with "\n" the way a conforming client would.
func parseSSE(body string) []string {
	var events []string
	for _, raw := range strings.Split(body, "\n\n") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			if after, ok := strings.CutPrefix(line, "data: "); ok {
				lines = append(lines, after)
			}
		}
		if lines != nil {
			events = append(events, strings.Join(lines, "\n"))
		}
	}
	return events
}

// postGenerate runs one request through the generate handler and returns
// the recorder.
func postGenerate(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/ai", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handleGenerate(w, req)
	return w
}

// =============================================================================
// SERVER CONSTRUCTION TESTS
// =============================================================================

func TestNewServer(t *testing.T) {
	s := NewServer(0)

	if s == nil {
		t.Fatal("NewServer(0) returned nil")
	}

	if s.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", s.Port(), DefaultPort)
	}
}

func TestNewServer_CustomPort(t *testing.T) {
	s := NewServer(9999)

	if s.Port() != 9999 {
		t.Errorf("Port() = %d, want 9999", s.Port())
	}
}

func TestServer_WithBackend(t *testing.T) {
	s := NewServer(0)

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      "http://127.0.0.1:11434",
		DefaultModel: "custom-model",
	})

	s2 := s.WithBackend(client)
	if s2 != s {
		t.Error("WithBackend should return the same server")
	}

	if s.defaultModel != "custom-model" {
		t.Errorf("defaultModel = %q, want 'custom-model'", s.defaultModel)
	}
}

func TestServer_WithDefaultModel(t *testing.T) {
	s := NewServer(0).WithDefaultModel("override")

	if s.defaultModel != "override" {
		t.Errorf("defaultModel = %q, want 'override'", s.defaultModel)
	}

	// Empty string keeps the current model
	s.WithDefaultModel("")
	if s.defaultModel != "override" {
		t.Errorf("defaultModel after empty set = %q, want 'override'", s.defaultModel)
	}
}

func TestServer_WithRateLimit(t *testing.T) {
	s := NewServer(0)

	s.WithRateLimit(2.5, 4)
	if s.rateRPS != 2.5 {
		t.Errorf("rateRPS = %f, want 2.5", s.rateRPS)
	}
	if s.rateBurst != 4 {
		t.Errorf("rateBurst = %d, want 4", s.rateBurst)
	}

	// Zero values keep the current settings
	s.WithRateLimit(0, 0)
	if s.rateRPS != 2.5 || s.rateBurst != 4 {
		t.Errorf("rate settings after zero set = (%f, %d), want (2.5, 4)", s.rateRPS, s.rateBurst)
	}
}

func TestServer_ApplyConfig(t *testing.T) {
	s := NewServer(0)

	cfg := config.Default()
	cfg.Backend.URL = "http://127.0.0.1:12345"
	cfg.Backend.Model = "swapped-model"

	s.ApplyConfig(cfg)

	if s.backend.BaseURL() != "http://127.0.0.1:12345" {
		t.Errorf("backend BaseURL = %q, want 'http://127.0.0.1:12345'", s.backend.BaseURL())
	}
	if s.defaultModel != "swapped-model" {
		t.Errorf("defaultModel = %q, want 'swapped-model'", s.defaultModel)
	}
}

// =============================================================================
// GENERATE HANDLER TESTS
// =============================================================================

func TestHandleGenerate_StreamsTokens(t *testing.T) {
	s := NewServer(0).WithBackend(ndjsonBackend(t, "Hel", "lo", " world"))

	w := postGenerate(s, `{"message": "hi"}`)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want 'text/event-stream'", ct)
	}

	events := parseSSE(w.Body.String())
	want := []string{"Hel", "lo", " world", "[DONE]"}
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(want))
	}
	for i, ev := range events {
		if ev != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, ev, want[i])
		}
	}
}

func TestHandleGenerate_MultilineToken(t *testing.T) {
	s := NewServer(0).WithBackend(ndjsonBackend(t, "line one\nline two"))

	w := postGenerate(s, `{"message": "hi"}`)

	events := parseSSE(w.Body.String())
	if len(events) != 2 {
		t.Fatalf("got %d events %v, want 2", len(events), events)
	}

	// The newline must survive the SSE framing byte-for-byte
	if events[0] != "line one\nline two" {
		t.Errorf("event[0] = %q, want 'line one\\nline two'", events[0])
	}
	if events[1] != doneEvent {
		t.Errorf("event[1] = %q, want %q", events[1], doneEvent)
	}
}

func TestHandleGenerate_InvalidJSON(t *testing.T) {
	s := NewServer(0).WithBackend(ndjsonBackend(t))

	w := postGenerate(s, `{not json`)

	// Parse failures still ride the committed stream, never an HTTP status
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	events := parseSSE(w.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events %v, want 1", len(events), events)
	}
	if !strings.HasPrefix(events[0], errorEventPrefix) {
		t.Errorf("event = %q, want %q prefix", events[0], errorEventPrefix)
	}
	if !strings.Contains(events[0], "invalid request body") {
		t.Errorf("event = %q, want 'invalid request body' mention", events[0])
	}
}

func TestHandleGenerate_NoInput(t *testing.T) {
	s := NewServer(0).WithBackend(ndjsonBackend(t))

	w := postGenerate(s, `{}`)

	events := parseSSE(w.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events %v, want 1", len(events), events)
	}
	if events[0] != "[Error] request needs a message or a selection" {
		t.Errorf("event = %q", events[0])
	}
}

func TestHandleGenerate_AmbiguousInput(t *testing.T) {
	s := NewServer(0).WithBackend(ndjsonBackend(t))

	w := postGenerate(s, `{"message": "hi", "selection": "text"}`)

	events := parseSSE(w.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events %v, want 1", len(events), events)
	}
	if events[0] != "[Error] request must not carry both a message and a selection" {
		t.Errorf("event = %q", events[0])
	}
}

func TestHandleGenerate_OversizeBody(t *testing.T) {
	s := NewServer(0).WithBackend(ndjsonBackend(t))

	body := `{"message": "` + strings.Repeat("a", MaxRequestBodySize+16) + `"}`
	w := postGenerate(s, body)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	events := parseSSE(w.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !strings.Contains(events[0], "request body exceeds") {
		t.Errorf("event = %q, want oversize message", events[0])
	}
}

func TestHandleGenerate_BackendInlineError(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"partial"}`)
		fmt.Fprintln(w, `{"error":"model exploded"}`)
	})
	s := NewServer(0).WithBackend(backend)

	w := postGenerate(s, `{"message": "hi"}`)

	events := parseSSE(w.Body.String())
	if len(events) != 2 {
		t.Fatalf("got %d events %v, want 2", len(events), events)
	}
	if events[0] != "partial" {
		t.Errorf("event[0] = %q, want 'partial'", events[0])
	}
	if events[1] != "[Error] model exploded" {
		t.Errorf("event[1] = %q", events[1])
	}
	if strings.Contains(w.Body.String(), doneEvent) {
		t.Error("error stream must not carry [DONE]")
	}
}

func TestHandleGenerate_BackendDown(t *testing.T) {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: "http://127.0.0.1:1",
	})
	s := NewServer(0).WithBackend(client)

	w := postGenerate(s, `{"message": "hi"}`)

	events := parseSSE(w.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events %v, want 1", len(events), events)
	}
	if events[0] != "[Error] inference backend is not running" {
		t.Errorf("event = %q", events[0])
	}
}

func TestHandleGenerate_ErrorSanitized(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"<internal>\nfailed   badly"}`)
	})
	s := NewServer(0).WithBackend(backend)

	w := postGenerate(s, `{"message": "hi"}`)

	events := parseSSE(w.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events %v, want 1", len(events), events)
	}

	// Markup is stripped and whitespace collapsed before the event is framed
	if events[0] != "[Error] failed badly" {
		t.Errorf("event = %q, want '[Error] failed badly'", events[0])
	}
}

func TestHandleGenerate_ModelSelection(t *testing.T) {
	var mu sync.Mutex
	var gotModel string

	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollama.GenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		gotModel = req.Model
		mu.Unlock()
		fmt.Fprintln(w, `{"response":"ok","done":true}`)
	})
	s := NewServer(0).WithBackend(backend).WithDefaultModel("fallback-model")

	// Request without a model falls back to the server default
	postGenerate(s, `{"message": "hi"}`)
	mu.Lock()
	if gotModel != "fallback-model" {
		t.Errorf("model = %q, want 'fallback-model'", gotModel)
	}
	mu.Unlock()

	// An explicit model wins
	postGenerate(s, `{"message": "hi", "model": "named-model"}`)
	mu.Lock()
	if gotModel != "named-model" {
		t.Errorf("model = %q, want 'named-model'", gotModel)
	}
	mu.Unlock()
}

func TestHandleGenerate_SkipsEmptyChunks(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":""}`)
		fmt.Fprintln(w, `{"response":"only"}`)
		fmt.Fprintln(w, `{"response":""}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
	})
	s := NewServer(0).WithBackend(backend)

	w := postGenerate(s, `{"message": "hi"}`)

	events := parseSSE(w.Body.String())
	want := []string{"only", "[DONE]"}
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %v", len(events), events, want)
	}
	for i, ev := range events {
		if ev != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, ev, want[i])
		}
	}
}

func TestHandleGenerate_ClientDisconnect(t *testing.T) {
	served := make(chan struct{})

	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"Hel"}`)
		w.(http.Flusher).Flush()
		close(served)
		// Hold the stream open until the relay abandons it
		<-r.Context().Done()
	})
	s := NewServer(0).WithBackend(backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-served
		// Give the relay a moment to forward the flushed token
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	req := httptest.NewRequest("POST", "/api/ai", strings.NewReader(`{"message": "hi"}`))
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()
	s.handleGenerate(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "Hel") {
		t.Errorf("body = %q, want relayed token before cancel", body)
	}
	// A cancelled stream ends without a terminator of either kind
	if strings.Contains(body, doneEvent) {
		t.Error("cancelled stream must not carry [DONE]")
	}
	if strings.Contains(body, errorEventPrefix) {
		t.Error("cancelled stream must not carry [Error]")
	}
}

// =============================================================================
// HEALTH HANDLER TESTS
// =============================================================================

func TestHandleHealthz(t *testing.T) {
	s := NewServer(0)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	s.handleHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("Status = %q, want 'ok'", resp.Status)
	}

	if resp.Version != Version {
		t.Errorf("Version = %q, want %q", resp.Version, Version)
	}
}

func TestHandlePing_BackendUp(t *testing.T) {
	backend := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, `{"models":[{"name":"llama3.2:3b"},{"name":"qwen2.5:7b"}]}`)
	})
	s := NewServer(0).WithBackend(backend)

	req := httptest.NewRequest("GET", "/api/ai-ping", nil)
	w := httptest.NewRecorder()

	s.handlePing(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp PingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !resp.OK {
		t.Error("OK = false, want true")
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if resp.ModelsAvailable != 2 {
		t.Errorf("ModelsAvailable = %d, want 2", resp.ModelsAvailable)
	}
}

func TestHandlePing_BackendDown(t *testing.T) {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: "http://127.0.0.1:1",
	})
	s := NewServer(0).WithBackend(client)

	req := httptest.NewRequest("GET", "/api/ai-ping", nil)
	w := httptest.NewRecorder()

	s.handlePing(w, req)

	// An unreachable backend is a valid answer, not an HTTP error
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp PingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.OK {
		t.Error("OK = true, want false")
	}
	if resp.Status != 0 {
		t.Errorf("Status = %d, want 0", resp.Status)
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestChain_Order(t *testing.T) {
	var order []string

	mk := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mk("first"), mk("second"), mk("third"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "third", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRequestIDMiddleware_MintsID(t *testing.T) {
	var seen string

	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if seen == "" {
		t.Error("handler should see a minted request ID")
	}

	if echo := w.Header().Get("X-Request-ID"); echo != seen {
		t.Errorf("X-Request-ID = %q, want %q", echo, seen)
	}
}

func TestRequestIDMiddleware_PropagatesID(t *testing.T) {
	var seen string

	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "caller-supplied" {
		t.Errorf("request ID = %q, want 'caller-supplied'", seen)
	}
}

func TestRequestIDFrom_Absent(t *testing.T) {
	if id := RequestIDFrom(context.Background()); id != "" {
		t.Errorf("RequestIDFrom(empty ctx) = %q, want empty", id)
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a1b2c3d4-e5f6-7890-abcd-ef0123456789", "a1b2c3d4"},
		{"nodashes", "nodashes"},
		{"", ""},
		{"-leading", "-leading"},
	}

	for _, tc := range tests {
		if got := shortID(tc.input); got != tc.want {
			t.Errorf("shortID(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	headers := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'self'",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
	}

	for name, want := range headers {
		if got := w.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestRateLimitMiddleware_Enforced(t *testing.T) {
	handler := RateLimitMiddleware(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(path string) int {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	// Burst of 2, then the bucket is empty
	if code := send("/api/ai-ping"); code != http.StatusOK {
		t.Errorf("request 1 = %d, want 200", code)
	}
	if code := send("/api/ai-ping"); code != http.StatusOK {
		t.Errorf("request 2 = %d, want 200", code)
	}
	if code := send("/api/ai-ping"); code != http.StatusTooManyRequests {
		t.Errorf("request 3 = %d, want 429", code)
	}

	// Non-API routes bypass admission control entirely
	if code := send("/healthz"); code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", code)
	}
}

func TestRateLimitMiddleware_PerIP(t *testing.T) {
	handler := RateLimitMiddleware(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest("GET", "/api/ai-ping", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("10.0.0.1:1111"); code != http.StatusOK {
		t.Errorf("first client = %d, want 200", code)
	}
	if code := send("10.0.0.1:1111"); code != http.StatusTooManyRequests {
		t.Errorf("first client again = %d, want 429", code)
	}

	// A different client gets its own bucket
	if code := send("10.0.0.2:2222"); code != http.StatusOK {
		t.Errorf("second client = %d, want 200", code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr", "192.168.1.5:4567", "", "192.168.1.5"},
		{"remote addr no port", "192.168.1.5", "", "192.168.1.5"},
		{"forwarded single", "10.0.0.1:80", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.7, 10.0.0.2", "203.0.113.7"},
		{"forwarded invalid", "10.0.0.1:80", "not-an-ip", "10.0.0.1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			if got := GetClientIP(req); got != tc.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResponseWriter_CapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)

	if rw.statusCode != http.StatusTeapot {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusTeapot)
	}
}

func TestResponseWriter_DefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.Write([]byte("body"))

	if rw.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusOK)
	}
}

// =============================================================================
// FULL HANDLER TESTS
// =============================================================================

func TestHandler_EndToEndStream(t *testing.T) {
	s := NewServer(0).
		WithBackend(ndjsonBackend(t, "streamed", " reply")).
		WithRateLimit(1000, 1000)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/ai", "application/json",
		strings.NewReader(`{"message": "hi"}`))
	if err != nil {
		t.Fatalf("POST /api/ai failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header should be set")
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want 'text/event-stream'", ct)
	}

	// Read events incrementally the way a streaming client does
	var events []string
	var current []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if current != nil {
				events = append(events, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		if after, ok := strings.CutPrefix(line, "data: "); ok {
			current = append(current, after)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("reading stream: %v", err)
	}

	want := []string{"streamed", " reply", "[DONE]"}
	if len(events) != len(want) {
		t.Fatalf("got events %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestHandler_ServesWebApp(t *testing.T) {
	s := NewServer(0).WithRateLimit(1000, 1000)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}

	page := string(body)
	if !strings.Contains(page, "<title>draftpad</title>") {
		t.Error("index page should carry the draftpad title")
	}
	if !strings.Contains(page, `data-action="proofread"`) {
		t.Error("index page should carry the transform toolbar")
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	s := NewServer(0).WithRateLimit(1000, 1000)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}

	if !strings.Contains(string(body), "draftpad_active_streams") {
		t.Error("metrics output should include the relay gauges")
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	s := NewServer(0).WithRateLimit(1000, 1000)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/healthz", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST /healthz failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

// =============================================================================
// CONSTANT TESTS
// =============================================================================

func TestConstants(t *testing.T) {
	if DefaultPort != 8787 {
		t.Errorf("DefaultPort = %d, want 8787", DefaultPort)
	}

	if MaxRequestBodySize != 1*1024*1024 {
		t.Errorf("MaxRequestBodySize = %d, want 1MB", MaxRequestBodySize)
	}

	if doneEvent != "[DONE]" {
		t.Errorf("doneEvent = %q, want '[DONE]'", doneEvent)
	}

	if errorEventPrefix != "[Error]" {
		t.Errorf("errorEventPrefix = %q, want '[Error]'", errorEventPrefix)
	}
}
