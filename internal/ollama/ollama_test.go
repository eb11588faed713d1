// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local inference backend.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func collectChunks(t *testing.T, body string) ([]StreamChunk, error) {
	t.Helper()
	reader := NewStreamReader(strings.NewReader(body))
	var chunks []StreamChunk
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		chunks = append(chunks, chunk)
	})
	return chunks, err
}

func TestStreamReader_WellFormed(t *testing.T) {
	body := `{"model":"llama3.2","response":"Hi","done":false}` + "\n" +
		`{"response":" there","done":false}` + "\n" +
		`{"response":"!","done":false}` + "\n" +
		`{"response":"","done":true,"eval_count":3,"eval_duration":1000000000}` + "\n"

	chunks, err := collectChunks(t, body)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	var text strings.Builder
	for _, c := range chunks {
		text.WriteString(c.Content)
	}
	if text.String() != "Hi there!" {
		t.Errorf("accumulated = %q, want %q", text.String(), "Hi there!")
	}

	last := chunks[len(chunks)-1]
	if !last.Done {
		t.Error("final chunk should have Done set")
	}
	if last.EvalCount != 3 {
		t.Errorf("EvalCount = %d, want 3", last.EvalCount)
	}
	if last.Model != "llama3.2" {
		t.Errorf("Model = %q, want llama3.2 (tracked from first record)", last.Model)
	}
}

func TestStreamReader_DropsMalformedLines(t *testing.T) {
	body := `{"response":"A","done":false}` + "\n" +
		`{"respo` + "\n" + // split record fragment
		`not json at all` + "\n" +
		`{"response":"B","done":false}` + "\n" +
		`{"done":true}` + "\n"

	chunks, err := collectChunks(t, body)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	var text strings.Builder
	for _, c := range chunks {
		text.WriteString(c.Content)
	}
	if text.String() != "AB" {
		t.Errorf("accumulated = %q, want %q (malformed lines silently dropped)", text.String(), "AB")
	}
}

func TestStreamReader_SkipsBlankLines(t *testing.T) {
	body := "\n\n" + `{"response":"x","done":false}` + "\n\n" + `{"done":true}` + "\n"

	chunks, err := collectChunks(t, body)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Errorf("chunk count = %d, want 2", len(chunks))
	}
}

func TestStreamReader_EOFWithoutDone(t *testing.T) {
	// A severed upstream ends without a done record; stream ends cleanly
	// with whatever content arrived.
	body := `{"response":"partial","done":false}` + "\n"

	chunks, err := collectChunks(t, body)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "partial" {
		t.Errorf("chunks = %+v, want single partial chunk", chunks)
	}
}

func TestStreamReader_FinalLineWithoutNewline(t *testing.T) {
	body := `{"response":"a","done":false}` + "\n" + `{"done":true}` // no trailing \n

	chunks, err := collectChunks(t, body)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(chunks) != 2 || !chunks[1].Done {
		t.Errorf("chunks = %+v, want content chunk then done chunk", chunks)
	}
}

func TestStreamReader_InlineError(t *testing.T) {
	body := `{"response":"ok so far","done":false}` + "\n" +
		`{"error":"model exploded"}` + "\n"

	_, err := collectChunks(t, body)
	if err == nil {
		t.Fatal("expected error from inline error record")
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) || clientErr.Type != ErrTypeBackend {
		t.Errorf("err = %v, want ClientError with ErrTypeBackend", err)
	}
	if !strings.Contains(err.Error(), "model exploded") {
		t.Errorf("err = %v, want backend message preserved", err)
	}
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func newTestClient(baseURL string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		DefaultModel: "test-model",
	})
}

func TestGenerateStream_RelaysTokensInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		var req GenerateRequest
		if err := jsonDecode(r, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Error("request should set stream: true")
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want default fallback test-model", req.Model)
		}

		for _, tok := range []string{"Hi", " there", "!"} {
			fmt.Fprintf(w, `{"response":%q,"done":false}`+"\n", tok)
		}
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	var got []string
	err := client.GenerateStream(context.Background(), "", "hello", func(chunk StreamChunk) {
		if chunk.Content != "" {
			got = append(got, chunk.Content)
		}
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}
	if strings.Join(got, "") != "Hi there!" {
		t.Errorf("tokens = %v, want Hi/ there/!", got)
	}
}

func TestGenerateStream_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.GenerateStream(context.Background(), "nope", "hi", func(StreamChunk) {})
	if !IsModelNotFound(err) {
		t.Errorf("err = %v, want model-not-found", err)
	}
}

func TestGenerateStream_BackendErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"out of memory"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.GenerateStream(context.Background(), "m", "hi", func(StreamChunk) {})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("err = %v, want backend error message surfaced", err)
	}
}

func TestGenerateStream_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately: nothing listening

	client := newTestClient(srv.URL)
	err := client.GenerateStream(context.Background(), "m", "hi", func(StreamChunk) {})
	if !IsNotRunning(err) {
		t.Errorf("err = %v, want not-running", err)
	}
}

func TestGenerateStream_ContextCancelMidStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"response":"first","done":false}`)
		flusher.Flush()
		// Hold the stream open until the client goes away.
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(srv.URL)
	err := client.GenerateStream(ctx, "m", "hi", func(chunk StreamChunk) {
		if chunk.Content == "first" {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[{"name":"llama3.2:3b"},{"name":"qwen2.5:7b"}]}`)
	}))
	defer srv.Close()

	result := newTestClient(srv.URL).Ping(context.Background())
	if !result.OK {
		t.Error("Ping.OK = false, want true")
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if result.ModelCount != 2 {
		t.Errorf("ModelCount = %d, want 2", result.ModelCount)
	}
}

func TestPing_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	result := newTestClient(srv.URL).Ping(context.Background())
	if result.OK {
		t.Error("Ping.OK = true for dead backend, want false")
	}
	if result.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for unreachable backend", result.StatusCode)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[{"name":"llama3.2:3b","size":2019393189}]}`)
	}))
	defer srv.Close()

	models, err := newTestClient(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 1 || models[0].Name != "llama3.2:3b" {
		t.Errorf("models = %+v, want single llama3.2:3b", models)
	}
}

// =============================================================================
// ERROR TYPE TESTS
// =============================================================================

func TestErrorHelpers(t *testing.T) {
	if !IsNotRunning(ErrNotRunning) {
		t.Error("IsNotRunning(ErrNotRunning) = false")
	}
	if !IsModelNotFound(ErrModelNotFound) {
		t.Error("IsModelNotFound(ErrModelNotFound) = false")
	}
	if !IsTimeout(ErrTimeout) {
		t.Error("IsTimeout(ErrTimeout) = false")
	}

	wrapped := fmt.Errorf("context: %w", ErrModelNotFound)
	if !IsModelNotFound(wrapped) {
		t.Error("IsModelNotFound should see through wrapping")
	}
	if IsNotRunning(wrapped) {
		t.Error("IsNotRunning(wrapped model-not-found) = true")
	}
}

func TestClientError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if want := "request failed: boom"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStreamChunk_TokensPerSecond(t *testing.T) {
	tests := []struct {
		name         string
		evalCount    int
		evalDuration time.Duration
		want         float64
	}{
		{"normal", 100, time.Second, 100.0},
		{"zero duration", 100, 0, 0.0},
		{"fast", 1000, 100 * time.Millisecond, 10000.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunk := StreamChunk{EvalCount: tc.evalCount, EvalDuration: tc.evalDuration}
			got := chunk.TokensPerSecond()
			// Allow small floating point differences
			if tc.want != 0 && (got < tc.want*0.99 || got > tc.want*1.01) {
				t.Errorf("TokensPerSecond() = %f, want %f", got, tc.want)
			}
			if tc.want == 0 && got != 0 {
				t.Errorf("TokensPerSecond() = %f, want 0", got)
			}
		})
	}
}

// jsonDecode decodes a request body into v.
func jsonDecode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
