// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the client side of the relay protocol.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jeranaias/draftpad/internal/prompt"
)

// Event markers used by the relay inside data payloads.
const (
	doneEvent        = "[DONE]"
	errorEventPrefix = "[Error]"
)

// =============================================================================
// RELAY CLIENT
// =============================================================================

// Client talks to a running relay over its HTTP surface.
type Client struct {
	baseURL string
	// No transport timeout: generation streams run until the backend
	// finishes or the context is cancelled.
	httpClient *http.Client
}

// NewClient creates a relay client for the given base URL,
// e.g. "http://127.0.0.1:8091".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// BaseURL returns the relay base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// STREAM OPENING
// =============================================================================

// Stream is an open event stream for one generation request.
type Stream struct {
	reader *EventReader
	body   io.ReadCloser
}

// ReadEvent returns the next event payload. See EventReader.ReadEvent.
func (s *Stream) ReadEvent() (string, error) {
	return s.reader.ReadEvent()
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.body.Close()
}

// OpenStream POSTs a generation request and returns the open event stream.
// The relay accepts every well-formed POST with status 200 and reports
// failures inside the stream, so a non-200 here means the relay itself is
// absent or misconfigured.
func (c *Client) OpenStream(ctx context.Context, req prompt.Request) (*Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ai", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("relay unreachable: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("relay returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	return &Stream{
		reader: NewEventReader(resp.Body),
		body:   resp.Body,
	}, nil
}

// =============================================================================
// HEALTH SURFACES
// =============================================================================

// PingResponse mirrors the relay's backend-reachability report.
type PingResponse struct {
	OK              bool `json:"ok"`
	Status          int  `json:"status"`
	ModelsAvailable int  `json:"modelsAvailable"`
}

// Ping asks the relay whether the inference backend is reachable.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var result PingResponse
	if err := c.getJSON(ctx, "/api/ai-ping", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HealthResponse mirrors the relay's own health report.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health checks that the relay process itself is up.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	if err := c.getJSON(ctx, "/healthz", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay returned %s for %s", resp.Status, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
