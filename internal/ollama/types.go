// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local inference backend.
package ollama

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateRequest is the request body for the /api/generate endpoint.
type GenerateRequest struct {
	Model  string `json:"model"`  // Model name (e.g., "llama3.2:3b")
	Prompt string `json:"prompt"` // Fully built prompt text
	Stream bool   `json:"stream"` // Always true for the relay
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateResponse is one newline-delimited JSON record from /api/generate.
// Intermediate records carry a fragment in Response; the final record has
// Done set and carries evaluation statistics. Some backends report failures
// inline through the Error field instead of an HTTP status.
type GenerateResponse struct {
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Response  string    `json:"response"`
	Done      bool      `json:"done"`

	// Final-record statistics
	DoneReason    string `json:"done_reason,omitempty"`
	TotalDuration int64  `json:"total_duration,omitempty"` // nanoseconds
	EvalCount     int    `json:"eval_count,omitempty"`
	EvalDuration  int64  `json:"eval_duration,omitempty"` // nanoseconds

	// Inline error reporting
	Error string `json:"error,omitempty"`
}

// ListModelsResponse is the response from /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelInfo describes an available model.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest,omitempty"`
}

// OllamaError is the error response body for non-200 statuses.
type OllamaError struct {
	Error string `json:"error"`
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk is one parsed unit of streamed generation output.
type StreamChunk struct {
	Content string // Text fragment, may be empty on the final record
	Done    bool   // True on the final record
	Model   string // Model that produced the stream

	// Populated on the Done chunk only.
	DoneReason    string
	TotalDuration time.Duration
	EvalCount     int
	EvalDuration  time.Duration
}

// TokensPerSecond computes the generation rate from the final chunk.
// Returns 0 when duration data is missing.
func (c StreamChunk) TokensPerSecond() float64 {
	if c.EvalDuration <= 0 {
		return 0
	}
	return float64(c.EvalCount) / c.EvalDuration.Seconds()
}

// PingResult reports backend reachability for health surfaces.
type PingResult struct {
	OK         bool // Backend responded with HTTP 200
	StatusCode int  // 0 when the backend could not be reached at all
	ModelCount int  // Number of installed models, when reachable
}
