// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local inference backend.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
type StreamReader struct {
	reader *bufio.Reader
	model  string
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each chunk.
// Blocks until the stream is complete or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if chunk != nil {
				callback(*chunk)
				if chunk.Done {
					return nil
				}
			}
		}
	}
}

// readChunk reads and parses a single line from the stream.
// Returns (nil, nil) for lines that should be skipped: blank separators and
// records that fail to parse. A line split across two network reads shows up
// as one malformed fragment and one valid record; dropping the fragment
// loses nothing that later output does not carry, while failing the whole
// stream over it would.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		// Try to process the last line even on EOF
		if len(line) == 0 {
			return nil, err
		}
	}

	// Skip empty lines
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, nil
	}

	var response GenerateResponse
	if err := json.Unmarshal(line, &response); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	// Inline backend failure: terminate the stream with a typed error.
	if response.Error != "" {
		return nil, &ClientError{Type: ErrTypeBackend, Message: response.Error}
	}

	// Track the model
	if response.Model != "" {
		s.model = response.Model
	}

	chunk := &StreamChunk{
		Content: response.Response,
		Done:    response.Done,
		Model:   s.model,
	}

	// On completion, surface the backend's statistics
	if response.Done {
		chunk.DoneReason = response.DoneReason
		chunk.TotalDuration = time.Duration(response.TotalDuration)
		chunk.EvalCount = response.EvalCount
		chunk.EvalDuration = time.Duration(response.EvalDuration)
	}

	return chunk, nil
}

// Model returns the model name observed on the stream, if any.
func (s *StreamReader) Model() string {
	return s.model
}
