// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local inference backend.
//
// The relay talks to an Ollama-compatible server over two endpoints:
// POST /api/generate for streamed text completion and GET /api/tags for
// reachability and model inventory. Generation responses arrive as
// newline-delimited JSON; StreamReader parses them record by record and
// silently drops lines that fail to parse.
//
// # Key Types
//
//   - Client: HTTP client for backend communication
//   - GenerateRequest / GenerateResponse: wire structures for /api/generate
//   - StreamChunk: one parsed unit of streamed output
//   - ClientError: typed error with an ErrorType category
//
// # Usage
//
// Create a client and stream a completion:
//
//	client := ollama.NewClient()
//	err := client.GenerateStream(ctx, "llama3.2", prompt, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Content)
//	})
//
// Check backend reachability:
//
//	ping := client.Ping(ctx)
//	if !ping.OK {
//	    log.Printf("backend unreachable (status %d)", ping.StatusCode)
//	}
//
// Generation requests deliberately use an HTTP client without a timeout:
// completions may legitimately run for minutes and are cancelled through the
// context, never by the transport.
package ollama
