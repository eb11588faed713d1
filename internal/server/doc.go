// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the local relay between editor clients and the
// inference backend.
//
// The relay serves the embedded browser app, forwards generation requests to
// the backend, and streams tokens back to clients over Server-Sent Events.
// It holds no state across requests beyond its config snapshot and metrics.
//
// # Endpoints
//
//   - POST /api/ai      - Streaming generation relay (SSE)
//   - GET  /api/ai-ping - Backend reachability probe
//   - GET  /healthz     - Relay self-health
//   - GET  /metrics     - Prometheus metrics
//   - GET  /            - Embedded browser app
//
// # Stream Protocol
//
// A generation response commits status 200 and SSE headers before the
// request body is parsed. Tokens travel as data events; a token containing
// newlines spans multiple data: lines within one event. The stream ends with
// a [DONE] terminator on success or a single "[Error] message" event on any
// failure, including validation failures. Client disconnect cancels the
// request context, which aborts the backend read.
//
// # Key Types
//
//   - Server: router, middleware chain, backend client, lifecycle
//   - PingResponse / HealthResponse: JSON bodies of the health surfaces
//
// # Usage
//
//	srv := server.NewServer(8787).
//		WithBackend(client).
//		WithDefaultModel("llama3.2:3b")
//	if err := srv.Start(); err != http.ErrServerClosed {
//		log.Fatal(err)
//	}
package server
