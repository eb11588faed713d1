// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
// PROMETHEUS METRICS
// ============================================================================

// Generation outcome labels for the request counter.
const (
	outcomeCompleted = "completed"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
	outcomeRejected  = "rejected"
)

var (
	// generateRequests counts relayed generation requests by final outcome.
	generateRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftpad_generate_requests_total",
			Help: "Total generation requests relayed to the backend, by outcome.",
		},
		[]string{"outcome"},
	)

	// relayedChunks counts individual token events forwarded to clients.
	relayedChunks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "draftpad_relayed_chunks_total",
			Help: "Total stream chunks forwarded to clients.",
		},
	)

	// activeStreams tracks generation streams currently open.
	activeStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "draftpad_active_streams",
			Help: "Number of generation streams currently in flight.",
		},
	)

	// backendPings counts reachability probes issued against the backend.
	backendPings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "draftpad_backend_pings_total",
			Help: "Total reachability probes sent to the backend.",
		},
	)

	// httpRequestsTotal counts HTTP requests by method, path, and status.
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration observes HTTP request latency.
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(generateRequests)
	prometheus.MustRegister(relayedChunks)
	prometheus.MustRegister(activeStreams)
	prometheus.MustRegister(backendPings)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
}
