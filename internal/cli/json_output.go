// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output support for scripting.
//
// Provides a standardized JSON output format for CLI commands so
// status and config can be consumed by scripts and editors.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONResponse is the standardized response format for CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
// Human-readable messages should go to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// StatusData represents the data returned by the status command.
type StatusData struct {
	Backend StatusBackendInfo `json:"backend"`
	Editor  StatusEditorInfo  `json:"editor"`
}

// StatusBackendInfo contains backend health information.
type StatusBackendInfo struct {
	URL         string   `json:"url"`
	Reachable   bool     `json:"reachable"`
	Model       string   `json:"model"`
	ModelStatus string   `json:"model_status"` // "available", "not_downloaded", "unknown"
	Models      []string `json:"models,omitempty"`
}

// StatusEditorInfo contains editor server state and configuration.
type StatusEditorInfo struct {
	Running        bool    `json:"running"`
	Version        string  `json:"version,omitempty"`
	Port           int     `json:"port"`
	RateLimitRPS   float64 `json:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst"`
}

// ConfigData represents the data returned by the config show command.
type ConfigData struct {
	DefaultModel string            `json:"default_model"`
	Server       ConfigServerInfo  `json:"server"`
	Backend      ConfigBackendInfo `json:"backend"`
	UI           ConfigUIInfo      `json:"ui"`
	Path         string            `json:"config_path"`
}

// ConfigServerInfo contains relay server configuration.
type ConfigServerInfo struct {
	Port           int     `json:"port"`
	RateLimitRPS   float64 `json:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst"`
}

// ConfigBackendInfo contains backend configuration.
type ConfigBackendInfo struct {
	URL   string `json:"url"`
	Model string `json:"model"`
}

// ConfigUIInfo contains terminal client configuration.
type ConfigUIInfo struct {
	Theme          string `json:"theme"`
	RenderMarkdown bool   `json:"render_markdown"`
	ShowStats      bool   `json:"show_stats"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
