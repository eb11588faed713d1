// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for draftpad.
//
// Reports editor server health, backend reachability, and model
// inventory. When the server is running its own health surfaces are
// used; otherwise the backend is probed directly.
//
// Command: status
// Short:   Show server and backend status
// Aliases: s
//
// Examples:
//   draftpad status
//   draftpad status --json
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/draftpad/internal/config"
	"github.com/jeranaias/draftpad/internal/ollama"
	"github.com/jeranaias/draftpad/internal/session"
	"github.com/jeranaias/draftpad/internal/util"
)

// statusProbeTimeout bounds each health probe the status command issues.
const statusProbeTimeout = 3 * time.Second

// =============================================================================
// STATUS REPORT
// =============================================================================

// statusReport aggregates the probes behind the status command so the text
// and JSON paths render from the same data.
type statusReport struct {
	relayRunning bool
	relayVersion string

	backendReachable bool
	modelCount       int

	models      []string
	modelStatus string // "available", "not_downloaded", "unknown"
}

// collectStatus probes the editor server and the backend.
func collectStatus(cfg *config.Config) statusReport {
	report := statusReport{modelStatus: "unknown"}

	// Editor server first; when it is up, backend reachability is read
	// through it so the report reflects what the web app experiences.
	relay := session.NewClient(relayBaseURL(cfg))
	{
		ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
		health, err := relay.Health(ctx)
		cancel()
		if err == nil {
			report.relayRunning = true
			report.relayVersion = health.Version
		}
	}

	if report.relayRunning {
		ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
		ping, err := relay.Ping(ctx)
		cancel()
		if err == nil && ping.OK {
			report.backendReachable = true
			report.modelCount = ping.ModelsAvailable
		}
	}

	// Direct backend probe: the fallback when no server is running, and
	// the only way to get the actual model names.
	backend := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: cfg.Backend.URL,
		Timeout: statusProbeTimeout,
	})

	if !report.relayRunning {
		ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
		ping := backend.Ping(ctx)
		cancel()
		report.backendReachable = ping.OK
		report.modelCount = ping.ModelCount
	}

	if report.backendReachable {
		ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
		models, err := backend.ListModels(ctx)
		cancel()
		if err == nil {
			report.modelStatus = "not_downloaded"
			configured := cfg.Model()
			for _, m := range models {
				report.models = append(report.models, m.Name)
				if m.Name == configured || strings.HasPrefix(m.Name, configured+":") {
					report.modelStatus = "available"
				}
			}
			report.modelCount = len(models)
		}
	}

	return report
}

// =============================================================================
// HANDLE STATUS
// =============================================================================

// HandleStatus reports server health, backend reachability, and models.
func HandleStatus(args Args) error {
	cfg := config.Global()
	report := collectStatus(cfg)

	if args.JSON {
		return NewJSONResponse("status", StatusData{
			Backend: StatusBackendInfo{
				URL:         cfg.Backend.URL,
				Reachable:   report.backendReachable,
				Model:       cfg.Model(),
				ModelStatus: report.modelStatus,
				Models:      report.models,
			},
			Editor: StatusEditorInfo{
				Running:        report.relayRunning,
				Version:        report.relayVersion,
				Port:           cfg.Server.Port,
				RateLimitRPS:   cfg.Server.RateLimitRPS,
				RateLimitBurst: cfg.Server.RateLimitBurst,
			},
		}).Print()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("draftpad Status"))
	fmt.Println(RenderSeparator())
	fmt.Println()

	fmt.Println(SectionStyle.Render("Editor server"))
	fmt.Println(formatServerStatus(cfg, report))
	fmt.Println()

	fmt.Println(SectionStyle.Render("Backend"))
	fmt.Println(formatBackendStatus(cfg, report))
	fmt.Println()

	return nil
}

// formatServerStatus renders the editor server section.
func formatServerStatus(cfg *config.Config, report statusReport) string {
	var lines []string

	if report.relayRunning {
		state := "Running"
		if report.relayVersion != "" {
			state = fmt.Sprintf("Running (v%s)", report.relayVersion)
		}
		lines = append(lines, fmt.Sprintf("  %s%s",
			LabelStyle.Render("Server:"),
			SuccessStyle.Render(state)))
	} else {
		lines = append(lines, fmt.Sprintf("  %s%s",
			LabelStyle.Render("Server:"),
			WarningStyle.Render("Not running (start with 'draftpad serve')")))
	}

	lines = append(lines, fmt.Sprintf("  %s%s",
		LabelStyle.Render("URL:"),
		ValueStyle.Render(relayBaseURL(cfg))))
	lines = append(lines, fmt.Sprintf("  %s%s",
		LabelStyle.Render("Rate limit:"),
		ValueStyle.Render(fmt.Sprintf("%.1f req/s (burst %d)",
			cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))))

	return strings.Join(lines, "\n")
}

// formatBackendStatus renders the backend section.
func formatBackendStatus(cfg *config.Config, report statusReport) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("  %s%s",
		LabelStyle.Render("URL:"),
		ValueStyle.Render(cfg.Backend.URL)))

	if report.backendReachable {
		lines = append(lines, fmt.Sprintf("  %s%s",
			LabelStyle.Render("Status:"),
			SuccessStyle.Render("Running")))
	} else {
		lines = append(lines, fmt.Sprintf("  %s%s",
			LabelStyle.Render("Status:"),
			ErrorStyle.Render("Not running (is Ollama running?)")))
	}

	model := cfg.Model()
	switch report.modelStatus {
	case "available":
		lines = append(lines, fmt.Sprintf("  %s%s",
			LabelStyle.Render("Model:"),
			ValueStyle.Render(fmt.Sprintf("%s (available)", model))))
	case "not_downloaded":
		lines = append(lines, fmt.Sprintf("  %s%s",
			LabelStyle.Render("Model:"),
			WarningStyle.Render(fmt.Sprintf("%s (not downloaded - run 'ollama pull %s')", model, model))))
	default:
		lines = append(lines, fmt.Sprintf("  %s%s",
			LabelStyle.Render("Model:"),
			DimStyle.Render(model)))
	}

	if report.backendReachable {
		lines = append(lines, fmt.Sprintf("  %s%s",
			LabelStyle.Render("Models:"),
			ValueStyle.Render(fmt.Sprintf("%d installed", report.modelCount))))
		if len(report.models) > 0 {
			lines = append(lines, fmt.Sprintf("  %s%s",
				LabelStyle.Render(""),
				DimStyle.Render(util.TruncateWidth(strings.Join(report.models, ", "), 60))))
		}
	}

	return strings.Join(lines, "\n")
}
