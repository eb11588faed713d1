// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Serve command implementation for draftpad.
//
// Command: serve
// Short:   Start the editor server
// Aliases: server, editor
//
// Examples:
//   draftpad serve                Serve on the configured port (default 8787)
//   draftpad serve --port 9000    Serve on port 9000
//   draftpad serve --backend http://127.0.0.1:11434
//   draftpad serve --model llama3.2:1b
//
// The server binds to the loopback interface only and serves:
//   - The editor web app at /
//   - The generation relay at /api/ai (SSE)
//   - Backend health at /api/ai-ping
//   - Liveness at /healthz, Prometheus metrics at /metrics
//
// Environment:
//   Variables are read from the process environment and from a .env
//   file in the working directory, if one exists:
//     DRAFTPAD_PORT          Listen port
//     DRAFTPAD_BACKEND_URL   Generation backend URL
//     DRAFTPAD_MODEL         Default model
//
// The configuration file (~/.draftpad/config.toml) is watched while
// the server runs; edits to backend settings apply without a restart.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jeranaias/draftpad/internal/config"
	"github.com/jeranaias/draftpad/internal/ollama"
	"github.com/jeranaias/draftpad/internal/server"
)

// shutdownTimeout bounds how long in-flight streams may take to drain
// after an interrupt before the listener is torn down.
const shutdownTimeout = 5 * time.Second

// HandleServe handles the "serve" command.
// It runs until interrupted (SIGINT/SIGTERM) and shuts down gracefully.
func HandleServe(args Args) error {
	// A .env in the working directory supplements the process environment.
	// Missing file is the normal case and not an error.
	godotenv.Load()

	cfg := config.Global()

	// CLI flags override config and environment
	port := cfg.Server.Port
	if args.Port > 0 {
		port = args.Port
	}
	backendURL := cfg.Backend.URL
	if args.Backend != "" {
		backendURL = args.Backend
	}
	model := cfg.Model()
	if args.Model != "" {
		model = args.Model
	}

	backend := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      backendURL,
		DefaultModel: model,
	})

	srv := server.NewServer(port).
		WithBackend(backend).
		WithDefaultModel(model).
		WithRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	// Hot-reload backend settings while running. Port changes still
	// require a restart; ApplyConfig ignores them.
	watcher, err := config.NewWatcher(func(updated *config.Config) {
		srv.ApplyConfig(updated)
	})
	if err != nil {
		log.Printf("CONFIG_WATCH_UNAVAILABLE | err=%v", err)
	} else if err := watcher.Watch(); err != nil {
		log.Printf("CONFIG_WATCH_UNAVAILABLE | err=%v", err)
	} else {
		defer watcher.Close()
	}

	// Warn early when the backend is down; the server still starts so
	// the editor loads and reports the state per request.
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	result := backend.Ping(pingCtx)
	cancelPing()
	if !result.OK {
		fmt.Fprintf(os.Stderr, "%s backend not reachable at %s (is Ollama running?)\n",
			WarningStyle.Render("[!]"), backendURL)
	}

	if !args.Quiet {
		printServeBanner(port, backendURL, model)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return NewCommandError("serve", "listen", fmt.Sprintf("port %d", port), err)
		}
		return nil

	case sig := <-sigCh:
		log.Printf("SERVER_SIGNAL | signal=%s", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return WrapError(err, "shutdown failed")
		}
		if !args.Quiet {
			fmt.Println(DimStyle.Render("Server stopped."))
		}
		return nil
	}
}

// printServeBanner prints the startup banner with the serving address.
func printServeBanner(port int, backendURL, model string) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("draftpad " + Version))
	fmt.Printf("  %s%s\n",
		LabelStyle.Render("Editor:"),
		HighlightStyle.Render(fmt.Sprintf("http://127.0.0.1:%d", port)))
	fmt.Printf("  %s%s\n",
		LabelStyle.Render("Backend:"),
		ValueStyle.Render(backendURL))
	fmt.Printf("  %s%s\n",
		LabelStyle.Render("Model:"),
		ValueStyle.Render(model))
	fmt.Println()
	fmt.Println(DimStyle.Render("  Press Ctrl+C to stop."))
	fmt.Println()
}
