// draftpad - a local-first writing pad with an AI sidecar.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/draftpad/internal/cli"
	"github.com/jeranaias/draftpad/internal/config"
	"github.com/jeranaias/draftpad/internal/session"
	"github.com/jeranaias/draftpad/internal/ui/chat"
	"github.com/jeranaias/draftpad/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.4.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for the streaming notify bridge
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdServe:
		cli.HandleErrorAndExit(cli.HandleServe(args), args.JSON)
	case cli.CmdAsk:
		cli.HandleErrorAndExit(cli.HandleAsk(args), args.JSON)
	case cli.CmdTransform:
		cli.HandleErrorAndExit(cli.HandleTransform(args), args.JSON)
	case cli.CmdChat:
		cli.HandleErrorAndExit(cli.HandleChat(args), args.JSON)
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdStatus:
		cli.HandleErrorAndExit(cli.HandleStatus(args), args.JSON)
	case cli.CmdConfig:
		cli.HandleErrorAndExit(cli.HandleConfig(args), args.JSON)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		cli.HandleErrorAndExit(cli.HandleServe(args), args.JSON)
	}
}

// runTUI starts the full-screen terminal chat. Like every other client
// surface it talks to the local draftpad server, so the server must be
// running first.
func runTUI(args cli.Args) {
	cfg := config.Global()

	client := session.NewClient(fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: draftpad server not running at %s\n", client.BaseURL())
		fmt.Fprintf(os.Stderr, "Start it with 'draftpad serve' and try again.\n")
		os.Exit(1)
	}

	theme := styles.NewTheme(cfg.UI.Theme)

	modelName := args.Model
	if modelName == "" {
		modelName = cfg.Model()
	}

	// The session notifies from its read loop goroutine; forward updates
	// into the program through the stored reference.
	sess := session.New(client, func(u session.Update) {
		programMu.Lock()
		p := programRef
		programMu.Unlock()
		if p != nil {
			p.Send(chat.StreamUpdateMsg{Update: u})
		}
	})

	m := chat.New(chat.Options{
		Theme:          theme,
		Client:         client,
		Session:        sess,
		ModelName:      modelName,
		RenderMarkdown: cfg.UI.RenderMarkdown && !args.Plain,
		ShowStats:      cfg.UI.ShowStats,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running draftpad: %v\n", err)
		os.Exit(1)
	}
}
