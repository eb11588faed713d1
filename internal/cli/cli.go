// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for draftpad.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdServe Command = iota
	CmdAsk
	CmdTransform
	CmdChat
	CmdTUI
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	Backend string
	JSON    bool // Output in JSON format
	Plain   bool // Disable markdown rendering and color

	// Command-specific
	Query      string
	File       string
	Output     string
	Action     string
	Port       int
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `draftpad - local-first writing pad with an AI sidecar

Draftpad is a browser-based text editor backed by a local LLM.

It provides:
  - A distraction-free editor served at http://127.0.0.1:8787
  - An AI chat sidebar and text transforms (proofread, shorten, ...)
  - Token streaming over SSE with instant cancellation
  - Everything stays on your machine (Ollama backend)

Usage:
  draftpad                          Start the editor server (default)
  draftpad serve                    Start the editor server
  draftpad ask "question"           Ask a single question
  draftpad transform <action>       Run a text transform over a file or stdin
  draftpad chat                     Interactive chat in the terminal
  draftpad tui                      Full-screen terminal chat
  draftpad status, s                Show backend status
  draftpad config [show|set|path]   Configuration
  draftpad version                  Show version
  draftpad help                     Show this help

Serve Command:
  draftpad serve                    Serve editor on the configured port
    --port N                        Listen on port N (default: 8787)
    --backend URL                   Generation backend URL
    --model NAME                    Default model for requests

Ask Command:
  draftpad ask "question"           One-shot question, streamed to stdout
    --file PATH, -f PATH            Include a file as document context
    --model NAME, -m NAME           Override the model
    --plain                         No markdown rendering, raw text output

Transform Command:
  draftpad transform <action>       Transform stdin or --file contents
    --file PATH, -f PATH            Read input from file instead of stdin
    --output PATH, -o PATH          Write result to file instead of stdout
    --model NAME, -m NAME           Override the model

  Actions: shorten, lengthen, tabularize, proofread

Chat Command:
  draftpad chat                     Line-based REPL with history
    --model NAME, -m NAME           Start with a specific model

Config Commands:
  draftpad config                   Show current configuration (default)
  draftpad config show              Show current configuration
  draftpad config set <key> <value> Set a configuration value
  draftpad config reset             Reset to default configuration
  draftpad config path              Show configuration file path

  Keys: default_model, server.port, server.rate_limit_rps,
        server.rate_limit_burst, backend.url, backend.model,
        ui.theme, ui.render_markdown, ui.show_stats

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --model NAME    Override default model
  --backend URL   Override backend URL
  --json          Output in JSON format (status, config, version)
  --plain         Disable markdown rendering and color

Examples:
  # Start writing
  draftpad                              Serve the editor and open the browser
  draftpad serve --port 9000            Serve on a different port

  # One-shot questions
  draftpad ask "Is 'affect' right here?"
  draftpad ask "Summarize this" --file draft.md
  draftpad ask "Explain SSE" --plain > notes.txt

  # Transforms
  draftpad transform proofread --file draft.md
  cat draft.md | draftpad transform shorten
  draftpad transform tabularize -f items.txt -o items-table.txt

  # Terminal chat
  draftpad chat                         Interactive REPL
  draftpad chat --model llama3.2:1b     Chat with a smaller model
  draftpad tui                          Full-screen chat interface

  # Configuration and status
  draftpad status                       Check backend health (alias: s)
  draftpad config set backend.model llama3.2:3b
  draftpad config set server.port 9000

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("draftpad version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to serving the editor
	if len(remaining) == 0 {
		return CmdServe, parsedArgs
	}

	// Check first argument for command
	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "serve", "server", "editor":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "transform", "edit":
		parseTransformArgs(&parsedArgs, remaining)
		return CmdTransform, parsedArgs

	case "chat":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "tui":
		return CmdTUI, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - treat it as a question for ask
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		parseAskArgs(&parsedArgs, parsedArgs.Raw)
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--plain":
			parsedArgs.Plain = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--backend":
			if i+1 < len(args) {
				i++
				parsedArgs.Backend = args[i]
			}
		default:
			// Check for --flag=value format
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else if strings.HasPrefix(arg, "--backend=") {
				parsedArgs.Backend = strings.TrimPrefix(arg, "--backend=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-p", "--port":
			if i+1 < len(remaining) {
				i++
				if n, err := strconv.Atoi(remaining[i]); err == nil && n > 0 {
					args.Port = n
				}
			}
		case "--backend":
			if i+1 < len(remaining) {
				i++
				args.Backend = remaining[i]
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--port=") {
				if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--port=")); err == nil && n > 0 {
					args.Port = n
				}
			} else if strings.HasPrefix(arg, "--backend=") {
				args.Backend = strings.TrimPrefix(arg, "--backend=")
			} else if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			}
		}
	}
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--plain":
			args.Plain = true
		default:
			// Check for --file=value or --model=value format
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseTransformArgs parses transform command specific arguments.
// The first positional argument is the action name.
func parseTransformArgs(args *Args, remaining []string) {
	var positional []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "-o", "--output":
			if i+1 < len(remaining) {
				i++
				args.Output = remaining[i]
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if strings.HasPrefix(arg, "--output=") {
				args.Output = strings.TrimPrefix(arg, "--output=")
			} else if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if !strings.HasPrefix(arg, "-") {
				positional = append(positional, arg)
			}
		}
		i++
	}

	if len(positional) > 0 {
		args.Action = positional[0]
	}
}

// parseChatArgs parses chat command specific arguments.
func parseChatArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			}
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		resp := NewJSONResponse("version", data)
		resp.Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
