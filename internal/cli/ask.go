// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for draftpad.
//
// Sends one prompt through the running draftpad server and streams the
// response to stdout. On a plain terminal (or with --plain) tokens are
// printed as they arrive; on a TTY the finished response is rendered as
// markdown.
//
// Command: ask [question]
// Short:   Ask a single question
// Aliases: (none)
//
// Examples:
//   draftpad ask "Suggest a better opening sentence"
//   draftpad ask "Review this draft:" --file notes.md
//   cat draft.md | draftpad ask "Tighten this up"
//   draftpad ask --json "List three title ideas"
//
// Flags:
//   -f, --file FILE    Include file content as document context
//   -m, --model NAME   Use specific model (overrides config)
//   --plain            Stream plain text, no markdown rendering
//   --json             Output response as JSON
//   -q, --quiet        Minimal output
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/draftpad/internal/config"
	"github.com/jeranaias/draftpad/internal/prompt"
	"github.com/jeranaias/draftpad/internal/session"
	"github.com/jeranaias/draftpad/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxFileSize is the maximum file size to include as context (50KB).
	MaxFileSize = 50 * 1024

	// relayProbeTimeout bounds the pre-flight health check against the
	// local server before a generation request is issued.
	relayProbeTimeout = 2 * time.Second
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	wrap := GetTerminalWidth()
	if wrap > 80 {
		wrap = 80
	}

	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// RELAY ACCESS
// =============================================================================

// relayBaseURL returns the local server URL for the configured port.
// CLI commands are clients of the running server, same as the browser app.
func relayBaseURL(cfg *config.Config) string {
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
}

// connectRelay builds a client for the local server and verifies the
// server is actually running before any generation request is issued.
func connectRelay(ctx context.Context, cfg *config.Config) (*session.Client, error) {
	client := session.NewClient(relayBaseURL(cfg))

	probeCtx, cancel := context.WithTimeout(ctx, relayProbeTimeout)
	defer cancel()

	if _, err := client.Health(probeCtx); err != nil {
		return nil, fmt.Errorf("draftpad server not running at %s (start it with 'draftpad serve'): %w",
			client.BaseURL(), err)
	}
	return client, nil
}

// =============================================================================
// INPUT HELPERS
// =============================================================================

// readPipedStdin returns piped stdin content, if any. Returns false when
// stdin is an interactive terminal.
func readPipedStdin() (string, bool) {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", false
	}

	data, err := io.ReadAll(io.LimitReader(os.Stdin, MaxFileSize+1))
	if err != nil || len(data) == 0 {
		return "", false
	}
	if len(data) > MaxFileSize {
		data = data[:MaxFileSize]
	}
	return string(data), true
}

// readFileForContext reads a file for inclusion as document context.
// Enforces MaxFileSize to keep prompts within model context windows.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewNotFoundError("file", path)
		}
		return "", fmt.Errorf("failed to access file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return "", NewValidationError("file", path,
			fmt.Sprintf("file too large (%d bytes, max %d)", info.Size(), MaxFileSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return string(data), nil
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// AskData is the JSON payload for a completed ask command.
type AskData struct {
	Response   string `json:"response"`
	Model      string `json:"model"`
	DurationMs int64  `json:"duration_ms"`
}

// HandleAsk sends a single question through the local server and writes
// the response to stdout.
func HandleAsk(args Args) error {
	cfg := config.Global()

	question := strings.TrimSpace(args.Query)
	doc := ""

	// Piped stdin is the question when none was given, document context
	// otherwise: `cat draft.md | draftpad ask "Tighten this up"`.
	if piped, ok := readPipedStdin(); ok {
		if question == "" {
			question = strings.TrimSpace(piped)
		} else {
			doc = piped
		}
	}

	if args.File != "" {
		content, err := readFileForContext(args.File)
		if err != nil {
			if args.JSON {
				NewJSONErrorResponse("ask", err).Print()
			}
			return err
		}
		doc = content
		if !args.Quiet && !args.JSON {
			fmt.Fprintf(os.Stderr, "%s Including file: %s\n", DimStyle.Render("[+]"), args.File)
		}
	}

	if question == "" {
		return NewValidationErrorWithExample("question", "", "a question is required",
			`draftpad ask "Suggest a better opening sentence"`)
	}

	model := args.Model
	if model == "" {
		model = cfg.Model()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := connectRelay(ctx, cfg)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("ask", err).Print()
		}
		return NewCommandError("ask", "connect", "cannot reach the draftpad server", err)
	}

	req := prompt.Request{
		Message: question,
		Doc:     doc,
		Model:   model,
	}
	if err := prompt.Validate(req); err != nil {
		return NewValidationError("question", question, err.Error())
	}

	// Markdown is rendered once the full response is in; raw token
	// streaming would garble glamour's layout.
	useMarkdown := IsStdoutTTY() && !args.JSON && !args.Plain && cfg.UI.RenderMarkdown

	printed := 0
	var onDelta func(delta, text string)
	if !args.JSON && !useMarkdown {
		// Stream the filtered text as it grows; reasoning spans stay off
		// stdout entirely.
		onDelta = func(_, text string) {
			if util.InMetaBlock(text) {
				return
			}
			if printed < len(text) {
				fmt.Print(text[printed:])
				printed = len(text)
			}
		}
	}

	start := time.Now()
	text, err := session.Generate(ctx, client, req, onDelta)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			// Interrupted mid-stream: keep whatever was printed and exit clean.
			fmt.Println()
			if !args.Quiet && !args.JSON {
				fmt.Println(DimStyle.Render("(cancelled)"))
			}
			return nil
		}
		if args.JSON {
			NewJSONErrorResponse("ask", err).Print()
		}
		return NewCommandError("ask", "generate", "generation failed", err)
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Response:   text,
			Model:      model,
			DurationMs: duration.Milliseconds(),
		}).Print()
	}

	if useMarkdown {
		fmt.Print(renderMarkdown(text))
	} else {
		// Streaming printed the text as it grew; anything the stream withheld,
		// including the empty-response placeholder, arrives only here.
		if printed < len(text) {
			fmt.Print(text[printed:])
		}
		fmt.Println()
	}

	if cfg.UI.ShowStats && !args.Quiet {
		fmt.Println(DimStyle.Render(fmt.Sprintf("(%s, %.1fs, %d chars)",
			model, duration.Seconds(), util.RuneLen(text))))
	}

	return nil
}
