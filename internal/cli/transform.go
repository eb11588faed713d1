// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// transform.go - Transform command implementation for draftpad.
//
// Applies one of the editor's transform actions to text from a file or
// stdin and prints only the transformed text, so the command composes
// with shell pipelines.
//
// Command: transform <action>
// Short:   Apply a text transform
// Aliases: edit
//
// Actions: shorten, lengthen, tabularize, proofread
//
// Examples:
//   draftpad transform proofread --file draft.md
//   draftpad transform shorten --file draft.md --output short.md
//   cat notes.txt | draftpad transform tabularize
//   git diff | draftpad transform shorten
//
// Flags:
//   -f, --file FILE     Read input text from FILE
//   -o, --output FILE   Write result to FILE instead of stdout
//   -m, --model NAME    Use specific model (overrides config)
//   --json              Output result as JSON
//   -q, --quiet         Minimal output
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jeranaias/draftpad/internal/config"
	"github.com/jeranaias/draftpad/internal/prompt"
	"github.com/jeranaias/draftpad/internal/session"
	"github.com/jeranaias/draftpad/internal/util"
)

// TransformData is the JSON payload for a completed transform command.
type TransformData struct {
	Result     string `json:"result"`
	Action     string `json:"action"`
	Model      string `json:"model"`
	DurationMs int64  `json:"duration_ms"`
}

// HandleTransform applies a named transform to file or stdin text via the
// local server and emits only the result.
func HandleTransform(args Args) error {
	cfg := config.Global()

	action := strings.ToLower(strings.TrimSpace(args.Action))
	if action == "" {
		return NewValidationErrorWithExample("action", "",
			fmt.Sprintf("an action is required (one of: %s)", strings.Join(prompt.ActionNames(), ", ")),
			"draftpad transform proofread --file draft.md")
	}
	if !prompt.ValidAction(action) {
		return NewValidationError("action", action,
			fmt.Sprintf("unknown action (one of: %s)", strings.Join(prompt.ActionNames(), ", ")))
	}

	var selection string
	switch {
	case args.File != "":
		content, err := readFileForContext(args.File)
		if err != nil {
			if args.JSON {
				NewJSONErrorResponse("transform", err).Print()
			}
			return err
		}
		selection = content
	default:
		piped, ok := readPipedStdin()
		if !ok {
			return NewValidationErrorWithExample("input", "",
				"no input text (use --file or pipe text on stdin)",
				"cat notes.txt | draftpad transform tabularize")
		}
		selection = piped
	}

	if strings.TrimSpace(selection) == "" {
		return NewValidationError("input", "", "input text is empty")
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
			NewJSONErrorResponse("transform", err).Print()
		}
		return NewCommandError("transform", "connect", "cannot reach the draftpad server", err)
	}

	req := prompt.Request{
		Selection: selection,
		Action:    action,
		Model:     model,
	}
	if err := prompt.Validate(req); err != nil {
		return NewValidationError("input", "", err.Error())
	}

	// Stream straight to stdout only when the result is not being captured;
	// --output and --json need the complete text. Only the filtered text is
	// printed, so reasoning spans never reach a pipe.
	printed := 0
	var onDelta func(delta, text string)
	if !args.JSON && args.Output == "" {
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
			fmt.Println()
			if !args.Quiet && !args.JSON {
				fmt.Fprintln(os.Stderr, DimStyle.Render("(cancelled)"))
			}
			return nil
		}
		if args.JSON {
			NewJSONErrorResponse("transform", err).Print()
		}
		return NewCommandError("transform", action, "transform failed", err)
	}

	if args.JSON {
		return NewJSONResponse("transform", TransformData{
			Result:     text,
			Action:     action,
			Model:      model,
			DurationMs: duration.Milliseconds(),
		}).Print()
	}

	if args.Output != "" {
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		if err := util.AtomicWriteFile(args.Output, []byte(text), 0644); err != nil {
			return NewCommandError("transform", "write", "failed to write output file", err)
		}
		if !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), args.Output)
		}
	} else {
		// Streaming printed the text as it grew; anything the stream withheld,
		// including the empty-response placeholder, arrives only here.
		if printed < len(text) {
			fmt.Print(text[printed:])
		}
		fmt.Println()
	}

	if cfg.UI.ShowStats && !args.Quiet {
		fmt.Fprintln(os.Stderr, DimStyle.Render(fmt.Sprintf("(%s, %s, %.1fs, %d chars)",
			model, action, duration.Seconds(), util.RuneLen(text))))
	}

	return nil
}
