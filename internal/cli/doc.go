// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for
// draftpad.
//
// This package implements all draftpad commands. The default command,
// serve, runs the local editor server; the rest are clients of it.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
// Parse and execute commands:
//
//	args := cli.Parse(os.Args[1:])
//	switch args.Cmd {
//	case cli.CmdServe:
//	    return cli.HandleServe(args)
//	case cli.CmdAsk:
//	    return cli.HandleAsk(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - serve: Run the editor server (default)
//   - ask: Single question through the server
//   - transform: Apply a text transform to file or stdin input
//   - chat: Interactive chat session
//   - tui: Full-screen terminal chat
//   - status: Server and backend status
//   - config: Configuration management
//
// Most commands support a --json flag for scripting.
package cli
