// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the client side of the relay protocol.
//
// A Session is the state machine every chat surface drives: Idle until a
// request is issued, Streaming while events arrive, back to Idle on
// completion, error, or cancellation. At most one generation streams at a
// time; issuing while Streaming is refused with ErrBusy, and Cancel wins
// every race with in-flight events.
//
// # Key Types
//
//   - Client: HTTP client for the relay (stream open + health checks)
//   - EventReader: incremental parser for the relay's event stream
//   - Session: the Idle/Streaming state machine with cancel support
//   - Update: one notification to the presentation layer
//
// # Usage
//
// Drive a transcript from a session:
//
//	sess := session.New(client, func(u session.Update) {
//	    conv.SetStreamContent(u.Text)
//	    if u.Done {
//	        // u.Err carries a sanitized message on failure
//	    }
//	})
//	if err := sess.Issue(req); err != nil { ... }
//	...
//	sess.Cancel() // synchronous: Status() == StatusIdle on return
//
// Notify callbacks run with the session lock held so that a cancelled
// session can never deliver another update. Callbacks must therefore be
// fast and must not call back into the Session.
//
// For one-shot commands, Generate blocks until the final text is available.
package session
