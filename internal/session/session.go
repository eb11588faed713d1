// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the client side of the relay protocol.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeranaias/draftpad/internal/prompt"
	"github.com/jeranaias/draftpad/internal/transcript"
	"github.com/jeranaias/draftpad/internal/util"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the session state: Idle or Streaming, nothing in between.
type Status int

const (
	StatusIdle Status = iota
	StatusStreaming
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// ErrBusy is returned by Issue while a generation is still streaming.
// Callers cancel first; the session never queues requests.
var ErrBusy = errors.New("a generation is already streaming")

// =============================================================================
// UPDATES
// =============================================================================

// Update is one notification to the presentation layer.
type Update struct {
	// Text is the meta-filtered accumulated text so far. On the final
	// update of a successful generation it is the complete response, with
	// the placeholder substituted when nothing visible was produced.
	Text string

	// Delta is the raw fragment this update added. Empty on terminal
	// updates.
	Delta string

	// Done marks the terminal update of a generation.
	Done bool

	// Err carries a sanitized error message on error completion. Nil on
	// success. Cancellation produces no update at all.
	Err error
}

// NotifyFunc receives session updates. It is invoked synchronously with the
// session lock held: implementations must be fast, must not block on the
// consumer, and must never call back into the Session.
type NotifyFunc func(Update)

// =============================================================================
// SESSION
// =============================================================================

// Session is the client-side generation state machine. One live generation
// at a time; a generation counter guards every transition so that Cancel
// wins any race with events still in flight.
type Session struct {
	mu     sync.Mutex
	status Status
	gen    uint64
	buf    strings.Builder
	cancel context.CancelFunc

	client *Client
	notify NotifyFunc
}

// New creates an idle session bound to a relay client. notify may be nil
// for pull-style consumers that poll Status and Text.
func New(client *Client, notify NotifyFunc) *Session {
	return &Session{
		client: client,
		notify: notify,
	}
}

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Text returns the meta-filtered accumulated text of the current or most
// recent generation.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return util.StripMetaBlocks(s.buf.String())
}

// Issue starts a generation. Legal only from Idle: a still-streaming
// session returns ErrBusy untouched. The request is not validated here;
// the relay reports validation failures through the stream's error channel
// like every other failure.
func (s *Session) Issue(req prompt.Request) error {
	s.mu.Lock()
	if s.status == StatusStreaming {
		s.mu.Unlock()
		return ErrBusy
	}

	s.status = StatusStreaming
	s.buf.Reset()
	s.gen++
	gen := s.gen

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx, gen, req)
	return nil
}

// Cancel aborts the in-flight generation, if any. The transition to Idle is
// synchronous: Status reads Idle the moment Cancel returns, the transport
// teardown happens in the background, and any events or errors still in
// flight are discarded. No update is delivered; cancellation is silent by
// contract. Returns true if a generation was cancelled.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusStreaming {
		return false
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.status = StatusIdle
	// Advance the generation so the read loop's pending transitions all
	// miss: cancel wins.
	s.gen++
	return true
}

// =============================================================================
// READ LOOP
// =============================================================================

func (s *Session) run(ctx context.Context, gen uint64, req prompt.Request) {
	stream, err := s.client.OpenStream(ctx, req)
	if err != nil {
		s.fail(gen, err)
		return
	}
	defer stream.Close()

	for {
		payload, err := stream.ReadEvent()
		if err != nil {
			// EOF and severed transports end the generation alike:
			// whatever accumulated is the result.
			s.finish(gen)
			return
		}

		switch {
		case payload == doneEvent:
			s.finish(gen)
			return
		case strings.HasPrefix(payload, errorEventPrefix):
			msg := strings.TrimSpace(strings.TrimPrefix(payload, errorEventPrefix))
			s.fail(gen, errors.New(msg))
			return
		default:
			if !s.applyChunk(gen, payload) {
				// Cancelled; the context has already torn the
				// transport down.
				return
			}
		}
	}
}

// applyChunk appends one fragment and notifies. Returns false when the
// generation is no longer current, in which case the fragment is dropped
// without side effects.
func (s *Session) applyChunk(gen uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.status != StatusStreaming {
		return false
	}

	s.buf.WriteString(text)
	if s.notify != nil {
		s.notify(Update{
			Text:  util.StripMetaBlocks(s.buf.String()),
			Delta: text,
		})
	}
	return true
}

// finish completes the current generation successfully.
func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.status != StatusStreaming {
		return
	}

	// Terminal text: an unterminated meta-block can never close now, so it
	// is dropped rather than carried into the final response.
	text := util.VisibleText(s.buf.String())
	if strings.TrimSpace(text) == "" {
		text = transcript.NoResponsePlaceholder
	}

	s.toIdleLocked()
	if s.notify != nil {
		s.notify(Update{Text: text, Done: true})
	}
}

// fail completes the current generation with an error. Raced by Cancel the
// error is swallowed: cancellation already produced the idle state the user
// expects.
func (s *Session) fail(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.status != StatusStreaming {
		return
	}

	sanitized := errors.New(util.SanitizeErrorText(err.Error()))

	s.toIdleLocked()
	if s.notify != nil {
		s.notify(Update{
			Text: util.VisibleText(s.buf.String()),
			Done: true,
			Err:  sanitized,
		})
	}
}

// toIdleLocked performs the terminal transition. Caller holds mu.
func (s *Session) toIdleLocked() {
	if s.cancel != nil {
		// Release the request context; the stream is already finished.
		s.cancel()
		s.cancel = nil
	}
	s.status = StatusIdle
}

// =============================================================================
// ONE-SHOT HELPER
// =============================================================================

// Generate issues a request on a fresh session and blocks until it
// completes, returning the final text. onDelta, when non-nil, receives each
// raw fragment together with the filtered accumulated text. Cancelling ctx
// cancels the generation; the partial text is returned alongside ctx.Err().
func Generate(ctx context.Context, client *Client, req prompt.Request, onDelta func(delta, text string)) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	sess := New(client, func(u Update) {
		if u.Done {
			done <- outcome{text: u.Text, err: u.Err}
			return
		}
		if onDelta != nil {
			onDelta(u.Delta, u.Text)
		}
	})

	if err := sess.Issue(req); err != nil {
		return "", err
	}

	select {
	case result := <-done:
		return result.text, result.err
	case <-ctx.Done():
		sess.Cancel()
		return sess.Text(), ctx.Err()
	}
}
