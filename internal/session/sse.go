// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the client side of the relay protocol.
package session

import (
	"bufio"
	"io"
	"strings"
)

// =============================================================================
// EVENT STREAM READER
// =============================================================================

// EventReader incrementally parses a text/event-stream body. Only the data
// field matters to the relay protocol; other fields and comment lines are
// skipped.
type EventReader struct {
	reader *bufio.Reader
}

// NewEventReader creates an event reader from an io.Reader.
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent returns the payload of the next event. Events with multiple
// data lines are rejoined with a newline, reversing the framing the relay
// applies to tokens that contain newlines. Exactly one leading space after
// the data colon is framing and is stripped; any further whitespace belongs
// to the token, so accumulated payloads concatenate back to the original
// text byte for byte.
//
// Returns io.EOF once the stream is exhausted. An event cut off by EOF
// before its terminating blank line is delivered first, EOF on the next
// call.
func (r *EventReader) ReadEvent() (string, error) {
	var dataLines []string
	haveData := false

	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if value, ok := dataValue(trimLineEnding(line)); ok {
					dataLines = append(dataLines, value)
					haveData = true
				}
				if haveData {
					return strings.Join(dataLines, "\n"), nil
				}
				return "", io.EOF
			}
			return "", err
		}

		line = trimLineEnding(line)

		// Blank line terminates the current event.
		if line == "" {
			if haveData {
				return strings.Join(dataLines, "\n"), nil
			}
			continue
		}

		// Comment line per the event-stream format.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if value, ok := dataValue(line); ok {
			dataLines = append(dataLines, value)
			haveData = true
		}
		// Other fields (event, id, retry) are not part of the protocol.
	}
}

// trimLineEnding removes the trailing LF and an optional preceding CR.
func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// dataValue extracts the value of a data field line. At most one space
// after the colon is stripped; everything beyond it is payload.
func dataValue(line string) (string, bool) {
	if line == "data" {
		return "", true
	}
	rest, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(rest, " "), true
}
