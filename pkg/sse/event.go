// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// decoder for the analysis streaming endpoints. It consumes the response body
// in arbitrarily sized chunks and surfaces three signals to a Handler:
// content chunks, an error, or done.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the event stream format in the HTML standard:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// EventContent is the event name carrying analysis text in the structured
	// protocol.
	EventContent = "content"

	// EventError is the event name carrying an error message.
	EventError = "error"

	// EventDone is the event name some backends send instead of the [DONE]
	// sentinel.
	EventDone = "done"

	// DoneSentinel is the in-band payload that terminates a stream.
	DoneSentinel = "[DONE]"

	// ErrorSentinelPrefix marks an in-band error payload in the plain protocol.
	ErrorSentinelPrefix = "[ERROR]"
)

// ErrTerminated is returned by Decoder.Write once a terminal signal has been
// emitted. Copy loops treat it as the cue to stop reading.
var ErrTerminated = errors.New("sse: stream terminated")

// Event represents a single parsed SSE data line together with the event name
// that was current when it was read.
type Event struct {
	// Type is the SSE event type from the most recent "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the payload of the "data:" line with one optional leading
	// space removed.
	Data string
}

// Protocol selects how data payloads are framed and decoded.
type Protocol string

const (
	// ProtocolStructured is the original framing: "event: content" followed by
	// a JSON-quoted string payload.
	ProtocolStructured Protocol = "v1"

	// ProtocolPlain is the simplified framing: bare "data:" lines carrying raw
	// text with literal \n sequences, plus [DONE] and [ERROR] sentinels.
	ProtocolPlain Protocol = "v2"

	// ProtocolAuto accepts either framing.
	ProtocolAuto Protocol = "auto"
)

// ParseProtocol maps a config or flag value onto a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1", "structured":
		return ProtocolStructured, nil
	case "", "v2", "plain":
		return ProtocolPlain, nil
	case "auto":
		return ProtocolAuto, nil
	default:
		return "", fmt.Errorf("unknown stream protocol: %q (available: v1, v2, auto)", s)
	}
}

// ValidProtocolNames returns the accepted protocol names.
func ValidProtocolNames() []string {
	return []string{string(ProtocolStructured), string(ProtocolPlain), string(ProtocolAuto)}
}

// StreamError is an application-signaled failure carried inside an otherwise
// successful stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return "stream error"
	}
	return e.Message
}
