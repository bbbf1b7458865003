package sse

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Handler receives the decoded signals of a single stream. Any callback may be
// nil. At most one of OnError and OnDone is ever invoked.
type Handler struct {
	// OnContent receives each decoded content chunk in order.
	OnContent func(chunk string)

	// OnError receives the terminal error, typically a *StreamError.
	OnError func(err error)

	// OnDone is called once when the stream completes without error.
	OnDone func()
}

// Decoder incrementally decodes an SSE byte stream. Each call to Write is one
// buffer as delivered by the transport; buffer boundaries need not align with
// line or event boundaries.
//
// ┌──────────────────┐
// │ response body    │
// └──────────────────┘
// │ Write(chunk)
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │ pending + lines  │──▶│ Handler callbacks     │
// └──────────────────┘   └───────────────────────┘
//
// A Decoder is not safe for concurrent use; there is exactly one reader per
// stream.
type Decoder struct {
	protocol Protocol
	handler  Handler

	// pending holds a trailing line fragment not yet terminated by "\n".
	pending []byte

	// event is the current event name, reset on every blank line.
	event string

	terminated bool
}

// NewDecoder returns a Decoder for the given protocol that reports to h.
func NewDecoder(protocol Protocol, h Handler) *Decoder {
	if protocol == "" {
		protocol = ProtocolPlain
	}

	return &Decoder{
		protocol: protocol,
		handler:  h,
	}
}

// Write feeds the next buffer to the decoder. Complete lines are processed
// immediately; an incomplete trailing fragment is kept for the next call.
// Once the stream has terminated Write returns ErrTerminated.
func (d *Decoder) Write(p []byte) (int, error) {
	if d.terminated {
		return 0, ErrTerminated
	}

	d.pending = append(d.pending, p...)

	for !d.terminated {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			break
		}

		line := string(d.pending[:idx])
		d.pending = d.pending[idx+1:]
		d.processLine(strings.TrimSuffix(line, "\r"))
	}

	if d.terminated {
		d.pending = nil
	}

	// The whole buffer was consumed even if a terminal line was found midway;
	// ErrTerminated is reported on the next call.
	return len(p), nil
}

// Close signals end of stream. A final unterminated line is processed, then
// done fires if no terminal signal has been seen yet.
func (d *Decoder) Close() error {
	if d.terminated {
		return nil
	}

	if len(d.pending) > 0 {
		line := string(d.pending)
		d.pending = nil
		d.processLine(strings.TrimSuffix(line, "\r"))
	}

	d.done()
	return nil
}

// Terminated reports whether a terminal signal has been emitted.
func (d *Decoder) Terminated() bool {
	return d.terminated
}

// Abort stops the decoder without firing any callback. It is used on
// cancellation and teardown.
func (d *Decoder) Abort() {
	d.terminated = true
	d.pending = nil
}

func (d *Decoder) processLine(line string) {
	switch {
	case line == "":
		d.event = ""

	case strings.HasPrefix(line, ":"):
		// comment / keep-alive

	case strings.HasPrefix(line, "event:"):
		d.event = trimField(line, "event:")

	case strings.HasPrefix(line, "data:"):
		d.dispatch(Event{Type: d.event, Data: trimField(line, "data:")})
	}
}

func (d *Decoder) dispatch(ev Event) {
	if ev.Data == DoneSentinel {
		d.done()
		return
	}

	switch ev.Type {
	case EventError:
		d.fail(ev.Data)
		return
	case EventDone:
		d.done()
		return
	}

	if d.protocol != ProtocolStructured && strings.HasPrefix(ev.Data, ErrorSentinelPrefix) {
		d.fail(strings.TrimSpace(strings.TrimPrefix(ev.Data, ErrorSentinelPrefix)))
		return
	}

	if !d.carriesContent(ev.Type) {
		return
	}

	if d.handler.OnContent != nil {
		d.handler.OnContent(d.decodePayload(ev.Data))
	}
}

func (d *Decoder) carriesContent(eventType string) bool {
	switch d.protocol {
	case ProtocolStructured:
		return eventType == EventContent
	case ProtocolAuto:
		return eventType == "" || eventType == EventContent
	default:
		return true
	}
}

// decodePayload attempts a JSON quoted-string decode first and falls back to
// the raw payload (structured) or literal "\n" unescaping (plain, auto).
func (d *Decoder) decodePayload(payload string) string {
	if strings.HasPrefix(payload, `"`) {
		var s string
		if err := json.Unmarshal([]byte(payload), &s); err == nil {
			return s
		}
	}

	if d.protocol == ProtocolStructured {
		return payload
	}

	return strings.ReplaceAll(payload, `\n`, "\n")
}

func (d *Decoder) done() {
	if d.terminated {
		return
	}
	d.terminated = true

	if d.handler.OnDone != nil {
		d.handler.OnDone()
	}
}

func (d *Decoder) fail(message string) {
	if d.terminated {
		return
	}
	d.terminated = true

	if d.handler.OnError != nil {
		d.handler.OnError(&StreamError{Message: message})
	}
}

// trimField strips the field prefix and a single optional leading space.
func trimField(line, prefix string) string {
	return strings.TrimPrefix(strings.TrimPrefix(line, prefix), " ")
}
