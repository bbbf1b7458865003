package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/replyscope/replyscope/pkg/sse"
)

const (
	structuredStreamPath = "/api/analysis/analyze-stream"
	plainStreamPath      = "/api/v2/analyze-stream"

	streamReadSize = 4096
)

// Analyze runs an analysis and waits for the complete text.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	if err := validateAnalyze(req); err != nil {
		return nil, err
	}

	var out Analysis
	if err := c.doJSON(ctx, http.MethodPost, "/api/analysis/analyze", req, &out, "analysis failed"); err != nil {
		return nil, err
	}
	return &out, nil
}

// StreamPath returns the endpoint serving the given stream protocol.
func StreamPath(protocol sse.Protocol) string {
	if protocol == sse.ProtocolStructured {
		return structuredStreamPath
	}
	return plainStreamPath
}

// AnalyzeStream runs an analysis and reports the streamed text through h.
//
// Exactly one of h.OnDone or h.OnError fires unless ctx is cancelled, in which
// case neither fires and ctx.Err() is returned. A non-success response fires
// OnError with an *APIError and no content. The returned error mirrors the
// terminal signal: nil after done, otherwise the error passed to OnError.
func (c *Client) AnalyzeStream(ctx context.Context, req AnalyzeRequest, protocol sse.Protocol, h sse.Handler) error {
	var streamErr error
	inner := h
	h.OnError = func(err error) {
		streamErr = err
		if inner.OnError != nil {
			inner.OnError(err)
		}
	}

	if err := validateAnalyze(req); err != nil {
		h.OnError(err)
		return err
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, StreamPath(protocol), req)
	if err != nil {
		h.OnError(err)
		return err
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	log := c.logger.With("task_id", req.TaskID, "template_id", req.TemplateID, "protocol", string(protocol))
	start := time.Now()

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fmt.Errorf("analysis stream failed: %w", err)
		h.OnError(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := mapHTTPError(resp, "analysis stream failed")
		log.Debug("analysis stream rejected", "status", resp.StatusCode, "error", apiErr.Message)
		h.OnError(apiErr)
		return apiErr
	}

	dec := sse.NewDecoder(protocol, h)
	if err := pump(ctx, resp.Body, dec); err != nil {
		dec.Abort()
		if ctx.Err() != nil {
			log.Debug("analysis stream cancelled", "duration", time.Since(start))
			return ctx.Err()
		}
		err = fmt.Errorf("reading analysis stream: %w", err)
		h.OnError(err)
		return err
	}

	log.Debug("analysis stream finished", "duration", time.Since(start), "error", streamErr)
	return streamErr
}

// StreamAnalysis is AnalyzeStream that also accumulates the full text.
// onChunk may be nil.
func (c *Client) StreamAnalysis(ctx context.Context, req AnalyzeRequest, protocol sse.Protocol, onChunk func(string)) (string, error) {
	var sb strings.Builder
	err := c.AnalyzeStream(ctx, req, protocol, sse.Handler{
		OnContent: func(chunk string) {
			sb.WriteString(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
		},
	})
	return sb.String(), err
}

// pump copies body into dec until EOF, termination or cancellation, then
// closes the decoder on a clean end of stream.
func pump(ctx context.Context, body io.Reader, dec *sse.Decoder) error {
	buf := make([]byte, streamReadSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := dec.Write(buf[:n]); err != nil {
				if errors.Is(err, sse.ErrTerminated) {
					return nil
				}
				return err
			}
			if dec.Terminated() {
				return nil
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return dec.Close()
			}
			return readErr
		}
	}
}

func validateAnalyze(req AnalyzeRequest) error {
	if req.TaskID == "" {
		return fmt.Errorf("task id is required")
	}
	if req.TemplateID == "" {
		return fmt.Errorf("template id is required")
	}
	if req.TemplateID == CustomTemplateID && strings.TrimSpace(req.CustomPrompt) == "" {
		return fmt.Errorf("custom prompt is required for the custom template")
	}
	return nil
}
