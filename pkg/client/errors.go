package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4096

// APIError is a non-success HTTP response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// errorBody is the JSON error object the backend writes on failure.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// mapHTTPError converts a non-2xx response into an APIError. The message comes
// from the body's "error" field, then "message", then fallback.
func mapHTTPError(resp *http.Response, fallback string) *APIError {
	message := extractErrorMessage(resp.Body)
	if message == "" {
		message = fallback
	}
	if message == "" {
		message = fmt.Sprintf("unexpected backend error (HTTP %d)", resp.StatusCode)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return ""
	}

	if eb.Error != "" {
		return eb.Error
	}
	return eb.Message
}
