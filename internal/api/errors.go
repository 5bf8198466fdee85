package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrEmptyUsername is returned by DisableClerk before any network call
	// when the username is empty after trimming.
	ErrEmptyUsername = errors.New("clerk username must not be empty")

	// ErrNoDisableEndpoint is returned when every disable candidate has been
	// tried and none succeeded with a non-authorization failure.
	ErrNoDisableEndpoint = errors.New("no compatible clerk-disable endpoint")
)

// APIError is a non-2xx response from the backend. Message carries the
// structured server message when the body had one.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// IsAuthStatus reports whether the error is an HTTP 401 or 403, a real
// authorization problem rather than a wrong-route guess.
func IsAuthStatus(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// newAPIError drains the response body and extracts the server-provided
// message field, accepting either {"message": ...} or {"error": ...}.
func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	e := &APIError{StatusCode: resp.StatusCode, Body: string(body)}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			e.Message = payload.Message
		} else {
			e.Message = payload.Error
		}
	}
	return e
}

// ToUserMessage converts any call failure into a displayable string: the
// structured server message when one exists, the caller's fallback otherwise.
func ToUserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
