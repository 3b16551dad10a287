package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the backend. The body is decoded from the
// standard error shape {statusCode, message, errors, timestamp}.
type APIError struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Timestamp  string              `json:"timestamp,omitempty"`

	Method string `json:"-"`
	URL    string `json:"-"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.URL)
	}
	fmt.Fprintf(&b, "%d %s", e.StatusCode, e.Message)
	if len(e.Errors) > 0 {
		fmt.Fprintf(&b, " (%d field errors)", len(e.Errors))
	}
	return b.String()
}

func (e *APIError) IsAuthError() bool       { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsValidationError() bool { return e.StatusCode == http.StatusUnprocessableEntity }
func (e *APIError) IsNotFound() bool        { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsServerError() bool     { return e.StatusCode >= http.StatusInternalServerError }

// StatusCode returns the HTTP status carried by err, or 0 when err is not an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsAuthError(err error) bool       { return StatusCode(err) == http.StatusUnauthorized }
func IsValidationError(err error) bool { return StatusCode(err) == http.StatusUnprocessableEntity }
func IsNotFound(err error) bool        { return StatusCode(err) == http.StatusNotFound }
func IsServerError(err error) bool     { return StatusCode(err) >= http.StatusInternalServerError }

// NewAPIError builds the error for a failed response. Bodies that are not in the
// error shape still produce an error carrying the status code.
func NewAPIError(method, url string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{}
	if len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	apiErr.StatusCode = statusCode
	apiErr.Method = method
	apiErr.URL = url
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}
