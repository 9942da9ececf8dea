package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// NetworkError means the request never got an HTTP response
type NetworkError struct {
	Op      string
	Path    string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: timeout: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response from the API
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	if reason := e.Reason(); reason != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, reason)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Reason extracts the server-provided message from the response body. The API
// answers with {"error": "..."}, {"detail": "..."} or a map of field errors.
func (e *HTTPError) Reason() string {
	if len(e.Body) == 0 {
		return ""
	}

	var body map[string]any
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}

	// Field errors: {"name": ["This field is required."]}
	var parts []string
	for field, v := range body {
		switch msgs := v.(type) {
		case []any:
			for _, m := range msgs {
				if s, ok := m.(string); ok {
					parts = append(parts, field+": "+s)
				}
			}
		case string:
			parts = append(parts, field+": "+msgs)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// Temporary reports whether the server may accept the same request later
func (e *HTTPError) Temporary() bool {
	return e.Status >= 500 ||
		e.Status == http.StatusRequestTimeout ||
		e.Status == http.StatusTooManyRequests
}

// IsRetryable reports whether err is worth another attempt: timeouts and
// 5xx/408/429 responses
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return false
}

// IsOffline reports whether err means there is no connectivity at all, as
// opposed to a slow server
func IsOffline(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && !netErr.Timeout
}

// IsTimeout reports whether err is a request timeout
func IsTimeout(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Timeout
}

// ReasonOf returns the server reason carried by err, if any
func ReasonOf(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Reason()
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, 0 otherwise
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
