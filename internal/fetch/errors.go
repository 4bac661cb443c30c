package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidUTF8 is returned when a response body is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("response body is not valid UTF-8")

	// ErrBodyTooLarge is returned when a response body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status code of the response.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the status indicates a server-side failure
// that may succeed on retry.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError
}
