package httpclient

import (
	"errors"
	"fmt"
)

// RemoteError is returned for any transport failure or non-2xx response.
// Err is set for transport failures; StatusCode for HTTP errors.
type RemoteError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsRemote reports whether err came from the remote API or the network.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// StatusCode extracts the HTTP status from err, or 0 when there is none.
func StatusCode(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}
