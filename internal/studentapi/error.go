package studentapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedStatus is wrapped by a NetworkError when the backend answered
// with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// NetworkError reports a failed call to the backend.
//
// StatusCode is zero when the request never got a response (connection
// refused, DNS failure, timeout). Body holds the raw response, if any.
type NetworkError struct {
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode != 0 && errors.Is(e.Err, ErrUnexpectedStatus) {
		return fmt.Sprintf("studentapi: %s: %s: status=%d body=%s", e.Op, e.Err, e.StatusCode, string(e.Body))
	}
	return fmt.Sprintf("studentapi: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFound reports whether the backend answered 404.
func (e *NetworkError) NotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}
