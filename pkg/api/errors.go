package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a failed transport attempt.
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindHTTPStatus ErrorKind = "http_status"
	KindDecode     ErrorKind = "decode"
)

// TransportError is the failure of a single HTTP attempt. No retries happen
// at this layer; one call, one error.
type TransportError struct {
	Kind   ErrorKind
	Status int    // set when Kind == KindHTTPStatus
	Body   string // response body for status errors, may be truncated
	Err    error  // underlying cause for network/timeout/decode errors
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("api error: status %d, body: %s", e.Status, e.Body)
	case KindTimeout:
		return fmt.Sprintf("api timeout: %v", e.Err)
	case KindDecode:
		return fmt.Sprintf("api response malformed: %v", e.Err)
	default:
		return fmt.Sprintf("api request failed: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// classify maps a client/transport error to its kind. Both context
// deadlines and net-level timeouts count as timeouts.
func classify(err error) *TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: KindTimeout, Err: err}
	}
	return &TransportError{Kind: KindNetwork, Err: err}
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not a
// status-kind transport error.
func StatusOf(err error) int {
	var te *TransportError
	if errors.As(err, &te) && te.Kind == KindHTTPStatus {
		return te.Status
	}
	return 0
}
