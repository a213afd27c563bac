// Package model defines shared types for the proxy.
package model

import (
	"fmt"
	"net/http"
)

// APIType identifies one of the two proxied SatNOGS APIs.
type APIType string

// Supported API types.
const (
	APINetwork APIType = "network"
	APIDB      APIType = "db"
)

// Route is the result of parsing a valid inbound path. Residual always
// starts with a single "/" and carries everything after /api/{type}.
type Route struct {
	Type     APIType
	Residual string
}

// UpstreamResponse is a fully read upstream reply. Every HTTP status in
// [100,599] is represented here; only transport-level failures become errors.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// FailureKind classifies a transport-level upstream failure.
type FailureKind int

const (
	// FailureTimeout is a client-side timeout waiting for upstream.
	FailureTimeout FailureKind = iota
	// FailureUnreachable covers DNS, dial, and connection failures.
	FailureUnreachable
	// FailureOther is any transport failure that fits neither bucket.
	FailureOther
)

// String returns the failure kind as a label suitable for logs and metrics.
func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureUnreachable:
		return "unreachable"
	default:
		return "other"
	}
}

// TransportError wraps a failed upstream call with its classification.
// HTTP error statuses never produce a TransportError.
type TransportError struct {
	Kind FailureKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream transport failure (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
