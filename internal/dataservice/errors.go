package dataservice

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies a failed data service call.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindNotFound
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that fails.
type Error struct {
	Kind     Kind
	Status   int
	Endpoint string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("dataservice %s: %s", e.Endpoint, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err; errors that did not come from
// this package are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

func transportError(endpoint string, err error) *Error {
	kind := KindTransport
	if errors.Is(err, context.Canceled) {
		kind = KindUnknown
	}
	return &Error{
		Kind:     kind,
		Endpoint: endpoint,
		Message:  "connection failed",
		Err:      errors.Wrap(err, "request "+endpoint),
	}
}
