package query

import (
	"errors"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
)

// Failure classifies a query that produced no result set.
type Failure int

const (
	FailureNone Failure = iota
	FailureTransport
	FailureNotFound
	FailureServer
	FailureNoData
	FailureUnknown
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "ok"
	case FailureTransport:
		return "transport"
	case FailureNotFound:
		return "not_found"
	case FailureServer:
		return "server"
	case FailureNoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// ParseFailure is the inverse of Failure.String.
func ParseFailure(s string) Failure {
	for f := FailureNone; f <= FailureUnknown; f++ {
		if f.String() == s {
			return f
		}
	}
	return FailureUnknown
}

func failureFor(err error) Failure {
	switch dataservice.KindOf(err) {
	case dataservice.KindTransport:
		return FailureTransport
	case dataservice.KindNotFound:
		return FailureNotFound
	case dataservice.KindServer:
		return FailureServer
	default:
		return FailureUnknown
	}
}

const (
	msgTransport = "Connection failed. Please check your internet connection and try again."
	msgNotFound  = "The requested location data could not be found. Please verify the state/district names and try again."
	msgServer    = "Server temporarily unavailable. Please try again in a few minutes."
	msgNoData    = "No groundwater data available for this location. Try a different state or district."
	msgUnknown   = "An unexpected error occurred. Please try again."
)

// FailureMessage renders the user-facing text for f. Unknown failures
// surface the service's own message when there is one.
func FailureMessage(f Failure, err error) string {
	switch f {
	case FailureTransport:
		return msgTransport
	case FailureNotFound:
		return msgNotFound
	case FailureServer:
		return msgServer
	case FailureNoData:
		return msgNoData
	case FailureNone:
		return ""
	}

	var dsErr *dataservice.Error
	if errors.As(err, &dsErr) && dsErr.Message != "" {
		return "Error: " + dsErr.Message
	}
	return msgUnknown
}
