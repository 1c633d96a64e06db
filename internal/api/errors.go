package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aanand-mishra/school-health/internal/utils/response"
)

// Kind classifies where an action failed.
type Kind int

const (
	// KindUnknown is any error that did not come through this package.
	KindUnknown Kind = iota

	// KindPrecondition errors are caught before a request is sent.
	KindPrecondition

	// KindNetwork means no HTTP response was received.
	KindNetwork

	// KindValidation is a 4xx answer from the server.
	KindValidation

	// KindServer is a 5xx answer from the server.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every Client method.
type Error struct {
	Kind Kind

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Message is the server's human-readable message, if it sent one.
	Message string

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("api: %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("api: %s error (status %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("api: %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("api: %s error", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Precondition marks err as a client-side failure that never reached the
// server.
func Precondition(err error) *Error {
	return &Error{Kind: KindPrecondition, Err: err}
}

func statusError(status int, message string) *Error {
	kind := KindValidation
	if status >= http.StatusInternalServerError {
		kind = KindServer
	}
	return &Error{Kind: kind, StatusCode: status, Message: message}
}

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage renders err as the text shown in a notification.
//
//   - 4xx: the server's message verbatim, or "request failed with status N"
//   - 5xx: a generic try-again-later line that includes the status
//   - no response: a connectivity message
//   - precondition: the local reason
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	case KindServer:
		return fmt.Sprintf("server error (status %d), please try again later", e.StatusCode)
	case KindNetwork:
		return fmt.Sprintf("could not reach the server: %v", e.Err)
	default:
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return response.Describe(e.Err)
		}
		return e.Error()
	}
}
