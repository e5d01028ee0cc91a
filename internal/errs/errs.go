// Package errs defines the error taxonomy shared by every pws component.
// Each failure that crosses a component boundary carries a Kind so that the
// HTTP boundary can map it to a status code without string matching.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure
type Kind string

const (
	KindTimeout         Kind = "timeout"
	KindPayloadTooLarge Kind = "payload_too_large"
	KindUpstream        Kind = "upstream_error"
	KindInvalidInput    Kind = "invalid_input"
	KindInternal        Kind = "internal"
)

// maxUpstreamBody caps how much of a remote error body is kept for logs
const maxUpstreamBody = 8 * 1024

// Error is a classified failure. Status is the remote HTTP status for
// upstream errors and 0 when no response was received. Detail holds the
// remote error body; it appears in Error() for logs but never in
// PublicMessage.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Status > 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// ErrMissingAPIKey is returned by remote clients constructed without a key
var ErrMissingAPIKey = &Error{Kind: KindInternal, Message: "missing PWS api key (set PWS_API_KEY)"}

// New creates a classified error
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Upstream builds an upstream error from a non-2xx response
func Upstream(status int, body []byte) *Error {
	detail := string(body)
	if len(detail) > maxUpstreamBody {
		detail = detail[:maxUpstreamBody]
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &Error{Kind: KindUpstream, Status: status, Message: "remote service error", Detail: detail}
}

// KindOf reports the kind of err. Unclassified context errors map to timeout
// for deadlines; everything else unclassified is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// StatusOf returns the remote HTTP status carried by err, or 0
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Is reports whether err has the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code the boundary responds with
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns a message safe to show a client. Internal errors are
// reduced to a generic text and remote bodies are left out so causes never
// leak.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		if e.Kind == KindUpstream && e.Status > 0 {
			return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
		}
		return e.Message
	}
	if KindOf(err) == KindTimeout {
		return "request timed out"
	}
	return "internal error"
}
