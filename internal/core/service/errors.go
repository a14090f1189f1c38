package service

import (
	"errors"
	"fmt"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
)

var (
	// ErrNilTransport is returned by New when no transport is supplied.
	ErrNilTransport = errors.New("service: transport cannot be nil")
	// ErrNilRequest is wrapped in the *CallError returned for a nil request.
	ErrNilRequest = errors.New("service: nil request")
	// ErrTransport marks failures of the underlying send.
	ErrTransport = errors.New("service: transport failure")
)

// CallError is the single failure kind returned by Call. It carries the
// request for diagnostics and unwraps to the underlying cause: a transport
// error, *ogc.ServiceException, *ogc.MalformedResponseError or
// *UpstreamStatusError.
type CallError struct {
	Request *ogc.Request
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %s: %v", e.Request, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// UpstreamStatusError reports a non-2xx reply that did not carry an
// exception report.
type UpstreamStatusError struct {
	Status  int
	Snippet string
}

func (e *UpstreamStatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Snippet)
}

const (
	OutcomeOK               = "ok"
	OutcomeServiceException = "service_exception"
	OutcomeMalformed        = "malformed"
	OutcomeUpstreamStatus   = "upstream_status"
	OutcomeTransport        = "transport"
)

// Outcome names the class of a Call result for metrics and events.
func Outcome(err error) string {
	var (
		se *ogc.ServiceException
		us *UpstreamStatusError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &se):
		return OutcomeServiceException
	case errors.Is(err, ogc.ErrMalformedResponse):
		return OutcomeMalformed
	case errors.As(err, &us):
		return OutcomeUpstreamStatus
	default:
		return OutcomeTransport
	}
}
