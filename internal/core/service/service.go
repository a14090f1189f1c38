// Package service is the entry point for building OGC requests and sending
// them through a transport.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/fingerprint"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/observability"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
)

// Transport sends a built request and returns the raw reply.
type Transport interface {
	Send(ctx context.Context, req *ogc.Request) (body []byte, status int, err error)
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service holds no per-call state and is safe for concurrent use.
type Service struct {
	transport Transport
	logger    *slog.Logger
}

func New(t Transport, opts ...Option) (*Service, error) {
	if t == nil {
		return nil, ErrNilTransport
	}
	s := &Service{
		transport: t,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// BuildRecords builds GetRecords as POST so large filters fit.
func (s *Service) BuildRecords(q model.RecordsQuery) (*ogc.Request, error) {
	return ogc.MakeGetRecordsPost(q)
}

// BuildRecordsGet builds the unfiltered KVP form of GetRecords.
func (s *Service) BuildRecordsGet(q model.RecordsQuery) (*ogc.Request, error) {
	return ogc.MakeGetRecordsGet(q)
}

// BuildObservation picks GET for GetCapabilities and a form POST otherwise.
func (s *Service) BuildObservation(q model.ObservationQuery) (*ogc.Request, error) {
	if q.Operation == model.OpGetCapabilities {
		return ogc.MakeCapabilitiesGet(q.Endpoint, "SOS")
	}
	return ogc.MakeObservationPost(q)
}

// BuildCapabilities builds a GetCapabilities GET for "CSW" or "SOS".
func (s *Service) BuildCapabilities(endpoint, serviceType string) (*ogc.Request, error) {
	return ogc.MakeCapabilitiesGet(endpoint, serviceType)
}

// Call sends req and classifies the reply. Every failure is a *CallError.
func (s *Service) Call(ctx context.Context, req *ogc.Request) (*ogc.Response, error) {
	if req == nil {
		return nil, &CallError{Err: ErrNilRequest}
	}
	log := s.logger.With(
		"operation", req.Operation,
		"provider", req.Provider.String(),
		"fingerprint", fingerprint.Of(req))

	resp, err := s.call(ctx, req)
	outcome := Outcome(err)
	observability.IncCall(req.Operation, req.Provider.String(), outcome)

	if err != nil {
		var se *ogc.ServiceException
		if errors.As(err, &se) {
			observability.IncServiceException(req.Provider.String(), se.Code)
			log.WarnContext(ctx, "service exception", "code", se.Code, "locator", se.Locator, "msg", se.Message, "request", req.String())
		} else {
			log.ErrorContext(ctx, "call failed", "outcome", outcome, "err", err, "request", req.String())
		}
		return nil, &CallError{Request: req, Err: err}
	}
	log.DebugContext(ctx, "call ok", "bytes", len(resp.Body))
	return resp, nil
}

func (s *Service) call(ctx context.Context, req *ogc.Request) (*ogc.Response, error) {
	body, status, err := s.transport.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	resp, err := ogc.Classify(body, req)
	if err != nil {
		var se *ogc.ServiceException
		if status >= 300 && !errors.As(err, &se) {
			return nil, &UpstreamStatusError{Status: status, Snippet: snippet(body)}
		}
		return nil, err
	}
	if status >= 300 {
		return nil, &UpstreamStatusError{Status: status, Snippet: snippet(body)}
	}
	return resp, nil
}

func snippet(b []byte) string {
	const maxSnippet = 512
	if len(b) > maxSnippet {
		return string(b[:maxSnippet])
	}
	return string(b)
}
