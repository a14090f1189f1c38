// Package executor sends built OGC requests to upstream services.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/observability"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
)

// DefaultMaxBody caps how much of an upstream reply is read into memory.
const DefaultMaxBody int64 = 64 << 20

var ErrResponseTooLarge = errors.New("executor: upstream response too large")

type Executor struct {
	logger   *slog.Logger
	client   *http.Client
	maxBody  int64
	startNow func() time.Time // for tests
}

func New(logger *slog.Logger, client *http.Client) *Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Executor{
		logger:   logger,
		client:   client,
		maxBody:  DefaultMaxBody,
		startNow: time.Now,
	}
}

// Send performs the request and returns the body and status code. Any body
// is returned regardless of status so callers can scan it for exception
// reports.
func (e *Executor) Send(ctx context.Context, r *ogc.Request) ([]byte, int, error) {
	req, err := r.HTTPRequest(ctx)
	if err != nil {
		return nil, 0, err
	}

	start := e.startNow()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody+1))
	dur := time.Since(start)
	observability.ObserveUpstreamLatency(r.Service, r.Operation, dur.Seconds())
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > e.maxBody {
		return nil, resp.StatusCode, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, e.maxBody)
	}

	e.logger.Debug("upstream done",
		"method", r.Method,
		"host", req.URL.Host,
		"service", r.Service,
		"operation", r.Operation,
		"status", resp.StatusCode,
		"bytes", len(b),
		"duration", dur.String())
	return b, resp.StatusCode, nil
}
