// Package router turns gateway query strings into OGC calls and maps the
// outcome onto HTTP responses.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/config"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/fingerprint"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/observability"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/service"
	"github.com/mohammed-shakir/ogc-gateway/internal/diagnostics"
	mylog "github.com/mohammed-shakir/ogc-gateway/internal/logger"
	"github.com/mohammed-shakir/ogc-gateway/internal/mapper"
	"github.com/mohammed-shakir/ogc-gateway/internal/queryevents"
)

const (
	RouteRecords          = "/csw/records"
	RouteCSWCapabilities  = "/csw/capabilities"
	RouteObservations     = "/sos/observations"
	RouteSOSCapabilities  = "/sos/capabilities"
	RouteServices         = "/services"
	RouteFailures         = "/debug/failures"
	headerFingerprint     = "X-Request-Fingerprint"
	headerH3Cell          = "X-H3-Cell"
	codeInvalidParameter  = "InvalidParameterValue"
	codeTransport         = "TransportError"
	codeMalformedResponse = "MalformedResponse"
	codeUpstreamStatus    = "UpstreamStatus"
)

// Caller is the part of *service.Service the handlers need.
type Caller interface {
	BuildRecords(q model.RecordsQuery) (*ogc.Request, error)
	BuildRecordsGet(q model.RecordsQuery) (*ogc.Request, error)
	BuildObservation(q model.ObservationQuery) (*ogc.Request, error)
	BuildCapabilities(endpoint, serviceType string) (*ogc.Request, error)
	Call(ctx context.Context, req *ogc.Request) (*ogc.Response, error)
}

type Deps struct {
	Logger   *slog.Logger
	Service  Caller
	Registry *config.Registry
	Failures *diagnostics.Recorder
	Events   queryevents.Sink
	Mapper   mapper.Interface
	H3Res    int
}

type Handlers struct {
	d Deps
}

func New(d Deps) *Handlers {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Registry == nil {
		d.Registry, _ = config.NewRegistry()
	}
	if d.Failures == nil {
		d.Failures = diagnostics.NewRecorder(0)
	}
	if d.Events == nil {
		d.Events = queryevents.Nop{}
	}
	return &Handlers{d: d}
}

// call describes one upstream exchange for logging, events and diagnostics.
type call struct {
	target
	req  *ogc.Request
	bbox *model.BBox
}

func (h *Handlers) Records() http.HandlerFunc {
	return instrument(RouteRecords, func(w http.ResponseWriter, r *http.Request) {
		p, err := parseRecordsParams(r.URL.Query(), h.d.Registry)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
			return
		}
		build := h.d.Service.BuildRecords
		if p.UseGet {
			build = h.d.Service.BuildRecordsGet
		}
		req, err := build(p.Query)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
			return
		}
		h.forward(w, r, call{target: p.target, req: req, bbox: p.BBox})
	})
}

func (h *Handlers) Observations() http.HandlerFunc {
	return instrument(RouteObservations, func(w http.ResponseWriter, r *http.Request) {
		p, err := parseObservationParams(r.URL.Query(), h.d.Registry)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
			return
		}
		req, err := h.d.Service.BuildObservation(p.Query)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
			return
		}
		req.Provider = p.Provider
		h.forward(w, r, call{target: p.target, req: req, bbox: p.Query.BBox})
	})
}

// Capabilities serves GetCapabilities for the registry kind ("csw" or "sos").
func (h *Handlers) Capabilities(kind string) http.HandlerFunc {
	route, serviceType := RouteSOSCapabilities, "SOS"
	if kind == config.KindCSW {
		route, serviceType = RouteCSWCapabilities, "CSW"
	}
	return instrument(route, func(w http.ResponseWriter, r *http.Request) {
		t, err := resolveTarget(r.URL.Query(), h.d.Registry, kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
			return
		}
		req, err := h.d.Service.BuildCapabilities(t.Endpoint, serviceType)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidParameter, err.Error())
			return
		}
		req.Provider = t.Provider
		h.forward(w, r, call{target: t, req: req})
	})
}

func (h *Handlers) Services() http.HandlerFunc {
	return instrument(RouteServices, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.d.Registry.Entries())
	})
}

func (h *Handlers) RecentFailures() http.HandlerFunc {
	return instrument(RouteFailures, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.d.Failures.Recent())
	})
}

// forward sends c.req upstream and writes either the upstream XML or a JSON error.
func (h *Handlers) forward(w http.ResponseWriter, r *http.Request, c call) {
	ctx := mylog.WithUpstream(r.Context(), c.Name)
	c.req.Service = c.Name
	fp := fingerprint.Of(c.req)
	w.Header().Set(headerFingerprint, fp)

	var cell string
	if c.bbox != nil && h.d.Mapper != nil {
		var err error
		if cell, err = h.d.Mapper.CellForBBox(*c.bbox, h.d.H3Res); err != nil {
			h.d.Logger.DebugContext(ctx, "h3 tag skipped", "err", err)
		} else {
			w.Header().Set(headerH3Cell, cell)
		}
	}

	resp, err := h.d.Service.Call(ctx, c.req)
	outcome := service.Outcome(err)

	var se *ogc.ServiceException
	var code string
	if errors.As(err, &se) {
		code = se.Code
	}
	h.d.Events.Publish(queryevents.Event{
		Operation:     c.req.Operation,
		Provider:      c.req.Provider.String(),
		Endpoint:      c.Endpoint,
		Outcome:       outcome,
		ExceptionCode: code,
		H3Cell:        cell,
		Fingerprint:   fp,
	})

	if err == nil {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, resp.Body)
		return
	}

	h.d.Failures.Record(diagnostics.Failure{
		Endpoint:      c.Endpoint,
		Operation:     c.req.Operation,
		Provider:      c.req.Provider.String(),
		Outcome:       outcome,
		ExceptionCode: code,
		Message:       err.Error(),
		Fingerprint:   fp,
	})
	writeCallError(w, err)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Locator string `json:"locator,omitempty"`
	Status  int    `json:"upstream_status,omitempty"`
}

func writeCallError(w http.ResponseWriter, err error) {
	var (
		se *ogc.ServiceException
		us *service.UpstreamStatusError
	)
	switch {
	case errors.As(err, &se):
		writeJSON(w, http.StatusBadGateway, errorBody{Code: se.Code, Message: se.Message, Locator: se.Locator})
	case errors.Is(err, ogc.ErrMalformedResponse):
		writeJSON(w, http.StatusBadGateway, errorBody{Code: codeMalformedResponse, Message: err.Error()})
	case errors.As(err, &us):
		writeJSON(w, http.StatusBadGateway, errorBody{Code: codeUpstreamStatus, Message: us.Error(), Status: us.Status})
	default:
		writeJSON(w, http.StatusBadGateway, errorBody{Code: codeTransport, Message: err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func instrument(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		fn(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
