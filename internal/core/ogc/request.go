// Package ogc builds OGC CSW and SOS requests for the supported server
// dialects and classifies the responses they produce.
package ogc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

const (
	NSCSW = "http://www.opengis.net/cat/csw/2.0.2"
	NSOGC = "http://www.opengis.net/ogc"
	NSGML = "http://www.opengis.net/gml"
	NSGMD = "http://www.isotc211.org/2005/gmd"
	NSOWS = "http://www.opengis.net/ows"

	ContentTypeXML  = "application/xml; charset=UTF-8"
	ContentTypeForm = "application/x-www-form-urlencoded; charset=UTF-8"
)

var ErrInvalidEndpoint = errors.New("ogc: endpoint must be an absolute http(s) URL")

// Request is a fully formed HTTP request ready for transport. It keeps the
// body as bytes so it can be logged and replayed.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Operation and Provider describe the request for logs and metrics.
	Operation string
	Provider  model.Provider
	// Service is the registry name of the target, empty for ad hoc URLs.
	Service   string
}

// HTTPRequest materialises the request for an http.Client.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build http request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (r *Request) String() string {
	if r == nil {
		return "<nil>"
	}
	return r.Method + " " + r.URL
}

func parseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, raw)
	}
	return u, nil
}

// newGet merges params into any query already present on the endpoint.
func newGet(endpoint string, params url.Values) (*Request, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	h := make(http.Header)
	h.Set("Accept", "application/xml")
	return &Request{Method: http.MethodGet, URL: u.String(), Header: h}, nil
}

func newPost(endpoint, contentType string, body []byte) (*Request, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	h.Set("Accept", "application/xml")
	return &Request{Method: http.MethodPost, URL: u.String(), Header: h, Body: body}, nil
}
