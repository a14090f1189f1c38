package ogc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrMalformedResponse marks bodies that could not be scanned as XML.
var ErrMalformedResponse = errors.New("ogc: malformed response")

// Response is a successful service reply paired with the request that
// produced it.
type Response struct {
	Body    string
	Request *Request
}

// MalformedResponseError is returned when a body is empty or not well formed.
type MalformedResponseError struct {
	Request *Request
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("ogc: malformed response to %s: %v", e.Request, e.Err)
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}

// ExceptionDetail is one Exception entry of a report.
type ExceptionDetail struct {
	Code    string
	Locator string
	Text    string
}

// ServiceException is an OWS exception report returned by the server.
type ServiceException struct {
	Code       string
	Locator    string
	Message    string
	Exceptions []ExceptionDetail
	Request    *Request
}

func (e *ServiceException) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no exception text"
	}
	if e.Locator != "" {
		return fmt.Sprintf("ogc: service exception %s (locator %s): %s", e.Code, e.Locator, msg)
	}
	return fmt.Sprintf("ogc: service exception %s: %s", e.Code, msg)
}

type exceptionReport struct {
	OWS    []owsException    `xml:"Exception"`
	Legacy []legacyException `xml:"ServiceException"`
}

type owsException struct {
	Code    string   `xml:"exceptionCode,attr"`
	Locator string   `xml:"locator,attr"`
	Texts   []string `xml:"ExceptionText"`
}

type legacyException struct {
	Code    string `xml:"code,attr"`
	Locator string `xml:"locator,attr"`
	Text    string `xml:",chardata"`
}

func isExceptionRoot(name xml.Name) bool {
	switch name.Local {
	case "ExceptionReport":
		return strings.HasPrefix(name.Space, NSOWS)
	case "ServiceExceptionReport":
		return true
	}
	return false
}

// Classify scans body for an OWS exception report. A report becomes a
// *ServiceException; any other well formed XML becomes a *Response holding
// the body unchanged.
func Classify(body []byte, req *Request) (*Response, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		seenRoot bool
		svcErr   *ServiceException
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedResponseError{Request: req, Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok || seenRoot {
			continue
		}
		seenRoot = true
		if !isExceptionRoot(start.Name) {
			continue
		}
		var rep exceptionReport
		if err := dec.DecodeElement(&rep, &start); err != nil {
			return nil, &MalformedResponseError{Request: req, Err: err}
		}
		svcErr = rep.toError(req)
	}
	if !seenRoot {
		return nil, &MalformedResponseError{Request: req, Err: errors.New("no root element")}
	}
	if svcErr != nil {
		return nil, svcErr
	}
	return &Response{Body: string(body), Request: req}, nil
}

func (r exceptionReport) toError(req *Request) *ServiceException {
	var details []ExceptionDetail
	for _, e := range r.OWS {
		var texts []string
		for _, t := range e.Texts {
			if t = strings.TrimSpace(t); t != "" {
				texts = append(texts, t)
			}
		}
		details = append(details, ExceptionDetail{
			Code:    strings.TrimSpace(e.Code),
			Locator: strings.TrimSpace(e.Locator),
			Text:    strings.Join(texts, "; "),
		})
	}
	for _, e := range r.Legacy {
		details = append(details, ExceptionDetail{
			Code:    strings.TrimSpace(e.Code),
			Locator: strings.TrimSpace(e.Locator),
			Text:    strings.TrimSpace(e.Text),
		})
	}

	out := &ServiceException{Exceptions: details, Request: req}
	if len(details) == 0 {
		return out
	}
	out.Code = details[0].Code
	out.Locator = details[0].Locator
	var msgs []string
	for _, d := range details {
		if d.Text != "" {
			msgs = append(msgs, d.Text)
		}
	}
	out.Message = strings.Join(msgs, "; ")
	return out
}
