package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
)

type upstreamRecorder struct {
	mu         sync.Mutex
	status     int
	reply      string
	lastMethod string
	lastPath   string
	lastQuery  url.Values
	lastHeader http.Header
	lastBody   []byte
}

func (u *upstreamRecorder) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	u.mu.Lock()
	u.lastMethod = r.Method
	u.lastPath = r.URL.Path
	u.lastQuery = r.URL.Query()
	u.lastHeader = r.Header.Clone()
	u.lastBody = body
	status, reply := u.status, u.reply
	u.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply))
}

func newExecutor() *Executor {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestExecutor_SendPost(t *testing.T) {
	up := &upstreamRecorder{reply: `<ok/>`}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	req, err := ogc.MakeGetRecordsPost(model.RecordsQuery{
		Endpoint:   srv.URL + "/csw",
		MaxRecords: 10,
		Filter:     "<filter/>",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	body, status, err := newExecutor().Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if status != http.StatusOK || string(body) != `<ok/>` {
		t.Fatalf("status=%d body=%q", status, body)
	}

	up.mu.Lock()
	defer up.mu.Unlock()
	if up.lastMethod != http.MethodPost || up.lastPath != "/csw" {
		t.Fatalf("upstream saw %s %s", up.lastMethod, up.lastPath)
	}
	if string(up.lastBody) != string(req.Body) {
		t.Fatalf("upstream body differs from built body")
	}
	if ct := up.lastHeader.Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestExecutor_SendGetKeepsQuery(t *testing.T) {
	up := &upstreamRecorder{reply: `<ok/>`}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	req, err := ogc.MakeGetRecordsGet(model.RecordsQuery{Endpoint: srv.URL + "/csw", Provider: model.ProviderPyCSW, MaxRecords: 3})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, _, err := newExecutor().Send(context.Background(), req); err != nil {
		t.Fatalf("Send: %v", err)
	}

	up.mu.Lock()
	defer up.mu.Unlock()
	if got := up.lastQuery.Get("typeNames"); got != "csw:Record" {
		t.Fatalf("typeNames=%q want csw:Record", got)
	}
	if _, ok := up.lastQuery["constraint_language_version"]; ok {
		t.Fatalf("pycsw GET must omit constraint_language_version")
	}
}

func TestExecutor_ReturnsBodyOnErrorStatus(t *testing.T) {
	up := &upstreamRecorder{status: http.StatusBadRequest, reply: `<ows:ExceptionReport/>`}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	req, _ := ogc.MakeCapabilitiesGet(srv.URL, "SOS")
	body, status, err := newExecutor().Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if status != http.StatusBadRequest || string(body) != `<ows:ExceptionReport/>` {
		t.Fatalf("status=%d body=%q", status, body)
	}
}

func TestExecutor_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	req, _ := ogc.MakeCapabilitiesGet(endpoint, "SOS")
	if _, _, err := newExecutor().Send(context.Background(), req); err == nil {
		t.Fatal("expected transport error for closed server")
	}
}

func TestExecutor_ResponseTooLarge(t *testing.T) {
	up := &upstreamRecorder{reply: strings.Repeat("x", 17)}
	srv := httptest.NewServer(http.HandlerFunc(up.handler))
	defer srv.Close()

	e := newExecutor()
	e.maxBody = 16
	req, _ := ogc.MakeCapabilitiesGet(srv.URL, "CSW")
	if _, _, err := e.Send(context.Background(), req); !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("err=%v want ErrResponseTooLarge", err)
	}

	up.mu.Lock()
	up.reply = strings.Repeat("x", 16)
	up.mu.Unlock()
	body, _, err := e.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("reply at the limit must pass: %v", err)
	}
	if len(body) != 16 {
		t.Fatalf("len(body)=%d want 16", len(body))
	}
}
