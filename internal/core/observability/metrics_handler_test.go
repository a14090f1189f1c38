package observability

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ExposeBuildInfo("test")
	ObserveHTTP("GET", "/csw/records", 200, 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "app_build_info") && !strings.Contains(body, "http_requests_total") {
		t.Fatalf("metrics payload did not contain expected metric names; got:\n%s", body)
	}
}

func TestOGCMetrics_Labels(t *testing.T) {
	IncCall("GetRecords", "pycsw", "service_exception")
	IncServiceException("pycsw", "")
	ObserveUpstreamLatency("cat", "GetRecords", 0.02)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)
	body := rr.Body.String()

	if !strings.Contains(body, `ogc_calls_total{operation="GetRecords",outcome="service_exception",provider="pycsw"} `) {
		t.Fatalf("missing ogc_calls_total sample:\n%s", body)
	}
	if !strings.Contains(body, `ogc_service_exceptions_total{code="unknown",provider="pycsw"} `) {
		t.Fatalf("missing ogc_service_exceptions_total sample:\n%s", body)
	}
	if !strings.Contains(body, `upstream_latency_seconds_bucket`) {
		t.Fatalf("missing upstream latency histogram:\n%s", body)
	}
}

func TestExceptionCodeLabel(t *testing.T) {
	cases := map[string]string{
		"":                      "unknown",
		"InvalidParameterValue": "InvalidParameterValue",
		"NoApplicableCode":      "NoApplicableCode",
		"InvalidFormat":         "InvalidFormat",
		"vendor-42":             "other",
		"invalidparametervalue": "other",
	}
	for in, want := range cases {
		if got := ExceptionCodeLabel(in); got != want {
			t.Errorf("ExceptionCodeLabel(%q)=%q want %q", in, got, want)
		}
	}
}

func TestServiceExceptions_SeriesBounded(t *testing.T) {
	before := testutil.CollectAndCount(serviceExceptionsTotal)
	for i := range 200 {
		IncServiceException("geoserver", "vendor-"+strconv.Itoa(i))
	}
	after := testutil.CollectAndCount(serviceExceptionsTotal)
	if after-before > 1 {
		t.Fatalf("series grew by %d for 200 distinct codes", after-before)
	}
	if v := testutil.ToFloat64(serviceExceptionsTotal.WithLabelValues("geoserver", "other")); v < 200 {
		t.Fatalf("other=%v want >= 200", v)
	}
}

func TestUpstreamLatency_EmptyServiceIsAdhoc(t *testing.T) {
	ObserveUpstreamLatency("", "GetObservation", 0.01)
	if n := testutil.CollectAndCount(upstreamLatencySeconds); n == 0 {
		t.Fatal("expected upstream latency series")
	}
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `upstream_latency_seconds_count{operation="GetObservation",upstream="adhoc"}`) {
		t.Fatalf("missing adhoc upstream series:\n%s", rr.Body.String())
	}
}
