package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream OGC calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream", "operation"},
	)

	ogcCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogc_calls_total",
			Help: "OGC calls by operation, provider and outcome.",
		},
		[]string{"operation", "provider", "outcome"},
	)

	serviceExceptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogc_service_exceptions_total",
			Help: "OWS exception reports returned by upstream services.",
		},
		[]string{"provider", "code"},
	)

	queryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_events_total",
			Help: "Query events handed to the publisher, by result (queued, dropped, failed).",
		},
		[]string{"result"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// AdhocUpstream labels calls to endpoints that are not in the service registry.
const AdhocUpstream = "adhoc"

// ObserveUpstreamLatency records one upstream exchange. service is the
// registry name of the target; an empty name is reported as AdhocUpstream.
func ObserveUpstreamLatency(service, operation string, durationSeconds float64) {
	if service == "" {
		service = AdhocUpstream
	}
	upstreamLatencySeconds.WithLabelValues(service, operation).Observe(durationSeconds)
}

func IncCall(operation, provider, outcome string) {
	ogcCallsTotal.WithLabelValues(operation, provider, outcome).Inc()
}

// owsExceptionCodes are the codes defined by OWS Common and the CSW and SOS
// extensions. Anything else an upstream sends is counted as "other".
var owsExceptionCodes = map[string]struct{}{
	"OperationNotSupported":    {},
	"MissingParameterValue":    {},
	"InvalidParameterValue":    {},
	"VersionNegotiationFailed": {},
	"InvalidUpdateSequence":    {},
	"OptionNotSupported":       {},
	"NoApplicableCode":         {},
	"InvalidFormat":            {},
	"InvalidRequest":           {},
	"ResponseExceedsSizeLimit": {},
}

// ExceptionCodeLabel maps an upstream exceptionCode onto a bounded label set.
func ExceptionCodeLabel(code string) string {
	switch {
	case code == "":
		return "unknown"
	case isKnownExceptionCode(code):
		return code
	default:
		return "other"
	}
}

func isKnownExceptionCode(code string) bool {
	_, ok := owsExceptionCodes[code]
	return ok
}

func IncServiceException(provider, code string) {
	serviceExceptionsTotal.WithLabelValues(provider, ExceptionCodeLabel(code)).Inc()
}

func IncQueryEvent(result string) {
	queryEventsTotal.WithLabelValues(result).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
