package ogc

import (
	"fmt"
	"net/url"
	"time"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

const (
	SOSVersion = "2.0.0"

	temporalFilterPrefix = "om:phenomenonTime,"
	spatialFilterPrefix  = "om:featureOfInterest/*/sams:shape,"
)

// MakeObservationPost builds a SOS request as a KVP form POST. The temporal
// filter is only emitted when both ends of the range are present; a one
// sided range is not completed with defaults.
func MakeObservationPost(q model.ObservationQuery) (*Request, error) {
	op := q.Operation
	if op == "" {
		op = model.OpGetObservation
	}
	params := url.Values{}
	params.Set("service", "SOS")
	params.Set("version", SOSVersion)
	params.Set("request", op)
	if q.FeatureOfInterest != "" {
		params.Set("featureOfInterest", q.FeatureOfInterest)
	}
	if q.Begin != nil && q.End != nil {
		params.Set("temporalFilter", fmt.Sprintf("%s%s/%s",
			temporalFilterPrefix,
			q.Begin.Format(time.RFC3339),
			q.End.Format(time.RFC3339)))
	}
	if q.BBox != nil {
		params.Set("spatialFilter", spatialFilterPrefix+EncodeBBox(*q.BBox))
	}
	req, err := newPost(q.Endpoint, ContentTypeForm, []byte(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Operation = op
	return req, nil
}

// MakeCapabilitiesGet builds a GetCapabilities GET for the given service
// type ("SOS" or "CSW").
func MakeCapabilitiesGet(endpoint, service string) (*Request, error) {
	params := url.Values{}
	params.Set("service", service)
	params.Set("request", model.OpGetCapabilities)
	switch service {
	case "SOS":
		params.Set("AcceptVersions", SOSVersion)
	case "CSW":
		params.Set("AcceptVersions", CSWVersion)
	}
	req, err := newGet(endpoint, params)
	if err != nil {
		return nil, err
	}
	req.Operation = model.OpGetCapabilities
	return req, nil
}
