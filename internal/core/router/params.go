package router

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/config"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
)

// target is the resolved upstream for one gateway call.
type target struct {
	Name     string
	Endpoint string
	Provider model.Provider
}

// resolveTarget picks the upstream from ?service=<name> or ?url=&provider=.
func resolveTarget(q url.Values, reg *config.Registry, kind string) (target, error) {
	name := strings.TrimSpace(q.Get("service"))
	raw := strings.TrimSpace(q.Get("url"))
	switch {
	case name != "" && raw != "":
		return target{}, errors.New("use either service or url, not both")
	case name != "":
		if reg == nil {
			return target{}, fmt.Errorf("%w: %q", config.ErrUnknownService, name)
		}
		e, err := reg.Lookup(name, kind)
		if err != nil {
			return target{}, err
		}
		return target{Name: e.Name, Endpoint: e.URL, Provider: e.Dialect()}, nil
	case raw != "":
		p, err := model.ParseProvider(q.Get("provider"))
		if err != nil {
			return target{}, err
		}
		return target{Endpoint: raw, Provider: p}, nil
	default:
		return target{}, errors.New("missing required parameter: service or url")
	}
}

type recordsParams struct {
	target
	Query  model.RecordsQuery
	UseGet bool
	BBox   *model.BBox
}

func parseRecordsParams(q url.Values, reg *config.Registry) (recordsParams, error) {
	t, err := resolveTarget(q, reg, config.KindCSW)
	if err != nil {
		return recordsParams{}, err
	}
	rt, err := model.ParseResultType(q.Get("resultType"))
	if err != nil {
		return recordsParams{}, err
	}
	sort, err := model.ParseSortType(q.Get("sort"))
	if err != nil {
		return recordsParams{}, err
	}
	maxRecords, err := parseNonNegative(q, "maxRecords", 10)
	if err != nil {
		return recordsParams{}, err
	}
	start, err := parseNonNegative(q, "startPosition", 0)
	if err != nil {
		return recordsParams{}, err
	}
	bb, err := parseOptionalBBox(q.Get("bbox"))
	if err != nil {
		return recordsParams{}, err
	}

	var useGet bool
	switch strings.ToLower(strings.TrimSpace(q.Get("method"))) {
	case "", "post":
	case "get":
		useGet = true
	default:
		return recordsParams{}, fmt.Errorf("method must be get or post (got %q)", q.Get("method"))
	}

	filter := ogc.RecordsFilter{AnyText: q.Get("anytext"), BBox: bb}.Encode()
	if useGet && filter != "" {
		return recordsParams{}, errors.New("anytext and bbox need method=post")
	}

	return recordsParams{
		target: t,
		UseGet: useGet,
		BBox:   bb,
		Query: model.RecordsQuery{
			Endpoint:      t.Endpoint,
			Provider:      t.Provider,
			ResultType:    rt,
			MaxRecords:    maxRecords,
			StartPosition: start,
			Filter:        filter,
			Sort:          sort,
		},
	}, nil
}

type observationParams struct {
	target
	Query model.ObservationQuery
}

func parseObservationParams(q url.Values, reg *config.Registry) (observationParams, error) {
	t, err := resolveTarget(q, reg, config.KindSOS)
	if err != nil {
		return observationParams{}, err
	}
	bb, err := parseOptionalBBox(q.Get("bbox"))
	if err != nil {
		return observationParams{}, err
	}
	begin, err := parseTime(q, "begin")
	if err != nil {
		return observationParams{}, err
	}
	end, err := parseTime(q, "end")
	if err != nil {
		return observationParams{}, err
	}
	if (begin == nil) != (end == nil) {
		return observationParams{}, errors.New("begin and end must be given together")
	}
	if begin != nil && end.Before(*begin) {
		return observationParams{}, errors.New("end is before begin")
	}
	return observationParams{
		target: t,
		Query: model.ObservationQuery{
			Endpoint:          t.Endpoint,
			Operation:         model.OpGetObservation,
			FeatureOfInterest: strings.TrimSpace(q.Get("featureOfInterest")),
			Begin:             begin,
			End:               end,
			BBox:              bb,
		},
	}, nil
}

func parseNonNegative(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer (got %q)", key, raw)
	}
	return n, nil
}

func parseTime(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339: %w", key, err)
	}
	return &t, nil
}

func parseOptionalBBox(raw string) (*model.BBox, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	bb, err := model.ParseBBox(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid bbox: %w", err)
	}
	return &bb, nil
}
