// Package model defines core domain types shared across the service.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const epsgURIPrefix = "http://www.opengis.net/def/crs/EPSG/0/"

// BBox is a geographic bounding box. EPSG is optional.
type BBox struct {
	North, West float64
	South, East float64
	EPSG        *int
}

// SRSURI renders the reference system as an OGC definition URI, or "" when
// no EPSG code is set.
func (b BBox) SRSURI() string {
	if b.EPSG == nil {
		return ""
	}
	return epsgURIPrefix + strconv.Itoa(*b.EPSG)
}

// ParseBBox reads north,west,south,east[,epsg] where epsg is "4326" or "EPSG:4326".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return BBox{}, errors.New("expected north,west,south,east[,epsg]")
	}
	var v [4]float64
	for i, name := range []string{"north", "west", "south", "east"} {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("%s: %w", name, err)
		}
		v[i] = f
	}
	bb := BBox{North: v[0], West: v[1], South: v[2], East: v[3]}

	if len(parts) == 5 {
		code := strings.TrimSpace(parts[4])
		code = strings.TrimPrefix(strings.ToUpper(code), "EPSG:")
		n, err := strconv.Atoi(code)
		if err != nil || n <= 0 {
			return BBox{}, fmt.Errorf("epsg: invalid code %q", parts[4])
		}
		bb.EPSG = &n
	}

	if bb.EPSG == nil || *bb.EPSG == 4326 {
		if bb.North < -90 || bb.North > 90 || bb.South < -90 || bb.South > 90 {
			return BBox{}, errors.New("latitude must be in [-90,90]")
		}
		if bb.West < -180 || bb.West > 180 || bb.East < -180 || bb.East > 180 {
			return BBox{}, errors.New("longitude must be in [-180,180]")
		}
	}
	if bb.North < bb.South {
		return BBox{}, errors.New("north must not be below south")
	}
	return bb, nil
}

// Provider identifies the server dialect a request is built for.
type Provider int

const (
	ProviderDefault Provider = iota
	ProviderPyCSW
	ProviderGeoServer
)

var providerNames = map[Provider]string{
	ProviderDefault:   "default",
	ProviderPyCSW:     "pycsw",
	ProviderGeoServer: "geoserver",
}

func (p Provider) String() string {
	if s, ok := providerNames[p]; ok {
		return s
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

// Providers lists every known dialect in declaration order.
func Providers() []Provider {
	return []Provider{ProviderDefault, ProviderPyCSW, ProviderGeoServer}
}

func ParseProvider(s string) (Provider, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ProviderDefault, nil
	}
	for p, name := range providerNames {
		if name == s {
			return p, nil
		}
	}
	return ProviderDefault, fmt.Errorf("unknown provider %q", s)
}

// ResultType selects full records or only a hit count.
type ResultType int

const (
	ResultResults ResultType = iota
	ResultHits
)

func (r ResultType) String() string {
	switch r {
	case ResultHits:
		return "hits"
	default:
		return "results"
	}
}

func ParseResultType(s string) (ResultType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "results":
		return ResultResults, nil
	case "hits":
		return ResultHits, nil
	default:
		return ResultResults, fmt.Errorf("unknown result type %q", s)
	}
}

// SortType orders catalogue records.
type SortType int

const (
	SortServiceDefault SortType = iota
	SortPublicationDateAsc
	SortPublicationDateDesc
)

func ParseSortType(s string) (SortType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return SortServiceDefault, nil
	case "date-asc", "publicationdate-asc":
		return SortPublicationDateAsc, nil
	case "date-desc", "publicationdate-desc":
		return SortPublicationDateDesc, nil
	default:
		return SortServiceDefault, fmt.Errorf("unknown sort %q", s)
	}
}

// RecordsQuery holds the parameters of a CSW GetRecords request.
type RecordsQuery struct {
	Endpoint      string
	Provider      Provider
	ResultType    ResultType
	MaxRecords    int
	StartPosition int
	// Filter is an ogc:Filter fragment; empty means no constraint.
	Filter string
	Sort   SortType
}

const (
	OpGetObservation  = "GetObservation"
	OpGetCapabilities = "GetCapabilities"
)

// ObservationQuery holds the parameters of a SOS request. Begin and End are
// expected to be both set or both nil.
type ObservationQuery struct {
	Endpoint          string
	Operation         string
	FeatureOfInterest string
	Begin             *time.Time
	End               *time.Time
	BBox              *BBox
}
