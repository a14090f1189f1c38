package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

// ErrNotGeographic is returned for boxes in a CRS other than WGS84.
var ErrNotGeographic = errors.New("bbox is not in a geographic CRS")

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// CellForBBox returns the cell containing the centre of bb.
func (m *Mapper) CellForBBox(bb model.BBox, res int) (string, error) {
	if err := validate(bb, res); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(center(bb), res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}

// CellsForBBox covers bb with cells, sorted and unique.
func (m *Mapper) CellsForBBox(bb model.BBox, res int) ([]string, error) {
	if err := validate(bb, res); err != nil {
		return nil, err
	}
	outer := h3.GeoLoop{
		{Lat: bb.South, Lng: bb.West},
		{Lat: bb.South, Lng: bb.East},
		{Lat: bb.North, Lng: bb.East},
		{Lat: bb.North, Lng: bb.West},
	}
	indexes, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: outer}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func validate(bb model.BBox, res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	if bb.EPSG != nil && *bb.EPSG != 4326 {
		return fmt.Errorf("%w: EPSG:%d", ErrNotGeographic, *bb.EPSG)
	}
	return nil
}

// boxes with west > east cross the antimeridian
func center(bb model.BBox) h3.LatLng {
	lng := (bb.West + bb.East) / 2
	if bb.West > bb.East {
		lng = (bb.West + bb.East + 360) / 2
		if lng > 180 {
			lng -= 360
		}
	}
	return h3.LatLng{Lat: (bb.North + bb.South) / 2, Lng: lng}
}
