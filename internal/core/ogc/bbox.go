package ogc

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

// EncodeBBox renders a box in the 52North SOS KVP order:
// maxlat,minlon,minlat,maxlon[,srsURI].
func EncodeBBox(b model.BBox) string {
	parts := []string{
		formatCoord(b.North),
		formatCoord(b.West),
		formatCoord(b.South),
		formatCoord(b.East),
	}
	if uri := b.SRSURI(); uri != "" {
		parts = append(parts, uri)
	}
	return strings.Join(parts, ",")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// envelope srsName used before any dialect rewrite
const defaultEnvelopeSRS = "WGS:84"

// RecordsFilter describes the catalogue constraints the gateway knows how to
// encode. The zero value encodes to "".
type RecordsFilter struct {
	AnyText string
	BBox    *model.BBox
}

// Encode returns an ogc:Filter fragment, or "" when no constraint is set.
func (f RecordsFilter) Encode() string {
	var clauses []string
	if t := strings.TrimSpace(f.AnyText); t != "" {
		clauses = append(clauses, anyTextClause(t))
	}
	if f.BBox != nil {
		clauses = append(clauses, bboxClause(*f.BBox))
	}
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return wrapFilter(clauses[0])
	default:
		return wrapFilter("<ogc:And>" + strings.Join(clauses, "") + "</ogc:And>")
	}
}

// BBoxFilter is shorthand for a filter with only a spatial clause.
func BBoxFilter(b model.BBox) string {
	return RecordsFilter{BBox: &b}.Encode()
}

func wrapFilter(inner string) string {
	return `<ogc:Filter xmlns:ogc="` + NSOGC + `" xmlns:gml="` + NSGML + `">` + inner + `</ogc:Filter>`
}

func bboxClause(b model.BBox) string {
	srs := defaultEnvelopeSRS
	if uri := b.SRSURI(); uri != "" {
		srs = uri
	}
	return fmt.Sprintf(
		`<ogc:BBOX><ogc:PropertyName>ows:BoundingBox</ogc:PropertyName>`+
			`<gml:Envelope srsName="%s"><gml:lowerCorner>%s %s</gml:lowerCorner>`+
			`<gml:upperCorner>%s %s</gml:upperCorner></gml:Envelope></ogc:BBOX>`,
		escape(srs),
		formatCoord(b.West), formatCoord(b.South),
		formatCoord(b.East), formatCoord(b.North),
	)
}

func anyTextClause(text string) string {
	return `<ogc:PropertyIsLike wildCard="*" singleChar="#" escapeChar="!">` +
		`<ogc:PropertyName>anytext</ogc:PropertyName>` +
		`<ogc:Literal>*` + escape(text) + `*</ogc:Literal></ogc:PropertyIsLike>`
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
