package ogc

import (
	"encoding/xml"
	"regexp"
	"strings"
	"testing"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

func intPtr(v int) *int { return &v }

func TestEncodeBBox_WithSRS(t *testing.T) {
	bb := model.BBox{North: -39, West: 143, South: -44.5, East: 148.25, EPSG: intPtr(4326)}
	got := EncodeBBox(bb)
	want := "-39,143,-44.5,148.25,http://www.opengis.net/def/crs/EPSG/0/4326"
	if got != want {
		t.Fatalf("EncodeBBox got %q want %q", got, want)
	}
}

func TestEncodeBBox_WithoutSRS(t *testing.T) {
	bb := model.BBox{North: 10, West: 20, South: 5, East: 25}
	got := EncodeBBox(bb)
	if got != "10,20,5,25" {
		t.Fatalf("EncodeBBox got %q want %q", got, "10,20,5,25")
	}
	if strings.HasSuffix(got, ",") {
		t.Fatalf("trailing comma must not be emitted: %q", got)
	}
}

func TestEncodeBBox_Shape(t *testing.T) {
	re := regexp.MustCompile(`^(-?[\d.]+),(-?[\d.]+),(-?[\d.]+),(-?[\d.]+),http://www\.opengis\.net/def/crs/EPSG/0/(\d+)$`)
	cases := []model.BBox{
		{North: 1, West: 2, South: 3, East: 4, EPSG: intPtr(4283)},
		{North: -10.125, West: 110.5, South: -45, East: 155, EPSG: intPtr(3857)},
		{North: 0, West: 0, South: 0, East: 0, EPSG: intPtr(4326)},
	}
	for _, bb := range cases {
		got := EncodeBBox(bb)
		m := re.FindStringSubmatch(got)
		if m == nil {
			t.Fatalf("EncodeBBox(%+v)=%q does not match expected shape", bb, got)
		}
		if m[1] != formatCoord(bb.North) || m[2] != formatCoord(bb.West) ||
			m[3] != formatCoord(bb.South) || m[4] != formatCoord(bb.East) {
			t.Fatalf("wrong ordering in %q for %+v", got, bb)
		}
	}
}

func TestRecordsFilter_Empty(t *testing.T) {
	if got := (RecordsFilter{AnyText: "  "}).Encode(); got != "" {
		t.Fatalf("empty filter should encode to empty string, got %q", got)
	}
}

func TestRecordsFilter_BBoxAndText(t *testing.T) {
	bb := model.BBox{North: -39, West: 143, South: -44, East: 148}
	got := RecordsFilter{AnyText: "a<b", BBox: &bb}.Encode()

	for _, want := range []string{
		"<ogc:And>",
		"<ogc:PropertyName>ows:BoundingBox</ogc:PropertyName>",
		`<gml:Envelope srsName="WGS:84">`,
		"<gml:lowerCorner>143 -44</gml:lowerCorner>",
		"<gml:upperCorner>148 -39</gml:upperCorner>",
		"*a&lt;b*",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("filter missing %q:\n%s", want, got)
		}
	}
	if err := xml.Unmarshal([]byte(got), new(struct{})); err != nil {
		t.Fatalf("filter is not well formed: %v", err)
	}
}

func TestBBoxFilter_UsesEPSGURI(t *testing.T) {
	got := BBoxFilter(model.BBox{North: 1, West: 2, South: 0, East: 3, EPSG: intPtr(4283)})
	if !strings.Contains(got, `srsName="http://www.opengis.net/def/crs/EPSG/0/4283"`) {
		t.Fatalf("expected EPSG srsName in %s", got)
	}
	if strings.Contains(got, "<ogc:And>") {
		t.Fatalf("single clause must not be wrapped in And: %s", got)
	}
}
