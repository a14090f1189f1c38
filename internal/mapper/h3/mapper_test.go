package h3mapper

import (
	"errors"
	"slices"
	"sort"
	"testing"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

// Tasmania
var tas = model.BBox{North: -39, West: 143, South: -44, East: 148}

func TestCellForBBox_CenterCell(t *testing.T) {
	m := New()
	got, err := m.CellForBBox(tas, 5)
	if err != nil {
		t.Fatalf("CellForBBox: %v", err)
	}
	want, err := h3.LatLngToCell(h3.LatLng{Lat: -41.5, Lng: 145.5}, 5)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	if got != want.String() {
		t.Fatalf("cell=%s want %s", got, want)
	}

	again, _ := m.CellForBBox(tas, 5)
	if again != got {
		t.Fatalf("expected deterministic cell")
	}
}

func TestCellForBBox_Antimeridian(t *testing.T) {
	m := New()
	bb := model.BBox{North: 10, West: 170, South: 0, East: -170}
	got, err := m.CellForBBox(bb, 4)
	if err != nil {
		t.Fatalf("CellForBBox: %v", err)
	}
	want, _ := h3.LatLngToCell(h3.LatLng{Lat: 5, Lng: 180}, 4)
	if got != want.String() {
		t.Fatalf("cell=%s want %s", got, want)
	}
}

func TestCellsForBBox_SortedUniqueContainsCenter(t *testing.T) {
	m := New()
	bb := model.BBox{North: 59.40, West: 17.95, South: 59.30, East: 18.15}
	cells, err := m.CellsForBBox(bb, 8)
	if err != nil {
		t.Fatalf("CellsForBBox: %v", err)
	}
	if len(cells) == 0 {
		t.Fatal("expected non-empty coverage")
	}
	if !sort.StringsAreSorted(cells) {
		t.Fatal("cells must be sorted")
	}
	if len(slices.Compact(slices.Clone(cells))) != len(cells) {
		t.Fatal("cells must be unique")
	}
	c, _ := m.CellForBBox(bb, 8)
	if !slices.Contains(cells, c) {
		t.Fatalf("coverage does not contain centre cell %s", c)
	}
}

func TestBounds_InvalidResolutionAndCRS(t *testing.T) {
	m := New()
	if _, err := m.CellForBBox(tas, -1); err == nil {
		t.Fatal("expected error for res=-1")
	}
	if _, err := m.CellsForBBox(tas, 16); err == nil {
		t.Fatal("expected error for res=16")
	}

	wgs := 4326
	bb := tas
	bb.EPSG = &wgs
	if _, err := m.CellForBBox(bb, 5); err != nil {
		t.Fatalf("EPSG:4326 should be accepted: %v", err)
	}

	merc := 3857
	bb.EPSG = &merc
	if _, err := m.CellForBBox(bb, 5); !errors.Is(err, ErrNotGeographic) {
		t.Fatalf("err=%v want ErrNotGeographic", err)
	}
}
