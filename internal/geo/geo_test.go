package geo

import (
	"errors"
	"math"
	"testing"
)

func TestNewMapperValidation(t *testing.T) {
	if _, err := NewMapper(90, 0, 100); !errors.Is(err, ErrBadOrigin) {
		t.Errorf("polar origin should fail, got %v", err)
	}
	if _, err := NewMapper(0, 181, 100); !errors.Is(err, ErrBadOrigin) {
		t.Errorf("longitude past 180 should fail, got %v", err)
	}
	if _, err := NewMapper(0, 0, 0); !errors.Is(err, ErrBadCellSize) {
		t.Errorf("zero cell size should fail, got %v", err)
	}
	if _, err := NewMapper(0, 0, -5); !errors.Is(err, ErrBadCellSize) {
		t.Errorf("negative cell size should fail, got %v", err)
	}
}

func TestOriginCell(t *testing.T) {
	m, err := NewMapper(52.52, 13.405, 100)
	if err != nil {
		t.Fatalf("new mapper failed: %v", err)
	}

	lat, lon := m.ToGeo(0, 0)
	if math.Abs(lat-52.52) > 1e-9 || math.Abs(lon-13.405) > 1e-9 {
		t.Errorf("cell (0, 0) should sit at the origin, got (%v, %v)", lat, lon)
	}
}

func TestRoundTrip(t *testing.T) {
	m, err := NewMapper(48.8566, 2.3522, 250)
	if err != nil {
		t.Fatalf("new mapper failed: %v", err)
	}

	for _, cell := range [][2]int{{0, 0}, {3, 7}, {12, 1}, {100, 100}} {
		lat, lon := m.ToGeo(cell[0], cell[1])
		r, c := m.FromGeo(lat, lon)
		if r != cell[0] || c != cell[1] {
			t.Errorf("round trip (%d, %d) -> (%v, %v) -> (%d, %d)",
				cell[0], cell[1], lat, lon, r, c)
		}
	}
}

func TestAxesOrientation(t *testing.T) {
	m, err := NewMapper(10, 10, 1000)
	if err != nil {
		t.Fatalf("new mapper failed: %v", err)
	}

	latEast, lonEast := m.ToGeo(0, 5)
	if lonEast <= 10 {
		t.Errorf("columns should grow eastward, got lon %v", lonEast)
	}
	if math.Abs(latEast-10) > 1e-9 {
		t.Errorf("moving east should keep latitude, got %v", latEast)
	}

	latSouth, _ := m.ToGeo(5, 0)
	if latSouth >= 10 {
		t.Errorf("rows should grow southward, got lat %v", latSouth)
	}
}

func TestFromGeoSnapsToNearestCell(t *testing.T) {
	m, err := NewMapper(0, 0, 1000)
	if err != nil {
		t.Fatalf("new mapper failed: %v", err)
	}

	// A point slightly off a cell center still maps to that cell.
	lat, lon := m.ToGeo(4, 4)
	r, c := m.FromGeo(lat+1e-5, lon-1e-5)
	if r != 4 || c != 4 {
		t.Errorf("expected nearest cell (4, 4), got (%d, %d)", r, c)
	}
}
