// Package geo maps grid indices to geographic coordinates and back.
//
// The mapping is presentation-only: the propagation engine never consults
// it. Cells are placed on a Web Mercator (EPSG:3857 style) plane anchored at
// an origin coordinate, with a fixed cell edge length in meters. Row 0 /
// col 0 is the origin cell; columns grow eastward, rows grow southward.
package geo

import (
	"errors"
	"fmt"
	"math"
)

const earthRadius = 6378137.0 // WGS84 equatorial radius, meters

// Domain errors for mapper construction.
var (
	// ErrBadOrigin indicates an origin outside the Mercator domain.
	ErrBadOrigin = errors.New("geo: origin latitude must be in (-85.06, 85.06)")

	// ErrBadCellSize indicates a non-positive cell size.
	ErrBadCellSize = errors.New("geo: cell size must be positive")
)

// Mapper converts between (row, col) grid indices and (lat, lon) WGS84
// degrees.
type Mapper struct {
	originX  float64 // projected meters of cell (0, 0) center
	originY  float64
	cellSize float64
}

// NewMapper anchors cell (0, 0) at the given WGS84 coordinate with the given
// cell edge length in projected meters.
func NewMapper(originLat, originLon, cellSizeMeters float64) (*Mapper, error) {
	if math.Abs(originLat) >= 85.06 || math.IsNaN(originLat) || math.Abs(originLon) > 180 {
		return nil, fmt.Errorf("%w: (%v, %v)", ErrBadOrigin, originLat, originLon)
	}
	if cellSizeMeters <= 0 || math.IsNaN(cellSizeMeters) || math.IsInf(cellSizeMeters, 0) {
		return nil, fmt.Errorf("%w: %v", ErrBadCellSize, cellSizeMeters)
	}

	x, y := project(originLat, originLon)
	return &Mapper{originX: x, originY: y, cellSize: cellSizeMeters}, nil
}

// ToGeo returns the WGS84 coordinate of the center of cell (r, c).
func (m *Mapper) ToGeo(r, c int) (lat, lon float64) {
	x := m.originX + float64(c)*m.cellSize
	y := m.originY - float64(r)*m.cellSize
	return unproject(x, y)
}

// FromGeo returns the cell whose center is nearest to the given WGS84
// coordinate. The result may lie outside the grid; callers bound-check
// against their field.
func (m *Mapper) FromGeo(lat, lon float64) (r, c int) {
	x, y := project(lat, lon)
	c = int(math.Round((x - m.originX) / m.cellSize))
	r = int(math.Round((m.originY - y) / m.cellSize))
	return r, c
}

// project converts WGS84 degrees to spherical Mercator meters.
func project(lat, lon float64) (x, y float64) {
	x = earthRadius * lon * math.Pi / 180
	y = earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

// unproject converts spherical Mercator meters back to WGS84 degrees.
func unproject(x, y float64) (lat, lon float64) {
	lon = x / earthRadius * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return lat, lon
}
