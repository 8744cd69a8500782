package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/driftgrid/internal/grid"
)

// HeatmapSVG renders a mass distribution as an SVG grid of colored cells.
// cellPx is the rendered size of one grid cell in pixels.
func HeatmapSVG(dist [][]float64, cellPx float64) string {
	if len(dist) == 0 || len(dist[0]) == 0 {
		return ""
	}
	rows := len(dist)
	cols := len(dist[0])

	max := 0.0
	for _, row := range dist {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}

	width := float64(cols) * cellPx
	height := float64(rows) * cellPx

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := dist[r][c]
			if v <= 0 || max == 0 {
				continue
			}
			// Log scaling keeps low-mass cells visible next to the peak.
			t := math.Log1p(v/max*255) / math.Log1p(255)
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(c)*cellPx, float64(r)*cellPx, cellPx, cellPx, heatColor(t)))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// PathSVG renders a walker path over a rows x cols grid as an SVG polyline.
// The start of the path is marked with a hollow circle, the end with a
// filled one.
func PathSVG(path []grid.Coord, rows, cols int, cellPx float64) string {
	if len(path) < 2 || rows <= 0 || cols <= 0 {
		return ""
	}

	width := float64(cols) * cellPx
	height := float64(rows) * cellPx

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="#00d7ff" stroke-width="1.5" d="M`,
		width, height, width, height))

	for i, p := range path {
		x := (float64(p.Col) + 0.5) * cellPx
		y := (float64(p.Row) + 0.5) * cellPx
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString(`"/>
`)

	start := path[0]
	end := path[len(path)-1]
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#00d7ff"/>
`, (float64(start.Col)+0.5)*cellPx, (float64(start.Row)+0.5)*cellPx, cellPx*0.4))
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#ff5f5f"/>
`, (float64(end.Col)+0.5)*cellPx, (float64(end.Row)+0.5)*cellPx, cellPx*0.4))

	sb.WriteString("</svg>")
	return sb.String()
}

// heatColor maps t in [0,1] to a dark-blue to red gradient.
func heatColor(t float64) string {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	r := int(40 + t*(255-40))
	g := int(40 + t*(95-40))
	b := int(90 + t*(60-90))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
