// Package viz renders probability distributions for terminal display.
package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Heatmap renders a distribution as a grid of colored cells, two terminal
// columns per grid cell. Values are log-scaled so the long tail of a
// diffusion stays visible next to its peak, matching how the heat ramp is
// usually read.
func Heatmap(dist [][]float64) string {
	if len(dist) == 0 {
		return ""
	}

	max := 0.0
	for _, row := range dist {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}

	var b strings.Builder
	for _, row := range dist {
		for _, v := range row {
			b.WriteString(cellStyle(v, max).Render("  "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func cellStyle(v, max float64) lipgloss.Style {
	if max <= 0 || v <= 0 {
		return lipgloss.NewStyle().Background(lipgloss.Color("#101018"))
	}

	scaled := math.Log1p(v/max*255) / math.Log1p(255)
	return lipgloss.NewStyle().Background(heatRamp(scaled))
}

// SeriesTotal extracts the total mass per retained layer, for plotting mass
// over time.
func SeriesTotal(layers [][]float64) []float64 {
	out := make([]float64, len(layers))
	for i, mass := range layers {
		sum := 0.0
		for _, v := range mass {
			sum += v
		}
		out[i] = sum
	}
	return out
}

// SeriesPeak extracts the peak cell mass per retained layer.
func SeriesPeak(layers [][]float64) []float64 {
	out := make([]float64, len(layers))
	for i, mass := range layers {
		peak := 0.0
		for _, v := range mass {
			if v > peak {
				peak = v
			}
		}
		out[i] = peak
	}
	return out
}
