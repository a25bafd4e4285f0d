// Package render turns dashboard pages into SVG charts, HTML and display
// strings.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/DeafMist/pilkada-radar/backend/internal/aggregate"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
)

// PlaceholderColor fills the pie drawn for an empty or all-zero series.
const PlaceholderColor = "#d1d5db"

// DefaultPieSize is used when a caller passes a non-positive size.
const DefaultPieSize = 320

// PieSVG writes a pie chart of entries. Slice labels carry each entry's share
// of the total.
func PieSVG(w io.Writer, entries []models.ChartEntry, size int) error {
	if size <= 0 {
		size = DefaultPieSize
	}

	values := pieValues(entries)
	pie := chart.PieChart{
		Width:  size,
		Height: size,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{Top: 4, Left: 4, Right: 4, Bottom: 4},
		},
	}
	// A lone value is drawn as a circle in the palette's first series colour,
	// not in its own style.
	if len(values) == 1 {
		pie.ColorPalette = solidPalette{
			ColorPalette: chart.AlternateColorPalette,
			fill:         values[0].Style.FillColor,
		}
	}

	if err := pie.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render pie: %w", err)
	}
	return nil
}

// PieSVGString renders the chart to a string.
func PieSVGString(entries []models.ChartEntry, size int) (string, error) {
	var buf bytes.Buffer
	if err := PieSVG(&buf, entries, size); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func pieValues(entries []models.ChartEntry) []chart.Value {
	total := aggregate.Total(entries)
	if total <= 0 {
		return []chart.Value{placeholder()}
	}

	values := make([]chart.Value, 0, len(entries))
	for _, e := range entries {
		if e.Value <= 0 {
			continue
		}
		color := ParseColor(e.Color)
		values = append(values, chart.Value{
			Value: e.Value,
			Label: Percent(aggregate.Share(e.Value, total)),
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	return values
}

func placeholder() chart.Value {
	return chart.Value{
		Value: 1,
		Style: chart.Style{
			FillColor:   ParseColor(PlaceholderColor),
			StrokeColor: ParseColor(PlaceholderColor),
		},
	}
}

type solidPalette struct {
	chart.ColorPalette
	fill drawing.Color
}

func (p solidPalette) GetSeriesColor(int) drawing.Color {
	return p.fill
}

// ParseColor reads "#rgb" or "#rrggbb". Anything else is black.
func ParseColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if (len(hex) != 3 && len(hex) != 6) || !isHex(hex) {
		return drawing.ColorBlack
	}
	return drawing.ColorFromHex(hex)
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
