package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/DeafMist/pilkada-radar/backend/internal/dashboard"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("page.html").
		Funcs(template.FuncMap{
			"formatInt":   FormatInt,
			"formatVotes": FormatVotes,
			"percent":     Percent,
			"barWidth":    BarWidth,
			"pie":         inlinePie,
		}).
		ParseFS(templateFS, "templates/page.html"),
)

// PageData is the template input of the HTML dashboard.
type PageData struct {
	Page      dashboard.Page
	Provinces []models.Region
	Next      tiers.Tier
	ChartSize int
}

// Page writes the HTML dashboard.
func Page(w io.Writer, data PageData) error {
	if data.ChartSize <= 0 {
		data.ChartSize = DefaultPieSize
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// inlinePie embeds the card chart. A chart that fails to render is left out.
func inlinePie(card dashboard.Card, size int) template.HTML {
	svg, err := PieSVGString(card.Entries(), size)
	if err != nil {
		return ""
	}
	return template.HTML(svg) //nolint:gosec // generated by go-chart from numeric input
}
