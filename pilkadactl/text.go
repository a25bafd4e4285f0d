package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DeafMist/pilkada-radar/backend/internal/dashboard"
	"github.com/DeafMist/pilkada-radar/backend/internal/render"
)

var (
	mutedColor  = lipgloss.Color("245")
	accentColor = lipgloss.Color("39")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	barStyle    = lipgloss.NewStyle().Foreground(accentColor)
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

// renderPage draws a page as terminal text with bars of the given width.
func renderPage(page dashboard.Page, width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(page.Title))
	b.WriteString("\n")

	if s := page.Summary; s != nil {
		fmt.Fprintf(&b, "%s %s dari %s TPS (%s)\n",
			bar(s.Percent, width),
			render.FormatInt(s.Completed),
			render.FormatInt(s.Total),
			render.Percent(s.Percent),
		)
		if s.TS != "" {
			b.WriteString(mutedStyle.Render("Pembaruan terakhir: " + s.TS))
			b.WriteString("\n")
		}
	}

	if len(page.Cards) == 0 {
		b.WriteString(mutedStyle.Render("Tidak ada data."))
		b.WriteString("\n")
		return b.String()
	}

	for _, c := range page.Cards {
		b.WriteString(cardStyle.Render(renderCard(c, width)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCard(c dashboard.Card, width int) string {
	lines := []string{
		headerStyle.Render(c.Name) + mutedStyle.Render(" "+c.Code),
		fmt.Sprintf("%s %s/%s TPS (%s)",
			bar(c.Percent, width),
			render.FormatInt(c.Progress.Progres),
			render.FormatInt(c.Progress.Total),
			render.Percent(c.Percent),
		),
	}

	for _, s := range c.Slices {
		label := s.Label
		if label == "" {
			label = s.ID
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■")
		lines = append(lines, fmt.Sprintf("%s %s  %s (%s)",
			swatch, label, render.FormatVotes(s.Value), render.Percent(s.Share)))
	}
	return strings.Join(lines, "\n")
}

// bar draws a horizontal progress bar for p percent.
func bar(p float64, width int) string {
	if width <= 0 {
		return ""
	}
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	filled := int(math.Round(p / 100 * float64(width)))
	return barStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}
