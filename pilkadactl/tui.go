package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/DeafMist/pilkada-radar/backend/internal/dashboard"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
)

const listHeight = 10

var (
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpText    = "↑/↓ pindah • enter pilih • c hapus filter • tab ganti pemilihan • q keluar"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse a tier interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			tier, err := a.svc.Tiers().Get(a.tier)
			if err != nil {
				return err
			}

			m := newTUIModel(ctx, a.svc, a.svc.NewView(tier))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}

// loadedMsg reports a finished load of the view it was started on.
type loadedMsg struct {
	view *dashboard.View
	err  error
}

// tuiModel browses one View. Loads run as tea.Cmd goroutines; the view
// drops results of superseded selections itself.
type tuiModel struct {
	ctx  context.Context
	svc  *dashboard.Service
	view *dashboard.View

	page      dashboard.Page
	districts bool
	cursor    int
	loading   bool
	status    string
	width     int
}

func newTUIModel(ctx context.Context, svc *dashboard.Service, view *dashboard.View) tuiModel {
	return tuiModel{
		ctx:     ctx,
		svc:     svc,
		view:    view,
		page:    view.Page(),
		loading: view.Tier().Overview,
		width:   80,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return initCmd(m.ctx, m.view)
}

func initCmd(ctx context.Context, v *dashboard.View) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{view: v, err: v.Init(ctx)}
	}
}

func selectProvinceCmd(ctx context.Context, v *dashboard.View, code string) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{view: v, err: v.SelectProvince(ctx, code)}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loadedMsg:
		if msg.view != m.view || errors.Is(msg.err, dashboard.ErrStale) {
			return m, nil
		}
		m.loading = false
		m.status = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		m.page = m.view.Page()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items())-1 {
			m.cursor++
		}

	case "enter":
		items := m.items()
		if len(items) == 0 {
			return m, nil
		}
		picked := items[m.cursor]

		if !m.districts {
			m.districts = true
			m.cursor = 0
			m.loading = true
			m.status = ""
			return m, selectProvinceCmd(m.ctx, m.view, picked.Code)
		}
		if err := m.view.SelectDistrict(picked.Code); err != nil {
			m.status = err.Error()
		}
		m.page = m.view.Page()

	case "c":
		m.view.Clear()
		m.districts = false
		m.cursor = 0
		m.loading = false
		m.status = ""
		m.page = m.view.Page()

	case "tab":
		m.view.Clear()
		next := m.svc.Tiers().Next(m.view.Tier().Name)
		m.view = m.svc.NewView(next)
		m.districts = false
		m.cursor = 0
		m.loading = next.Overview
		m.status = ""
		m.page = m.view.Page()
		return m, initCmd(m.ctx, m.view)
	}
	return m, nil
}

// items lists what enter can pick: provinces, or the districts of the
// selected province headed by an "all districts" entry.
func (m tuiModel) items() []models.Region {
	if !m.districts {
		return m.svc.Provinces().All()
	}
	return append([]models.Region{{Name: "Semua kabupaten/kota"}}, m.page.Districts...)
}

func (m tuiModel) View() string {
	var b strings.Builder

	sel := m.view.Selection()
	crumbs := "Semua provinsi"
	if sel.Province != "" {
		crumbs = m.svc.Provinces().Name(sel.Province, "Province")
		if sel.District != "" {
			crumbs += " › " + sel.District
		}
	}
	b.WriteString(titleStyle.Render(m.view.Tier().Title))
	b.WriteString(mutedStyle.Render("  " + crumbs))
	b.WriteString("\n\n")

	items := m.items()
	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := min(start+listHeight, len(items))
	for i := start; i < end; i++ {
		line := items[i].Name
		if items[i].Code != "" {
			line = fmt.Sprintf("%s %s", items[i].Code, items[i].Name)
		}
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(mutedStyle.Render("Memuat..."))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}

	barWidth := max(10, m.width/3)
	b.WriteString(renderPage(m.page, barWidth))
	b.WriteString(mutedStyle.Render(helpText))
	return b.String()
}
