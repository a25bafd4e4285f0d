package dashboard

import (
	"time"

	"github.com/DeafMist/pilkada-radar/backend/internal/aggregate"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/regions"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

// Page views.
const (
	ViewOverview = "overview"
	ViewProvince = "province"
	ViewEmpty    = "empty"
)

// Selection is the two-level region filter. Empty fields mean "all".
type Selection struct {
	Province string `json:"province"`
	District string `json:"district"`
}

// Snapshot pairs a result table with the candidate map it is rendered with.
type Snapshot struct {
	Result     *models.ResultDocument
	Candidates models.CandidateMap
}

// Summary is the headline progress bar.
type Summary struct {
	Completed int64     `json:"completed"`
	Total     int64     `json:"total"`
	Percent   float64   `json:"percent"`
	TS        string    `json:"ts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slice is a chart entry with its share of the card total.
type Slice struct {
	models.ChartEntry
	Share float64 `json:"share"`
}

// Card is one region's progress bar and pie chart.
type Card struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Progress models.Progress `json:"progress"`
	Percent  float64         `json:"percent"`
	Slices   []Slice         `json:"slices"`
	Total    float64         `json:"total"`
	HasChart bool            `json:"has_chart"`
}

// Entries returns the plain chart entries of the card.
func (c Card) Entries() []models.ChartEntry {
	out := make([]models.ChartEntry, 0, len(c.Slices))
	for _, s := range c.Slices {
		out = append(out, s.ChartEntry)
	}
	return out
}

// Page is everything a renderer needs for one dashboard state.
type Page struct {
	Tier      string          `json:"tier"`
	Title     string          `json:"title"`
	View      string          `json:"view"`
	Selection Selection       `json:"selection"`
	Summary   *Summary        `json:"summary,omitempty"`
	Cards     []Card          `json:"cards"`
	Districts []models.Region `json:"districts"`
}

// EmptyPage is rendered while nothing is loaded for the selection.
func EmptyPage(tier tiers.Tier, sel Selection, districts *regions.Directory) Page {
	return Page{
		Tier:      tier.Name,
		Title:     tier.Title,
		View:      ViewEmpty,
		Selection: sel,
		Cards:     []Card{},
		Districts: listOf(districts),
	}
}

// BuildOverview renders the nationwide table, one card per province.
func BuildOverview(tier tiers.Tier, snap *Snapshot, provinces *regions.Directory) Page {
	page := EmptyPage(tier, Selection{}, nil)
	if snap == nil || snap.Result == nil {
		return page
	}

	page.View = ViewOverview
	page.Summary = summarize(snap.Result)

	agg := aggregate.New(tier.Selection())
	table := snap.Result.Tungsura.Table
	for _, code := range table.Codes() {
		row, _ := table.Get(code)
		card := buildCard(agg, code, provinces.Name(code, "Province"), row, snap.Candidates.For(tier.CandidateKey(code, "")))
		card.Percent = row.Progress.Percent()
		page.Cards = append(page.Cards, card)
	}
	return page
}

// BuildProvince renders the district cards of a province, narrowed to the
// selected district when there is one.
func BuildProvince(tier tiers.Tier, sel Selection, snap *Snapshot, districts *regions.Directory) Page {
	page := EmptyPage(tier, sel, districts)
	if snap == nil || snap.Result == nil {
		return page
	}

	page.View = ViewProvince
	page.Summary = summarize(snap.Result)

	agg := aggregate.New(tier.Selection())
	table := snap.Result.Tungsura.Table
	for _, code := range table.Codes() {
		if sel.District != "" && code != sel.District {
			continue
		}
		row, _ := table.Get(code)
		card := buildCard(agg, code, districts.Name(code, "District"), row, snap.Candidates.For(tier.CandidateKey(code, sel.Province)))
		card.Percent = row.Progress.Persen
		page.Cards = append(page.Cards, card)
	}
	return page
}

func buildCard(agg *aggregate.Aggregator, code, name string, row models.RegionResult, candidates models.CandidateSet) Card {
	entries := agg.Aggregate(row, candidates)
	total := aggregate.Total(entries)

	slices := make([]Slice, 0, len(entries))
	for _, e := range entries {
		slices = append(slices, Slice{ChartEntry: e, Share: aggregate.Share(e.Value, total)})
	}

	return Card{
		Code:     code,
		Name:     name,
		Progress: row.Progress,
		Slices:   slices,
		Total:    total,
		HasChart: len(slices) > 0,
	}
}

func summarize(doc *models.ResultDocument) *Summary {
	return &Summary{
		Completed: doc.Progress.Progres,
		Total:     doc.Progress.Total,
		Percent:   doc.Progress.Percent(),
		TS:        doc.TS,
		UpdatedAt: doc.UpdatedAt(),
	}
}

func listOf(d *regions.Directory) []models.Region {
	if d == nil {
		return []models.Region{}
	}
	return d.All()
}
