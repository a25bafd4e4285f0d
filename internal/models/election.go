package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// NationalCode is the region code of the nationwide overview document.
const NationalCode = "0"

// Progress reports counting-station (TPS) completion.
type Progress struct {
	Total   int64   `json:"total"`
	Progres int64   `json:"progres"`
	Persen  float64 `json:"persen"`
}

// UnmarshalJSON reads the counts as numbers or numeric strings. Fractional
// counts such as 10.0 are rounded.
func (p *Progress) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("progres: invalid JSON")
	}
	res := gjson.ParseBytes(data)
	switch {
	case res.Type == gjson.Null:
		*p = Progress{}
		return nil
	case !res.IsObject():
		return fmt.Errorf("progres: %w", errNotObject)
	}

	*p = Progress{
		Total:   int64(math.Round(res.Get("total").Float())),
		Progres: int64(math.Round(res.Get("progres").Float())),
		Persen:  res.Get("persen").Float(),
	}
	return nil
}

// Percent derives completion from the raw counts. Zero totals report 0.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Progres) / float64(p.Total) * 100
}

// ResultDocument is one scraped result snapshot for a tier and region.
type ResultDocument struct {
	Mode     string   `json:"mode"`
	PSU      string   `json:"psu"`
	TS       string   `json:"ts"`
	Progress Progress `json:"progres"`
	Tungsura Tungsura `json:"tungsura"`
}

// Tungsura holds the vote-count section of a result document.
type Tungsura struct {
	Chart Chart `json:"chart"`
	Table Table `json:"table"`
}

// Chart carries the aggregate progress block. Progress is nil when the key is absent.
type Chart struct {
	Progress *Progress `json:"progres,omitempty"`
}

// UpdatedAt parses TS, returning the zero time when it cannot be parsed.
func (d ResultDocument) UpdatedAt() time.Time {
	return ParseTimestamp(d.TS)
}

// Candidate is the metadata for one candidate pair.
type Candidate struct {
	TS           string `json:"ts"`
	Name         string `json:"nama"`
	Color        string `json:"warna"`
	BallotNumber int    `json:"nomor_urut"`
}

// CandidateSet maps tally-field keys to candidate metadata for one region.
type CandidateSet map[string]Candidate

// CandidateMap maps region codes to their candidate sets.
type CandidateMap map[string]CandidateSet

// For returns the candidates of a region, or nil.
func (m CandidateMap) For(regionCode string) CandidateSet {
	if m == nil {
		return nil
	}
	return m[regionCode]
}

// Region is an administrative region from the reference lists.
type Region struct {
	Name  string `json:"nama"`
	ID    int    `json:"id"`
	Code  string `json:"kode"`
	Level int    `json:"tingkat"`
}

// ChartEntry is one pie slice.
type ChartEntry struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// ParseTimestamp accepts RFC3339 and the scraper's "2006-01-02 15:04:05" layout.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}
