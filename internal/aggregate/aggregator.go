// Package aggregate turns raw region result records into pie chart series.
package aggregate

import (
	"sort"
	"strings"

	"github.com/DeafMist/pilkada-radar/backend/internal/models"
)

// DefaultColor is used when a tally has no candidate color.
const DefaultColor = "#000000"

// ReservedFields are the non-tally keys of a region result record.
var ReservedFields = []string{models.FieldPSU, models.FieldProgress, models.FieldStatusProgress}

// Policy decides which record keys are candidate tallies.
type Policy interface {
	Includes(key string) bool
	String() string
}

// ExcludeNamed keeps every key that is not in the set.
type ExcludeNamed struct {
	names map[string]struct{}
}

// Exclude builds an ExcludeNamed policy.
func Exclude(names ...string) ExcludeNamed {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return ExcludeNamed{names: set}
}

// Includes implements Policy.
func (p ExcludeNamed) Includes(key string) bool {
	_, skip := p.names[key]
	return !skip
}

func (p ExcludeNamed) String() string {
	names := make([]string, 0, len(p.names))
	for n := range p.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return "exclude(" + strings.Join(names, ",") + ")"
}

// PrefixMatch keeps only keys starting with Prefix.
type PrefixMatch struct {
	Prefix string
}

// Prefix builds a PrefixMatch policy.
func Prefix(prefix string) PrefixMatch {
	return PrefixMatch{Prefix: prefix}
}

// Includes implements Policy.
func (p PrefixMatch) Includes(key string) bool {
	return strings.HasPrefix(key, p.Prefix)
}

func (p PrefixMatch) String() string {
	return "prefix(" + p.Prefix + ")"
}

// Aggregator applies a selection policy to region records.
type Aggregator struct {
	policy Policy
}

// New returns an aggregator. A nil policy excludes the reserved fields.
func New(policy Policy) *Aggregator {
	if policy == nil {
		policy = Exclude(ReservedFields...)
	}
	return &Aggregator{policy: policy}
}

// Policy returns the selection policy in use.
func (a *Aggregator) Policy() Policy {
	return a.policy
}

// Aggregate maps the selected fields of rec to chart entries in record order.
// Non-numeric values count as 0; missing candidate metadata falls back to an
// empty label and DefaultColor.
func (a *Aggregator) Aggregate(rec models.RegionResult, candidates models.CandidateSet) []models.ChartEntry {
	fields := rec.Fields()
	out := make([]models.ChartEntry, 0, len(fields))

	for _, f := range fields {
		if !a.policy.Includes(f.Key) {
			continue
		}

		value, ok := f.Value.Float()
		if !ok {
			value = 0
		}

		entry := models.ChartEntry{
			ID:    f.Key,
			Value: value,
			Color: DefaultColor,
		}
		if c, found := candidates[f.Key]; found {
			entry.Label = c.Name
			if c.Color != "" {
				entry.Color = c.Color
			}
		}

		out = append(out, entry)
	}

	return out
}

// Total sums entry values. Callers use it as the share denominator.
func Total(entries []models.ChartEntry) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.Value
	}
	return sum
}

// Share returns value as a percentage of total, or 0 when total is 0.
func Share(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return value / total * 100
}
