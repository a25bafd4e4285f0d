// Package regions serves the static reference list of provinces used for the
// top-level selector and for naming overview cards.
package regions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/DeafMist/pilkada-radar/backend/internal/models"
)

//go:embed provinces.json
var provincesJSON []byte

// maxDistance bounds fuzzy matches so unrelated names are not suggested.
const maxDistance = 3

// Directory is an ordered, read-only region list.
type Directory struct {
	list   []models.Region
	byCode map[string]models.Region
}

// Provinces returns the embedded province list.
func Provinces() (*Directory, error) {
	var list []models.Region
	if err := json.Unmarshal(provincesJSON, &list); err != nil {
		return nil, fmt.Errorf("decode provinces: %w", err)
	}
	return NewDirectory(list), nil
}

// NewDirectory wraps a region list. Later duplicates of a code are ignored.
func NewDirectory(list []models.Region) *Directory {
	d := &Directory{byCode: make(map[string]models.Region, len(list))}
	for _, r := range list {
		if _, dup := d.byCode[r.Code]; dup {
			continue
		}
		d.byCode[r.Code] = r
		d.list = append(d.list, r)
	}
	return d
}

// All returns regions in list order.
func (d *Directory) All() []models.Region {
	out := make([]models.Region, len(d.list))
	copy(out, d.list)
	return out
}

// Len reports the number of regions.
func (d *Directory) Len() int {
	return len(d.list)
}

// Lookup finds a region by code.
func (d *Directory) Lookup(code string) (models.Region, bool) {
	r, ok := d.byCode[code]
	return r, ok
}

// Name returns the region name, or "<fallback> <code>" when unknown.
func (d *Directory) Name(code, fallback string) string {
	if d != nil {
		if r, ok := d.byCode[code]; ok && r.Name != "" {
			return r.Name
		}
	}
	return fallback + " " + code
}

// Search resolves a user query to regions. Codes and names match exactly
// first, then by substring, then by the closest edit distance.
func (d *Directory) Search(query string) []models.Region {
	q := normalize(query)
	if q == "" {
		return nil
	}

	if r, ok := d.byCode[q]; ok {
		return []models.Region{r}
	}

	var contains []models.Region
	for _, r := range d.list {
		name := normalize(r.Name)
		if name == q {
			return []models.Region{r}
		}
		if strings.Contains(name, q) {
			contains = append(contains, r)
		}
	}
	if len(contains) > 0 {
		return contains
	}

	type scored struct {
		region models.Region
		dist   int
	}
	var candidates []scored
	for _, r := range d.list {
		dist := levenshtein.ComputeDistance(q, normalize(r.Name))
		if dist <= maxDistance {
			candidates = append(candidates, scored{region: r, dist: dist})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	out := make([]models.Region, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.region)
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
