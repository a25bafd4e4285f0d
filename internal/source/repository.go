// Package source reads the scraped election snapshots. The upstream static
// host acts as a read-only database; Repository hides it so the dashboard can
// be exercised against fixtures.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

// Document kinds, used for metrics labels and fixture keys.
const (
	KindResults    = "results"
	KindCandidates = "candidates"
	KindDistricts  = "districts"
)

var (
	// ErrNotFound reports a document missing upstream.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidCode rejects region codes that are not plain digits.
	ErrInvalidCode = errors.New("invalid region code")
)

// Repository is the read-only view of the upstream snapshots.
type Repository interface {
	FetchResultTable(ctx context.Context, tier tiers.Tier, regionCode string) (*models.ResultDocument, error)
	FetchCandidateMap(ctx context.Context, tier tiers.Tier) (models.CandidateMap, error)
	FetchDistricts(ctx context.Context, provinceCode string) ([]models.Region, error)
}

// ResultPath is the upstream path of a result table. The national overview
// lives at the dataset root.
func ResultPath(dataset, regionCode string) string {
	if regionCode == models.NationalCode {
		return fmt.Sprintf("%s/%s.json", dataset, models.NationalCode)
	}
	return fmt.Sprintf("%s/%s/%s.json", dataset, regionCode, regionCode)
}

// CandidatesPath is the upstream path of a candidate map.
func CandidatesPath(dataset string) string {
	return fmt.Sprintf("paslon/%s.json", dataset)
}

// DistrictsPath is the upstream path of a province's district list.
func DistrictsPath(provinceCode string) string {
	return fmt.Sprintf("district/%s/%s.json", provinceCode, provinceCode)
}

// ValidCode reports whether code is a non-empty run of ASCII digits.
func ValidCode(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func checkCode(code string) error {
	if !ValidCode(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return nil
}
