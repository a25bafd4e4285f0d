// Package dashboard assembles dashboard pages from upstream snapshots and keeps
// the region selection of one viewer.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/regions"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

// OverviewMode is the only result mode accepted for the nationwide overview.
const OverviewMode = "hhcw"

// ErrInvalidOverview rejects overview documents with an unexpected shape.
var ErrInvalidOverview = errors.New("invalid overview document")

type overviewShape struct {
	Mode  string           `validate:"eq=hhcw"`
	Chart *models.Progress `validate:"required"`
}

var overviewValidator = validator.New()

// ValidateOverview checks only the mode and the presence of the chart
// progress block.
func ValidateOverview(doc *models.ResultDocument) error {
	if doc == nil {
		return ErrInvalidOverview
	}
	shape := overviewShape{Mode: doc.Mode, Chart: doc.Tungsura.Chart.Progress}
	if err := overviewValidator.Struct(shape); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOverview, err)
	}
	return nil
}

// Loader fetches the document pairs a page needs.
type Loader struct {
	repo source.Repository
	log  *slog.Logger
}

// NewLoader wraps a repository.
func NewLoader(repo source.Repository, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{repo: repo, log: logger}
}

// LoadPair fetches the result table and the candidate map concurrently. Both
// must succeed; on failure no partial snapshot is returned.
func (l *Loader) LoadPair(ctx context.Context, tier tiers.Tier, regionCode string) (*Snapshot, error) {
	var (
		result     *models.ResultDocument
		candidates models.CandidateMap
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := l.repo.FetchResultTable(gctx, tier, regionCode)
		if err != nil {
			return fmt.Errorf("fetch result table: %w", err)
		}
		result = doc
		return nil
	})
	g.Go(func() error {
		m, err := l.repo.FetchCandidateMap(gctx, tier)
		if err != nil {
			return fmt.Errorf("fetch candidate map: %w", err)
		}
		candidates = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Snapshot{Result: result, Candidates: candidates}, nil
}

// LoadOverview fetches and validates the nationwide overview pair.
func (l *Loader) LoadOverview(ctx context.Context, tier tiers.Tier) (*Snapshot, error) {
	snap, err := l.LoadPair(ctx, tier, models.NationalCode)
	if err != nil {
		return nil, err
	}
	if err := ValidateOverview(snap.Result); err != nil {
		return nil, err
	}
	return snap, nil
}

// LoadDistricts fetches the drill-down list of a province.
func (l *Loader) LoadDistricts(ctx context.Context, provinceCode string) (*regions.Directory, error) {
	list, err := l.repo.FetchDistricts(ctx, provinceCode)
	if err != nil {
		return nil, fmt.Errorf("fetch districts: %w", err)
	}
	return regions.NewDirectory(list), nil
}
