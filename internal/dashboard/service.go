package dashboard

import (
	"context"
	"io"
	"log/slog"

	"github.com/DeafMist/pilkada-radar/backend/internal/metrics"
	"github.com/DeafMist/pilkada-radar/backend/internal/regions"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

// Service builds pages for stateless callers such as HTTP handlers. Every
// call re-fetches from upstream through a fresh View.
type Service struct {
	tiers     *tiers.Set
	loader    *Loader
	provinces *regions.Directory
	log       *slog.Logger
	metrics   *metrics.Collector
}

// NewService wires the page builder.
func NewService(set *tiers.Set, loader *Loader, provinces *regions.Directory, logger *slog.Logger, m *metrics.Collector) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{tiers: set, loader: loader, provinces: provinces, log: logger, metrics: m}
}

// Tiers returns the configured tiers.
func (s *Service) Tiers() *tiers.Set {
	return s.tiers
}

// Provinces returns the static province list.
func (s *Service) Provinces() *regions.Directory {
	return s.provinces
}

// Loader returns the underlying loader.
func (s *Service) Loader() *Loader {
	return s.loader
}

// NewView creates a stateful view of tier.
func (s *Service) NewView(tier tiers.Tier) *View {
	return NewView(tier, s.loader, s.provinces, s.log, s.metrics)
}

// Page builds the page for sel. The page is always renderable; a non-nil
// error reports the section that failed to load and was left empty.
func (s *Service) Page(ctx context.Context, tierName string, sel Selection) (Page, error) {
	tier, err := s.tiers.Get(tierName)
	if err != nil {
		return Page{}, err
	}

	v := s.NewView(tier)
	if sel.Province == "" {
		err := v.Init(ctx)
		return v.Page(), err
	}

	if err := v.SelectProvince(ctx, sel.Province); err != nil {
		return v.Page(), err
	}
	if sel.District != "" {
		if err := v.SelectDistrict(sel.District); err != nil {
			return v.Page(), err
		}
	}
	return v.Page(), nil
}
