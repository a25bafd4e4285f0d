package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/DeafMist/pilkada-radar/backend/internal/metrics"
	"github.com/DeafMist/pilkada-radar/backend/internal/regions"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

var (
	// ErrStale is returned by a load superseded by a newer selection. Its
	// result has been discarded.
	ErrStale = errors.New("selection superseded")
	// ErrNoProvince rejects a district selection without a province.
	ErrNoProvince = errors.New("no province selected")
)

// View holds the selection of one viewer and the snapshots loaded for it.
//
// Every selection change bumps a generation counter and cancels the load in
// flight. A load applies its result only if its generation is still current,
// so a slow response for an old selection never overwrites a newer one.
type View struct {
	tier      tiers.Tier
	loader    *Loader
	provinces *regions.Directory
	log       *slog.Logger
	metrics   *metrics.Collector

	mu               sync.Mutex
	gen              uint64
	cancel           context.CancelFunc
	sel              Selection
	districts        *regions.Directory
	snapshot         *Snapshot
	snapshotProvince string
	overview         *Snapshot
}

// NewView creates an empty view for tier.
func NewView(tier tiers.Tier, loader *Loader, provinces *regions.Directory, logger *slog.Logger, m *metrics.Collector) *View {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &View{
		tier:      tier,
		loader:    loader,
		provinces: provinces,
		log:       logger.With(slog.String("tier", tier.Name)),
		metrics:   m,
	}
}

// Tier returns the tier the view renders.
func (v *View) Tier() tiers.Tier {
	return v.tier
}

// Init loads the nationwide overview when the tier has one. Failures and
// malformed documents are logged and leave the overview empty.
func (v *View) Init(ctx context.Context) error {
	if !v.tier.Overview {
		return nil
	}

	snap, err := v.loader.LoadOverview(ctx, v.tier)
	if err != nil {
		v.log.Error("load overview", slog.Any("err", err))
		return fmt.Errorf("load overview: %w", err)
	}

	v.mu.Lock()
	v.overview = snap
	v.mu.Unlock()
	return nil
}

// SelectProvince switches to a province, clears the district and loads the
// province's districts and result pair. An empty code clears the selection.
//
// On failure the previous snapshot is kept and the error returned; the page
// for the new selection stays empty. ErrStale means a newer selection won.
func (v *View) SelectProvince(ctx context.Context, code string) error {
	if code == "" {
		v.Clear()
		return nil
	}

	loadCtx, gen := v.begin(ctx, Selection{Province: code})
	defer v.finish(gen)

	type districtResult struct {
		dir *regions.Directory
		err error
	}
	districtsCh := make(chan districtResult, 1)
	go func() {
		dir, err := v.loader.LoadDistricts(loadCtx, code)
		districtsCh <- districtResult{dir: dir, err: err}
	}()

	snap, pairErr := v.loader.LoadPair(loadCtx, v.tier, code)
	districts := <-districtsCh

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		v.metrics.StaleDropped(v.tier.Name)
		v.log.Debug("dropping stale province load", slog.String("province", code))
		return ErrStale
	}

	if districts.err != nil {
		v.log.Warn("load districts", slog.String("province", code), slog.Any("err", districts.err))
		v.districts = regions.NewDirectory(nil)
	} else {
		v.districts = districts.dir
	}

	if pairErr != nil {
		v.log.Error("load province", slog.String("province", code), slog.Any("err", pairErr))
		return fmt.Errorf("load province %s: %w", code, pairErr)
	}

	v.snapshot = snap
	v.snapshotProvince = code
	return nil
}

// SelectDistrict narrows the province page to one district. It only filters
// what is already loaded. An empty code shows every district.
func (v *View) SelectDistrict(code string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.sel.Province == "" {
		return ErrNoProvince
	}
	v.sel.District = code
	return nil
}

// Clear drops both selection levels and returns to the overview. Loads in
// flight become stale.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.supersede()
	v.sel = Selection{}
	v.districts = nil
	v.snapshot = nil
	v.snapshotProvince = ""
}

// Selection returns the current selection.
func (v *View) Selection() Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sel
}

// Generation returns the current selection generation.
func (v *View) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gen
}

// Page renders the current state.
func (v *View) Page() Page {
	v.mu.Lock()
	sel := v.sel
	districts := v.districts
	snapshot := v.snapshot
	current := snapshot != nil && v.snapshotProvince == sel.Province
	overview := v.overview
	v.mu.Unlock()

	var page Page
	switch {
	case sel.Province == "" && overview != nil:
		page = BuildOverview(v.tier, overview, v.provinces)
	case sel.Province != "" && current:
		page = BuildProvince(v.tier, sel, snapshot, districts)
	default:
		page = EmptyPage(v.tier, sel, districts)
	}

	v.metrics.PageBuilt(v.tier.Name, page.View)
	return page
}

// begin records a new selection and returns the context and generation of
// the load that serves it.
func (v *View) begin(ctx context.Context, sel Selection) (context.Context, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.supersede()
	loadCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.sel = sel
	v.districts = nil
	return loadCtx, v.gen
}

// finish releases the load context if gen is still the current load.
func (v *View) finish(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen == v.gen && v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// supersede cancels the load in flight and bumps the generation. Callers hold mu.
func (v *View) supersede() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
}
