package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

// Static is an in-memory Repository for tests and offline demos. Keys follow
// the upstream paths, see ResultPath, CandidatesPath and DistrictsPath.
type Static struct {
	mu         sync.Mutex
	results    map[string]*models.ResultDocument
	candidates map[string]models.CandidateMap
	districts  map[string][]models.Region
	delays     map[string]time.Duration
	failures   map[string]error
	calls      map[string]int
}

var _ Repository = (*Static)(nil)

// NewStatic returns an empty fixture repository.
func NewStatic() *Static {
	return &Static{
		results:    make(map[string]*models.ResultDocument),
		candidates: make(map[string]models.CandidateMap),
		districts:  make(map[string][]models.Region),
		delays:     make(map[string]time.Duration),
		failures:   make(map[string]error),
		calls:      make(map[string]int),
	}
}

// PutResult stores a result table.
func (s *Static) PutResult(dataset, regionCode string, doc *models.ResultDocument) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[ResultPath(dataset, regionCode)] = doc
	return s
}

// PutCandidates stores a candidate map.
func (s *Static) PutCandidates(dataset string, m models.CandidateMap) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[CandidatesPath(dataset)] = m
	return s
}

// PutDistricts stores a district list.
func (s *Static) PutDistricts(provinceCode string, list []models.Region) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.districts[DistrictsPath(provinceCode)] = list
	return s
}

// Delay makes reads of path block for d or until the context ends.
func (s *Static) Delay(path string, d time.Duration) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
	return s
}

// Fail makes reads of path return err.
func (s *Static) Fail(path string, err error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = err
	return s
}

// Calls reports how many times path was read.
func (s *Static) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// FetchResultTable implements Repository.
func (s *Static) FetchResultTable(ctx context.Context, tier tiers.Tier, regionCode string) (*models.ResultDocument, error) {
	if err := checkCode(regionCode); err != nil {
		return nil, err
	}
	path := ResultPath(tier.Dataset, regionCode)
	if err := s.enter(ctx, path); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.results[path]
	if !ok {
		return nil, fmt.Errorf("fetch %s %s: %w", KindResults, path, ErrNotFound)
	}
	cp := *doc
	return &cp, nil
}

// FetchCandidateMap implements Repository.
func (s *Static) FetchCandidateMap(ctx context.Context, tier tiers.Tier) (models.CandidateMap, error) {
	path := CandidatesPath(tier.Dataset)
	if err := s.enter(ctx, path); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.candidates[path]
	if !ok {
		return nil, fmt.Errorf("fetch %s %s: %w", KindCandidates, path, ErrNotFound)
	}
	return m, nil
}

// FetchDistricts implements Repository.
func (s *Static) FetchDistricts(ctx context.Context, provinceCode string) ([]models.Region, error) {
	if err := checkCode(provinceCode); err != nil {
		return nil, err
	}
	path := DistrictsPath(provinceCode)
	if err := s.enter(ctx, path); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.districts[path]
	if !ok {
		return nil, fmt.Errorf("fetch %s %s: %w", KindDistricts, path, ErrNotFound)
	}
	out := make([]models.Region, len(list))
	copy(out, list)
	return out, nil
}

func (s *Static) enter(ctx context.Context, path string) error {
	s.mu.Lock()
	s.calls[path]++
	delay := s.delays[path]
	failure := s.failures[path]
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return failure
}
