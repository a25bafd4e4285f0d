// Package tiers loads the election tier definitions: which upstream dataset a
// tier reads, how tally fields are told apart from reserved ones, and how
// candidate metadata is keyed.
package tiers

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/DeafMist/pilkada-radar/backend/internal/aggregate"
)

//go:embed tiers.yaml
var defaultYAML []byte

// ErrUnknownTier is returned for names missing from the configuration.
var ErrUnknownTier = errors.New("unknown tier")

// Candidate scopes.
const (
	ScopeRegion   = "region"
	ScopeProvince = "province"
)

// PolicyConfig selects exactly one tally selection policy.
type PolicyConfig struct {
	Exclude []string `yaml:"exclude" json:"exclude,omitempty" validate:"omitempty,dive,required"`
	Prefix  string   `yaml:"prefix" json:"prefix,omitempty"`
}

// Tier is one election level.
type Tier struct {
	Name           string       `yaml:"name" json:"name" validate:"required,alphanum,lowercase"`
	Title          string       `yaml:"title" json:"title" validate:"required,max=200"`
	Dataset        string       `yaml:"dataset" json:"dataset" validate:"required,alphanum"`
	Policy         PolicyConfig `yaml:"policy" json:"policy"`
	CandidateScope string       `yaml:"candidate_scope" json:"candidate_scope" validate:"required,oneof=region province"`
	Overview       bool         `yaml:"overview" json:"overview"`
}

// Config is the YAML document root.
type Config struct {
	Tiers []Tier `yaml:"tiers" validate:"required,min=1,unique=Name,dive"`
}

// Selection builds the aggregator policy of the tier.
func (t Tier) Selection() aggregate.Policy {
	if t.Policy.Prefix != "" {
		return aggregate.Prefix(t.Policy.Prefix)
	}
	return aggregate.Exclude(t.Policy.Exclude...)
}

// CandidateKey resolves which candidate-map entry describes regionCode when
// provinceCode is the selected province. Overview pages pass an empty
// provinceCode and always use the region code.
func (t Tier) CandidateKey(regionCode, provinceCode string) string {
	if t.CandidateScope != ScopeProvince || provinceCode == "" {
		return regionCode
	}
	if len(provinceCode) > 2 {
		return provinceCode[:2]
	}
	return provinceCode
}

// Set is a validated, ordered collection of tiers.
type Set struct {
	tiers  []Tier
	byName map[string]Tier
}

// Default returns the embedded tier set.
func Default() (*Set, error) {
	return Parse(defaultYAML)
}

// Load reads the tier set from path, or the embedded default when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read tiers file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a tiers document.
func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse tiers: %w", err)
	}

	if err := newValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate tiers: %w", err)
	}

	s := &Set{tiers: cfg.Tiers, byName: make(map[string]Tier, len(cfg.Tiers))}
	for _, t := range cfg.Tiers {
		s.byName[t.Name] = t
	}
	return s, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(PolicyConfig)
		hasExclude := len(p.Exclude) > 0
		hasPrefix := p.Prefix != ""
		if hasExclude == hasPrefix {
			sl.ReportError(p.Prefix, "policy", "Prefix", "onepolicy", "")
		}
	}, PolicyConfig{})
	return v
}

// Get looks a tier up by name.
func (s *Set) Get(name string) (Tier, error) {
	t, ok := s.byName[name]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
	}
	return t, nil
}

// All returns tiers in configuration order.
func (s *Set) All() []Tier {
	out := make([]Tier, len(s.tiers))
	copy(out, s.tiers)
	return out
}

// First returns the first configured tier.
func (s *Set) First() Tier {
	return s.tiers[0]
}

// Next returns the tier after name, wrapping around.
func (s *Set) Next(name string) Tier {
	for i, t := range s.tiers {
		if t.Name == name {
			return s.tiers[(i+1)%len(s.tiers)]
		}
	}
	return s.tiers[0]
}
