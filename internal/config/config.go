package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DeafMist/pilkada-radar/backend/internal/source"
)

// DefaultUpstream is the public scrape mirror the dashboards read from.
const DefaultUpstream = "https://raw.githubusercontent.com/razanfawwaz/pilkada-scrap/refs/heads/main"

// Common contains upstream parameters shared by every binary.
type Common struct {
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	UpstreamRPS     float64
	UpstreamBurst   int
	TiersFile       string
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr  string
	ChartSize int
}

// Watcher holds configuration for the snapshot watcher.
type Watcher struct {
	Common
	KafkaBrokers   []string
	KafkaTopic     string
	Interval       time.Duration
	Provinces      []string
	DedupeCapacity int
	DedupeTTL      time.Duration
	MetricsAddr    string
}

// CLI configures pilkadactl. Flags override these values.
type CLI struct {
	Common
	DefaultTier string
	ChartSize   int
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:    common,
		BindAddr:  getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		ChartSize: getInt("API_CHART_SIZE", 320),
	}

	if c.ChartSize <= 0 {
		return nil, fmt.Errorf("API_CHART_SIZE must be positive")
	}

	return c, nil
}

// LoadWatcher builds a Watcher config from environment variables.
func LoadWatcher() (*Watcher, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Watcher{
		Common:         common,
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "pilkada_snapshots"),
		Interval:       getDuration("WATCH_INTERVAL", "5m"),
		Provinces:      splitAndTrim(getEnv("WATCH_PROVINCES", "")),
		DedupeCapacity: getInt("WATCH_DEDUPE_CAPACITY", 5000),
		DedupeTTL:      getDuration("WATCH_DEDUPE_TTL", "24h"),
		MetricsAddr:    getEnv("WATCH_METRICS_ADDR", ""),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("WATCH_INTERVAL must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WATCH_DEDUPE_CAPACITY must be positive")
	}
	for _, p := range c.Provinces {
		if !source.ValidCode(p) {
			return nil, fmt.Errorf("WATCH_PROVINCES contains invalid code %q", p)
		}
	}

	return c, nil
}

// LoadCLI builds the pilkadactl defaults from environment variables.
func LoadCLI() (*CLI, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	return &CLI{
		Common:      common,
		DefaultTier: getEnv("PILKADA_TIER", "bupati"),
		ChartSize:   getInt("API_CHART_SIZE", 320),
	}, nil
}

func loadCommon() (Common, error) {
	c := Common{
		UpstreamBaseURL: strings.TrimRight(getEnv("UPSTREAM_BASE_URL", DefaultUpstream), "/"),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", "10s"),
		UpstreamRPS:     getFloat("UPSTREAM_RPS", 0),
		UpstreamBurst:   getInt("UPSTREAM_BURST", 4),
		TiersFile:       getEnv("TIERS_FILE", ""),
	}

	u, err := url.Parse(c.UpstreamBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Common{}, fmt.Errorf("UPSTREAM_BASE_URL must be an absolute http(s) URL")
	}
	if c.UpstreamTimeout <= 0 {
		return Common{}, fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.UpstreamRPS < 0 {
		return Common{}, fmt.Errorf("UPSTREAM_RPS cannot be negative")
	}
	if c.UpstreamBurst <= 0 {
		return Common{}, fmt.Errorf("UPSTREAM_BURST must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
