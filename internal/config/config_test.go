package config_test

import (
	"testing"
	"time"

	"github.com/DeafMist/pilkada-radar/backend/internal/config"
	"github.com/stretchr/testify/require"
)

func clearCommon(t *testing.T) {
	t.Helper()
	for _, key := range []string{"UPSTREAM_BASE_URL", "UPSTREAM_TIMEOUT", "UPSTREAM_RPS", "UPSTREAM_BURST", "TIERS_FILE"} {
		t.Setenv(key, "")
	}
}

func TestLoadWatcherDefaults(t *testing.T) {
	clearCommon(t)
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("WATCH_INTERVAL", "")
	t.Setenv("WATCH_PROVINCES", "")

	cfg, err := config.LoadWatcher()
	require.NoError(t, err)

	require.Equal(t, config.DefaultUpstream, cfg.UpstreamBaseURL)
	require.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	require.Zero(t, cfg.UpstreamRPS)
	require.Equal(t, 4, cfg.UpstreamBurst)
	require.Empty(t, cfg.TiersFile)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "pilkada_snapshots", cfg.KafkaTopic)
	require.Equal(t, 5*time.Minute, cfg.Interval)
	require.Empty(t, cfg.Provinces)
}

func TestLoadWatcherOverrides(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "http://mirror.local/data/")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("UPSTREAM_RPS", "2.5")
	t.Setenv("UPSTREAM_BURST", "1")
	t.Setenv("TIERS_FILE", "/etc/pilkada/tiers.yaml")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092, broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("WATCH_INTERVAL", "30s")
	t.Setenv("WATCH_PROVINCES", "32, 35")
	t.Setenv("WATCH_DEDUPE_CAPACITY", "5")
	t.Setenv("WATCH_DEDUPE_TTL", "48h")
	t.Setenv("WATCH_METRICS_ADDR", ":9091")

	cfg, err := config.LoadWatcher()
	require.NoError(t, err)

	require.Equal(t, "http://mirror.local/data", cfg.UpstreamBaseURL)
	require.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	require.InDelta(t, 2.5, cfg.UpstreamRPS, 1e-9)
	require.Equal(t, 1, cfg.UpstreamBurst)
	require.Equal(t, "/etc/pilkada/tiers.yaml", cfg.TiersFile)
	require.Equal(t, []string{"broker-a:29092", "broker-b:29093"}, cfg.KafkaBrokers)
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, 30*time.Second, cfg.Interval)
	require.Equal(t, []string{"32", "35"}, cfg.Provinces)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, ":9091", cfg.MetricsAddr)
}

func TestLoadWatcherRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad province":    {"WATCH_PROVINCES": "32,jabar"},
		"zero capacity":   {"WATCH_DEDUPE_CAPACITY": "0"},
		"negative rps":    {"UPSTREAM_RPS": "-1"},
		"relative url":    {"UPSTREAM_BASE_URL": "mirror.local"},
		"ftp url":         {"UPSTREAM_BASE_URL": "ftp://mirror.local"},
		"zero burst":      {"UPSTREAM_BURST": "0"},
		"negative period": {"WATCH_INTERVAL": "-1m"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearCommon(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.LoadWatcher()
			require.Error(t, err)
		})
	}
}

func TestLoadAPI(t *testing.T) {
	clearCommon(t)
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_CHART_SIZE", "240")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 240, cfg.ChartSize)
	require.Equal(t, config.DefaultUpstream, cfg.UpstreamBaseURL)

	t.Setenv("API_CHART_SIZE", "-5")
	_, err = config.LoadAPI()
	require.Error(t, err)
}

func TestLoadCLI(t *testing.T) {
	clearCommon(t)
	t.Setenv("PILKADA_TIER", "gubernur")
	t.Setenv("UPSTREAM_TIMEOUT", "not-a-duration")

	cfg, err := config.LoadCLI()
	require.NoError(t, err)
	require.Equal(t, "gubernur", cfg.DefaultTier)
	require.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
}
