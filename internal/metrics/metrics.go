// Package metrics exposes Prometheus collectors for upstream fetches, page
// builds and snapshot notifications.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the dashboard metrics. A nil *Collector records nothing.
type Collector struct {
	fetches         *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec
	pageBuilds      *prometheus.CounterVec
	staleResponses  *prometheus.CounterVec
	snapshotUpdates *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pilkada_upstream_fetch_total",
				Help: "Upstream document fetches by kind and outcome.",
			},
			[]string{"kind", "status"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pilkada_upstream_fetch_duration_seconds",
				Help:    "Latency of upstream document fetches.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		pageBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pilkada_page_builds_total",
				Help: "Dashboard pages built by tier and view.",
			},
			[]string{"tier", "view"},
		),
		staleResponses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pilkada_stale_responses_total",
				Help: "Responses dropped because a newer selection superseded them.",
			},
			[]string{"tier"},
		),
		snapshotUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pilkada_snapshot_updates_total",
				Help: "Snapshot update notifications published.",
			},
			[]string{"tier"},
		),
	}
}

// ObserveFetch records one upstream fetch.
func (c *Collector) ObserveFetch(kind string, d time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.fetches.WithLabelValues(kind, status).Inc()
	c.fetchLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// PageBuilt records a page build.
func (c *Collector) PageBuilt(tier, view string) {
	if c == nil {
		return
	}
	c.pageBuilds.WithLabelValues(tier, view).Inc()
}

// StaleDropped records a discarded stale response.
func (c *Collector) StaleDropped(tier string) {
	if c == nil {
		return
	}
	c.staleResponses.WithLabelValues(tier).Inc()
}

// SnapshotPublished records a published snapshot notification.
func (c *Collector) SnapshotPublished(tier string) {
	if c == nil {
		return
	}
	c.snapshotUpdates.WithLabelValues(tier).Inc()
}
