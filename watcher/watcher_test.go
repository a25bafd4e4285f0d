package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/pilkada-radar/backend/internal/dedupe"
	"github.com/DeafMist/pilkada-radar/backend/internal/metrics"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

type stubPublisher struct {
	msgs []kafka.Message
	err  error
}

func (s *stubPublisher) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func snapshot(ts string, completed, total int64) *models.ResultDocument {
	progress := models.Progress{Total: total, Progres: completed}
	return &models.ResultDocument{
		Mode:     "hhcw",
		TS:       ts,
		Progress: progress,
		Tungsura: models.Tungsura{Chart: models.Chart{Progress: &progress}},
	}
}

func newWatcher(t *testing.T, repo source.Repository, pub publisher, provinces ...string) (*watcher, *prometheus.Registry) {
	t.Helper()
	set, err := tiers.Default()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	return &watcher{
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		repo:      repo,
		publisher: pub,
		cache:     dedupe.NewCache(100, time.Hour),
		metrics:   metrics.New(reg),
		targets:   buildTargets(set.All(), provinces),
		now:       func() time.Time { return time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC) },
	}, reg
}

func TestBuildTargets(t *testing.T) {
	set, err := tiers.Default()
	require.NoError(t, err)

	targets := buildTargets(set.All(), []string{"32"})
	var got []string
	for _, tg := range targets {
		got = append(got, tg.tier.Name+"/"+tg.region)
	}
	require.Equal(t, []string{"bupati/32", "gubernur/0", "gubernur/32"}, got)

	require.Len(t, buildTargets(set.All(), nil), 1)

	bupati, err := set.Get("bupati")
	require.NoError(t, err)
	require.Empty(t, buildTargets([]tiers.Tier{bupati}, nil))
}

func TestTickPublishesNewSnapshotsOnce(t *testing.T) {
	repo := source.NewStatic().
		PutResult("pkwkp", models.NationalCode, snapshot("2024-12-01 10:00:00", 50, 200))
	pub := &stubPublisher{}
	w, reg := newWatcher(t, repo, pub)

	require.Equal(t, 1, w.tick(context.Background()))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	require.Equal(t, "gubernur/0", string(msg.Key))

	var event snapshotUpdated
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	require.Equal(t, "gubernur", event.Tier)
	require.Equal(t, "0", event.Region)
	require.Equal(t, int64(50), event.Completed)
	require.InDelta(t, 25.0, event.Percent, 1e-9)
	require.Equal(t, time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC), event.ObservedAt)

	require.Zero(t, w.tick(context.Background()))
	require.Len(t, pub.msgs, 1)

	repo.PutResult("pkwkp", models.NationalCode, snapshot("2024-12-01 10:05:00", 60, 200))
	require.Equal(t, 1, w.tick(context.Background()))
	require.Len(t, pub.msgs, 2)

	require.InDelta(t, 2.0, snapshotCount(t, reg, "gubernur"), 1e-9)
}

func snapshotCount(t *testing.T, reg *prometheus.Registry, tier string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "pilkada_snapshot_updates_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "tier" && l.GetValue() == tier {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestTickRetriesFailedPublish(t *testing.T) {
	repo := source.NewStatic().
		PutResult("pkwkp", models.NationalCode, snapshot("2024-12-01 10:00:00", 50, 200))
	pub := &stubPublisher{err: errors.New("broker unavailable")}
	w, _ := newWatcher(t, repo, pub)

	require.Zero(t, w.tick(context.Background()))
	require.Empty(t, pub.msgs)

	pub.err = nil
	require.Equal(t, 1, w.tick(context.Background()))
	require.Len(t, pub.msgs, 1)
}

func TestTickSkipsInvalidOverviewAndFetchErrors(t *testing.T) {
	bad := snapshot("2024-12-01 10:00:00", 50, 200)
	bad.Mode = "other"
	repo := source.NewStatic().
		PutResult("pkwkp", models.NationalCode, bad).
		PutResult("pkwkk", "32", snapshot("2024-12-01 10:00:00", 10, 40))
	pub := &stubPublisher{}
	w, _ := newWatcher(t, repo, pub, "32")

	require.Equal(t, 1, w.tick(context.Background()))
	require.Len(t, pub.msgs, 1)
	require.Equal(t, "bupati/32", string(pub.msgs[0].Key))
}

func TestTickStopsOnCanceledContext(t *testing.T) {
	repo := source.NewStatic().
		PutResult("pkwkp", models.NationalCode, snapshot("2024-12-01 10:00:00", 50, 200))
	pub := &stubPublisher{}
	w, _ := newWatcher(t, repo, pub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Zero(t, w.tick(ctx))
	require.Empty(t, pub.msgs)
}

func TestProcessSnapshotRejectsNil(t *testing.T) {
	w, _ := newWatcher(t, source.NewStatic(), &stubPublisher{})
	_, err := w.processSnapshot(context.Background(), tiers.Tier{Name: "bupati"}, "32", nil)
	require.Error(t, err)
}
