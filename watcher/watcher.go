package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/pilkada-radar/backend/internal/dashboard"
	"github.com/DeafMist/pilkada-radar/backend/internal/dedupe"
	"github.com/DeafMist/pilkada-radar/backend/internal/metrics"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

// snapshotUpdated is published once per new (tier, region, ts).
type snapshotUpdated struct {
	ID         string    `json:"id"`
	Tier       string    `json:"tier"`
	Region     string    `json:"region"`
	TS         string    `json:"ts"`
	Completed  int64     `json:"completed"`
	Total      int64     `json:"total"`
	Percent    float64   `json:"percent"`
	ObservedAt time.Time `json:"observed_at"`
}

type publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type target struct {
	tier   tiers.Tier
	region string
}

type watcher struct {
	log       *slog.Logger
	repo      source.Repository
	publisher publisher
	cache     *dedupe.Cache
	metrics   *metrics.Collector
	targets   []target
	now       func() time.Time
}

// buildTargets lists the national overview of every tier that has one, then
// each configured province of every tier.
func buildTargets(all []tiers.Tier, provinces []string) []target {
	var out []target
	for _, t := range all {
		if t.Overview {
			out = append(out, target{tier: t, region: models.NationalCode})
		}
		for _, p := range provinces {
			out = append(out, target{tier: t, region: p})
		}
	}
	return out
}

func (w *watcher) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		published := w.tick(ctx)
		w.log.Debug("tick done", slog.Int("published", published))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick polls every target once and returns how many events were published.
// Failures are logged; the next tick retries them.
func (w *watcher) tick(ctx context.Context) int {
	published := 0
	for _, tg := range w.targets {
		if ctx.Err() != nil {
			return published
		}

		doc, err := w.repo.FetchResultTable(ctx, tg.tier, tg.region)
		if err != nil {
			w.log.Warn("fetch snapshot",
				slog.String("tier", tg.tier.Name),
				slog.String("region", tg.region),
				slog.Any("err", err),
			)
			continue
		}

		if tg.region == models.NationalCode {
			if err := dashboard.ValidateOverview(doc); err != nil {
				w.log.Warn("skip overview", slog.String("tier", tg.tier.Name), slog.Any("err", err))
				continue
			}
		}

		sent, err := w.processSnapshot(ctx, tg.tier, tg.region, doc)
		if err != nil {
			w.log.Error("publish snapshot",
				slog.String("tier", tg.tier.Name),
				slog.String("region", tg.region),
				slog.Any("err", err),
			)
			continue
		}
		if sent {
			published++
		}
	}
	return published
}

// processSnapshot publishes doc unless its key was already announced. The
// key is marked only after a successful write.
func (w *watcher) processSnapshot(ctx context.Context, tier tiers.Tier, region string, doc *models.ResultDocument) (bool, error) {
	if doc == nil {
		return false, errors.New("empty snapshot")
	}

	key := dedupe.SnapshotKey(tier.Name, region, doc.TS)
	if w.cache.IsSeen(key) {
		w.log.Debug("snapshot unchanged", slog.String("tier", tier.Name), slog.String("region", region))
		return false, nil
	}

	now := time.Now
	if w.now != nil {
		now = w.now
	}

	event := snapshotUpdated{
		ID:         uuid.NewString(),
		Tier:       tier.Name,
		Region:     region,
		TS:         doc.TS,
		Completed:  doc.Progress.Progres,
		Total:      doc.Progress.Total,
		Percent:    doc.Progress.Percent(),
		ObservedAt: now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return false, fmt.Errorf("encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(tier.Name + "/" + region),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("snapshot_updated")},
			{Key: "id", Value: []byte(event.ID)},
		},
	}
	if err := w.publisher.WriteMessages(ctx, msg); err != nil {
		return false, fmt.Errorf("write message: %w", err)
	}

	w.cache.MarkSeen(key)
	w.metrics.SnapshotPublished(tier.Name)
	w.log.Info("snapshot published",
		slog.String("id", event.ID),
		slog.String("tier", tier.Name),
		slog.String("region", region),
		slog.String("ts", doc.TS),
	)
	return true, nil
}
