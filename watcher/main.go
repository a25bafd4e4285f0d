package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/pilkada-radar/backend/internal/config"
	"github.com/DeafMist/pilkada-radar/backend/internal/dedupe"
	"github.com/DeafMist/pilkada-radar/backend/internal/logger"
	"github.com/DeafMist/pilkada-radar/backend/internal/metrics"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

func main() {
	log := logger.New("watcher")
	cfg, err := config.LoadWatcher()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	tierSet, err := tiers.Load(cfg.TiersFile)
	if err != nil {
		log.Error("load tiers", slog.Any("err", err))
		os.Exit(1)
	}

	targets := buildTargets(tierSet.All(), cfg.Provinces)
	if len(targets) == 0 {
		log.Error("nothing to watch: no tier has an overview and WATCH_PROVINCES is empty")
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	upstream, err := source.New(source.Options{
		BaseURL: cfg.UpstreamBaseURL,
		Timeout: cfg.UpstreamTimeout,
		RPS:     cfg.UpstreamRPS,
		Burst:   cfg.UpstreamBurst,
		Logger:  log,
		Metrics: m,
	})
	if err != nil {
		log.Error("init upstream client", slog.Any("err", err))
		os.Exit(1)
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic,
		Balancer:    &kafka.Hash{},
		MaxAttempts: 3,
	})
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", slog.Any("err", err))
			}
		}()
		defer metricsServer.Close()
	}

	w := &watcher{
		log:       log,
		repo:      upstream,
		publisher: writer,
		cache:     dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL),
		metrics:   m,
		targets:   targets,
	}

	log.Info("watcher started",
		slog.String("topic", cfg.KafkaTopic),
		slog.Int("targets", len(w.targets)),
		slog.Duration("interval", cfg.Interval),
	)

	w.run(ctx, cfg.Interval)
	log.Info("context canceled, stopping")
}
