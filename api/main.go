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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/DeafMist/pilkada-radar/backend/internal/config"
	"github.com/DeafMist/pilkada-radar/backend/internal/dashboard"
	"github.com/DeafMist/pilkada-radar/backend/internal/logger"
	"github.com/DeafMist/pilkada-radar/backend/internal/metrics"
	"github.com/DeafMist/pilkada-radar/backend/internal/regions"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	tierSet, err := tiers.Load(cfg.TiersFile)
	if err != nil {
		log.Error("load tiers", slog.Any("err", err))
		os.Exit(1)
	}

	provinces, err := regions.Provinces()
	if err != nil {
		log.Error("load provinces", slog.Any("err", err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
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

	svc := dashboard.NewService(tierSet, dashboard.NewLoader(upstream, log), provinces, log, m)
	srv := newServer(log, cfg, svc, upstream, reg)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.String("upstream", cfg.UpstreamBaseURL),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
