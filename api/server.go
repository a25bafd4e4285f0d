package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DeafMist/pilkada-radar/backend/internal/config"
	"github.com/DeafMist/pilkada-radar/backend/internal/dashboard"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/render"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

const maxChartSize = 1024

type pinger interface {
	Ping(ctx context.Context, tier tiers.Tier) error
}

type server struct {
	log      *slog.Logger
	cfg      *config.API
	svc      *dashboard.Service
	upstream pinger
	gatherer prometheus.Gatherer
}

func newServer(log *slog.Logger, cfg *config.API, svc *dashboard.Service, upstream pinger, gatherer prometheus.Gatherer) *server {
	return &server{log: log, cfg: cfg, svc: svc, upstream: upstream, gatherer: gatherer}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/tiers", s.handleTiers)
		r.Get("/regions", s.handleRegions)
		r.Get("/{tier}/districts/{province}", s.handleDistricts)
		r.Get("/{tier}/dashboard", s.handleDashboard)
	})

	r.Get("/charts/{tier}/{region}.svg", s.handleChart)
	r.Get("/", s.handleIndex)
	r.Get("/{tier}", s.handlePage)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.upstream != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.upstream.Ping(ctx, s.svc.Tiers().First()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleTiers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Tiers().All())
}

func (s *server) handleRegions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, s.svc.Provinces().All())
		return
	}

	found := s.svc.Provinces().Search(query)
	if found == nil {
		found = []models.Region{}
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Tiers().Get(chi.URLParam(r, "tier")); err != nil {
		writeError(w, err)
		return
	}

	dir, err := s.svc.Loader().LoadDistricts(r.Context(), chi.URLParam(r, "province"))
	if err != nil {
		s.log.Warn("load districts", slog.String("province", chi.URLParam(r, "province")), slog.Any("err", err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dir.All())
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := s.svc.Page(r.Context(), chi.URLParam(r, "tier"), sel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/"+s.svc.Tiers().First().Name, http.StatusFound)
}

// handlePage renders the HTML dashboard. Load failures only empty the
// affected section.
func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	tier, err := s.svc.Tiers().Get(chi.URLParam(r, "tier"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sel, err := selectionFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := s.svc.Page(r.Context(), tier.Name, sel)
	if err != nil {
		s.log.Warn("build page",
			slog.String("tier", tier.Name),
			slog.String("province", sel.Province),
			slog.Any("err", err),
		)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = render.Page(w, render.PageData{
		Page:      page,
		Provinces: s.svc.Provinces().All(),
		Next:      s.svc.Tiers().Next(tier.Name),
		ChartSize: s.cfg.ChartSize,
	})
	if err != nil {
		s.log.Error("render page", slog.Any("err", err))
	}
}

func (s *server) handleChart(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")
	sel, err := selectionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := s.svc.Page(r.Context(), chi.URLParam(r, "tier"), dashboard.Selection{Province: sel.Province})
	if err != nil {
		writeError(w, err)
		return
	}

	card, ok := findCard(page, region)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "region not found"})
		return
	}

	size := clampInt(r.URL.Query().Get("size"), s.cfg.ChartSize, maxChartSize)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	if err := render.PieSVG(w, card.Entries(), size); err != nil {
		s.log.Error("render chart", slog.String("region", region), slog.Any("err", err))
	}
}

func selectionFrom(r *http.Request) (dashboard.Selection, error) {
	sel := dashboard.Selection{
		Province: strings.TrimSpace(r.URL.Query().Get("province")),
		District: strings.TrimSpace(r.URL.Query().Get("district")),
	}
	for _, code := range []string{sel.Province, sel.District} {
		if code != "" && !source.ValidCode(code) {
			return sel, source.ErrInvalidCode
		}
	}
	if sel.District != "" && sel.Province == "" {
		return sel, dashboard.ErrNoProvince
	}
	return sel, nil
}

func findCard(page dashboard.Page, code string) (dashboard.Card, bool) {
	for _, c := range page.Cards {
		if c.Code == code {
			return c, true
		}
	}
	return dashboard.Card{}, false
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tiers.ErrUnknownTier), errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, source.ErrInvalidCode), errors.Is(err, dashboard.ErrNoProvince):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
