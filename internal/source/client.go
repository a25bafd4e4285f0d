package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/DeafMist/pilkada-radar/backend/internal/metrics"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

// DefaultBaseURL is the published scraper output.
const DefaultBaseURL = "https://raw.githubusercontent.com/razanfawwaz/pilkada-scrap/refs/heads/main"

const tracerName = "github.com/DeafMist/pilkada-radar/backend/internal/source"

// Options configure the HTTP client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RPS        float64 // 0 disables pacing
	Burst      int
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Collector
}

// Client fetches snapshots over HTTP. It never retries; callers decide what a
// failure means for their view.
type Client struct {
	http    *http.Client
	base    *url.URL
	limiter *rate.Limiter
	log     *slog.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

var _ Repository = (*Client)(nil)

// New instantiates the upstream client.
func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimSuffix(raw, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", base.Scheme)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		http:    httpClient,
		base:    base,
		log:     logger,
		metrics: opts.Metrics,
		tracer:  otel.Tracer(tracerName),
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return c, nil
}

// FetchResultTable reads the result table of a tier for regionCode. Use
// models.NationalCode for the nationwide overview.
func (c *Client) FetchResultTable(ctx context.Context, tier tiers.Tier, regionCode string) (*models.ResultDocument, error) {
	if err := checkCode(regionCode); err != nil {
		return nil, err
	}

	var doc models.ResultDocument
	if err := c.getJSON(ctx, KindResults, ResultPath(tier.Dataset, regionCode), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FetchCandidateMap reads the candidate metadata of a tier.
func (c *Client) FetchCandidateMap(ctx context.Context, tier tiers.Tier) (models.CandidateMap, error) {
	var out models.CandidateMap
	if err := c.getJSON(ctx, KindCandidates, CandidatesPath(tier.Dataset), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchDistricts reads the district list of a province.
func (c *Client) FetchDistricts(ctx context.Context, provinceCode string) ([]models.Region, error) {
	if err := checkCode(provinceCode); err != nil {
		return nil, err
	}

	var out []models.Region
	if err := c.getJSON(ctx, KindDistricts, DistrictsPath(provinceCode), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping checks that the candidate map of tier is reachable.
func (c *Client) Ping(ctx context.Context, tier tiers.Tier) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.resolve(CandidatesPath(tier.Dataset)), nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping upstream: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("upstream ping failed: %s", res.Status)
	}
	return nil
}

func (c *Client) resolve(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

func (c *Client) getJSON(ctx context.Context, kind, path string, out any) (err error) {
	target := c.resolve(path)

	ctx, span := c.tracer.Start(ctx, "source.fetch "+kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pilkada.kind", kind),
			attribute.String("url.full", target),
		),
	)
	start := time.Now()
	defer func() {
		c.metrics.ObserveFetch(kind, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", kind, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("fetch %s %s: %w", kind, path, ErrNotFound)
	}
	if res.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("fetch %s failed: %s: %s", kind, res.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}

	c.log.Debug("fetched upstream document", slog.String("kind", kind), slog.String("path", path))
	return nil
}
