package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeafMist/pilkada-radar/backend/internal/config"
	"github.com/DeafMist/pilkada-radar/backend/internal/dashboard"
	"github.com/DeafMist/pilkada-radar/backend/internal/logger"
	"github.com/DeafMist/pilkada-radar/backend/internal/regions"
	"github.com/DeafMist/pilkada-radar/backend/internal/source"
	"github.com/DeafMist/pilkada-radar/backend/internal/tiers"
)

type serviceFactory func(cfg *config.CLI, log *slog.Logger) (*dashboard.Service, error)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	log     *slog.Logger
	cfg     *config.CLI
	svc     *dashboard.Service
	tier    string
	timeout time.Duration
	asJSON  bool
}

func newRootCmd(factory serviceFactory) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "pilkadactl",
		Short:        "Inspect regional election results from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.log = logger.NewTo(cmd.ErrOrStderr(), "pilkadactl")

			cfg, err := config.LoadCLI()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			if a.tier == "" {
				a.tier = cfg.DefaultTier
			}

			svc, err := factory(cfg, a.log)
			if err != nil {
				return err
			}
			a.svc = svc

			if _, err := svc.Tiers().Get(a.tier); err != nil {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.tier, "tier", "t", "", "election tier (defaults to PILKADA_TIER)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "overall deadline for upstream requests")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		newRegionsCmd(a),
		newOverviewCmd(a),
		newShowCmd(a),
		newTUICmd(a),
	)
	return root
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, a.timeout)
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newService wires the HTTP upstream.
func newService(cfg *config.CLI, log *slog.Logger) (*dashboard.Service, error) {
	tierSet, err := tiers.Load(cfg.TiersFile)
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}

	provinces, err := regions.Provinces()
	if err != nil {
		return nil, fmt.Errorf("load provinces: %w", err)
	}

	upstream, err := source.New(source.Options{
		BaseURL: cfg.UpstreamBaseURL,
		Timeout: cfg.UpstreamTimeout,
		RPS:     cfg.UpstreamRPS,
		Burst:   cfg.UpstreamBurst,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("init upstream client: %w", err)
	}

	return dashboard.NewService(tierSet, dashboard.NewLoader(upstream, log), provinces, log, nil), nil
}
