package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/DeafMist/pilkada-radar/backend/internal/dashboard"
	"github.com/DeafMist/pilkada-radar/backend/internal/models"
)

func newRegionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "regions [query]",
		Short: "List provinces, or search them by code or name",
		Long: `Lists the provinces the dashboards cover. With a query, matches codes and
names exactly first, then by substring, then by closest spelling.

Examples:
  pilkadactl regions
  pilkadactl regions "jawa barat"
  pilkadactl regions jakrta`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := a.svc.Provinces().All()
			if len(args) == 1 {
				list = a.svc.Provinces().Search(args[0])
				if len(list) == 0 {
					return fmt.Errorf("no province matches %q", args[0])
				}
			}

			if a.asJSON {
				return a.printJSON(cmd.OutOrStdout(), list)
			}
			fmt.Fprintln(cmd.OutOrStdout(), regionTable(list))
			return nil
		},
	}
}

func newOverviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show the nationwide overview of a tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			tier, err := a.svc.Tiers().Get(a.tier)
			if err != nil {
				return err
			}
			if !tier.Overview {
				return fmt.Errorf("tier %s has no nationwide overview", tier.Name)
			}

			page, err := a.svc.Page(ctx, tier.Name, dashboard.Selection{})
			if err != nil {
				return err
			}
			return a.printPage(cmd, page)
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var province, district string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the district results of a province",
		Long: `Shows the district cards of a province. The province accepts a code or a
name understood by "pilkadactl regions".

Examples:
  pilkadactl show --tier gubernur --province 32
  pilkadactl show --tier bupati --province "jawa barat" --district 3273`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			code, err := a.resolveProvince(province)
			if err != nil {
				return err
			}

			page, err := a.svc.Page(ctx, a.tier, dashboard.Selection{Province: code, District: district})
			if err != nil {
				return err
			}
			return a.printPage(cmd, page)
		},
	}

	cmd.Flags().StringVarP(&province, "province", "p", "", "province code or name")
	cmd.Flags().StringVarP(&district, "district", "d", "", "district code")
	_ = cmd.MarkFlagRequired("province")
	return cmd
}

// resolveProvince turns a code or a name into exactly one province code.
func (a *app) resolveProvince(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("province is required")
	}
	if _, ok := a.svc.Provinces().Lookup(query); ok {
		return query, nil
	}

	found := a.svc.Provinces().Search(query)
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no province matches %q", query)
	case 1:
		return found[0].Code, nil
	default:
		names := make([]string, 0, len(found))
		for _, r := range found {
			names = append(names, r.Name)
		}
		return "", fmt.Errorf("province %q is ambiguous: %s", query, strings.Join(names, ", "))
	}
}

func (a *app) printPage(cmd *cobra.Command, page dashboard.Page) error {
	if a.asJSON {
		return a.printJSON(cmd.OutOrStdout(), page)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderPage(page, 40))
	return nil
}

func regionTable(list []models.Region) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		Headers("KODE", "NAMA")
	for _, r := range list {
		t.Row(r.Code, r.Name)
	}
	return t.String()
}
