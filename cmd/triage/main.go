// Command triage prints or exports the agent queue from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"command-center-go/internal/config"
	"command-center-go/internal/export"
	"command-center-go/internal/logger"
	"command-center-go/internal/mapper"
	"command-center-go/internal/queries"
	"command-center-go/internal/triage"
	"command-center-go/internal/types"
)

type options struct {
	apiURL       string
	driver       string
	language     string
	risk         string
	view         string
	intent       string
	minRiskScore int
	out          string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "triage",
		Short: "Inspect the support agent queue",
		Long: `Fetch driver queries from the queries API and triage them.

Available subcommands:
  list   - Print the filtered queue
  kpis   - Print the queue KPIs and top failure intents
  export - Write the filtered queue and KPIs to an XLSX workbook`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.apiURL, "api", "", "queries API base URL (default from QUERIES_API_URL)")
	pf.StringVar(&opts.driver, "driver", "", "only fetch queries for this driver id")
	pf.StringVar(&opts.language, "language", triage.All, "language filter")
	pf.StringVar(&opts.risk, "risk", triage.All, "risk tag filter")
	pf.StringVar(&opts.view, "view", string(triage.ViewAll), "smart view: all, refund_risk, sla_breach, low_conf")
	pf.StringVar(&opts.intent, "intent", triage.All, "intent label filter")
	pf.IntVar(&opts.minRiskScore, "min-risk-score", 0, "risk score gate for the refund_risk view (default from RISK_SCORE_THRESHOLD)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the filtered queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, cfg, err := load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel, err := opts.selection(cmd, cfg)
			if err != nil {
				return err
			}
			return printQueue(cmd.OutOrStdout(), triage.Filter(qs, sel))
		},
	}

	kpisCmd := &cobra.Command{
		Use:   "kpis",
		Short: "Print the queue KPIs and top failure intents",
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, _, err := load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), triage.Summarize(qs))
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered queue and KPIs to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, cfg, err := load(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel, err := opts.selection(cmd, cfg)
			if err != nil {
				return err
			}
			f, err := os.Create(opts.out)
			if err != nil {
				return fmt.Errorf("create %s: %w", opts.out, err)
			}
			defer f.Close()
			if err := export.WriteXLSX(f, triage.Filter(qs, sel), triage.Summarize(qs)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.out)
			return f.Close()
		},
	}
	exportCmd.Flags().StringVarP(&opts.out, "out", "o", "agent-queue.xlsx", "output workbook path")

	root.AddCommand(listCmd, kpisCmd, exportCmd)
	return root
}

// selection builds the filters; an unset --min-risk-score falls back to the configured threshold.
func (o *options) selection(cmd *cobra.Command, cfg *config.Config) (triage.Selection, error) {
	view, err := triage.ParseView(o.view)
	if err != nil {
		return triage.Selection{}, err
	}
	risk, err := triage.ParseRisk(o.risk)
	if err != nil {
		return triage.Selection{}, err
	}
	minScore := o.minRiskScore
	if !cmd.Flags().Changed("min-risk-score") {
		minScore = cfg.RiskScoreThreshold
	}
	return triage.Selection{
		Language:     o.language,
		Risk:         risk,
		Intent:       o.intent,
		View:         view,
		MinRiskScore: minScore,
	}, nil
}

// load fetches and maps the queue once.
func load(ctx context.Context, o *options) ([]types.DisplayQuery, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	base := cfg.QueriesAPIURL
	if o.apiURL != "" {
		base = o.apiURL
	}
	log := logger.NewWithOptions(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel, Output: os.Stderr})

	client := queries.NewClient(base,
		queries.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		queries.WithLogger(log),
	)
	raws, err := client.Fetch(ctx, strings.TrimSpace(o.driver))
	if err != nil {
		return nil, nil, err
	}
	return mapper.MapAll(raws), cfg, nil
}

func printQueue(w io.Writer, qs []types.DisplayQuery) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tDRIVER\tLANGUAGE\tINTENT\tCONF\tRISK")
	for _, q := range qs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d%%\t%s\n",
			q.ID, q.Timestamp.UTC().Format(time.RFC3339), q.DriverID, q.Language,
			q.IntentPredicted, triage.Percent(q.IntentConfidence), q.RiskTag)
	}
	fmt.Fprintf(tw, "\n%d queries\n", len(qs))
	return tw.Flush()
}

func printSummary(w io.Writer, s triage.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	fmt.Fprintf(tw, "High risk\t%d\n", s.HighRisk)
	fmt.Fprintf(tw, "Avg confidence\t%d%%\n", s.AvgConfidence)
	fmt.Fprintf(tw, "SLA breaches\t%d\n", s.SLABreaches)
	fmt.Fprintf(tw, "Low confidence\t%d\n", s.LowConfidence)
	if len(s.TopIntents) > 0 {
		fmt.Fprintln(tw, "\nTop failure intents")
		for _, in := range s.TopIntents {
			fmt.Fprintf(tw, "  %s\t%d\t%d%%\n", in.Intent, in.Count, in.Percent)
		}
	}
	return tw.Flush()
}
