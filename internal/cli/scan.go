package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/scan"
)

// runFlags are shared by scan and backtest. Zero values fall back to the
// loaded configuration.
type runFlags struct {
	symbols  []string
	interval string
	days     int
	end      string
	kinds    []string
	workers  int
	json     bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.symbols, "symbols", "s", nil, "Comma separated symbols (default: scan.symbols)")
	cmd.Flags().StringVarP(&f.interval, "interval", "i", "", "Bar interval: 15m, 1h, 1d (default: scan.interval)")
	cmd.Flags().IntVarP(&f.days, "days", "d", 0, "Days of history (default: scan.lookback_days)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last day of history, YYYY-MM-DD (default: now)")
	cmd.Flags().StringSliceVarP(&f.kinds, "kinds", "k", nil, "Detection kinds to run (default: all)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Symbols analysed concurrently (default: scan.workers)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Write the report as JSON")
}

// resolve applies flags over cfg and returns the parameters and window to
// run with.
func (f *runFlags) resolve(cfg *config.Config) (config.Params, scan.Window, []string, error) {
	p := cfg.Analysis
	if len(f.kinds) > 0 {
		kinds, err := market.ParseKinds(f.kinds)
		if err != nil {
			return p, scan.Window{}, nil, err
		}
		p = p.WithKinds(kinds)
	}
	if err := p.Validate(); err != nil {
		return p, scan.Window{}, nil, err
	}

	ivName := cfg.Scan.Interval
	if f.interval != "" {
		ivName = f.interval
	}
	iv, err := market.ParseInterval(ivName)
	if err != nil {
		return p, scan.Window{}, nil, err
	}

	days := cfg.Scan.LookbackDays
	if f.days > 0 {
		days = f.days
	}
	end := time.Now().UTC()
	if f.end != "" {
		day, err := time.Parse("2006-01-02", f.end)
		if err != nil {
			return p, scan.Window{}, nil, fmt.Errorf("--end: %w", err)
		}
		end = day.AddDate(0, 0, 1)
	}

	symbols := cfg.Scan.Symbols
	if len(f.symbols) > 0 {
		symbols = f.symbols
	}
	if len(symbols) == 0 {
		return p, scan.Window{}, nil, fmt.Errorf("no symbols: pass --symbols or set scan.symbols")
	}
	return p, scan.LastDays(iv, days, end), symbols, nil
}

// analyse runs the orchestrator with the resolved flags.
func (a *app) analyse(ctx context.Context, f *runFlags, requireExit bool) (*scan.Report, config.Params, error) {
	p, w, symbols, err := f.resolve(a.cfg)
	if err != nil {
		return nil, p, err
	}

	timeout, err := a.cfg.Scan.ParseTimeout()
	if err != nil {
		return nil, p, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	prov, closeProv, err := buildProvider(ctx, a.cfg.Providers, a.log)
	if err != nil {
		return nil, p, err
	}
	defer closeProv()

	workers := a.cfg.Scan.Workers
	if f.workers > 0 {
		workers = f.workers
	}
	an := &scan.Analyzer{
		Provider:    prov,
		Params:      p,
		Workers:     workers,
		RequireExit: requireExit,
		Logger:      a.log,
	}
	a.log.Info("scan starting",
		"provider", prov.Name(),
		"symbols", len(symbols),
		"interval", w.Interval.String(),
		"start", w.Start.Format(time.DateOnly),
		"end", w.End.Format(time.DateOnly))
	r, err := an.Run(ctx, symbols, w)
	return r, p, err
}

func newScanCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan symbols for breakouts and chart patterns",
		Long: `Fetch recent history for each symbol and report every breakout,
breakdown, divergence, retest and reversal pattern found.

Examples:
  chartscan scan --symbols EUR_USD,GBP_USD --interval 15m --days 30
  chartscan scan -s NIFTY -i 1d -d 365 --kinds double_bottom,double_top`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := a.analyse(cmd.Context(), f, false)
			if err != nil {
				return err
			}
			if f.json {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			printDetections(cmd.OutOrStdout(), r)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDetections(w io.Writer, r *scan.Report) {
	dets := r.Detections()
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " Detections: %d\n", len(dets))
	fmt.Fprintln(w, "==================================================")

	if len(dets) > 0 {
		fmt.Fprintf(w, "%-12s %-24s %-20s %12s %12s %12s\n", "Symbol", "Kind", "Time", "Entry", "Stop", "Target")
		for _, d := range dets {
			fmt.Fprintf(w, "%-12s %-24s %-20s %12.5f %12s %12s\n",
				d.Symbol, d.Kind, d.Time.Format("2006-01-02 15:04"), d.Entry, optPrice(d.Stop), optPrice(d.Target))
		}
	}

	if skipped := r.Skipped(); len(skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Skipped")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, s := range skipped {
			fmt.Fprintf(w, "- %s (%s)\n", s.Symbol, s.Reason)
		}
	}
	if r.Partial {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Run was interrupted; results are partial.")
	}
}

func optPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.5f", *p)
}
