package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/chartscan/backtest"
	"github.com/rustyeddy/chartscan/journal"
	"github.com/rustyeddy/chartscan/pkg/id"
	"github.com/rustyeddy/chartscan/scan"
)

func newBacktestCmd(a *app) *cobra.Command {
	f := &runFlags{}
	var orgPath string

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay detections over history and report trade statistics",
		Long: `Run every detector over the requested history, simulate each detection
as a trade and print per-symbol and per-kind statistics. Detections whose
exit bar is not yet available are dropped. Results are written to the
configured journal.

Examples:
  chartscan backtest --symbols EUR_USD,USD_JPY --interval 1h --days 180
  chartscan backtest --config chartscan.yaml --org run.org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, p, err := a.analyse(cmd.Context(), f, true)
			if err != nil {
				return err
			}

			runID := id.New()
			run, err := journal.NewRun(runID, "backtest", r, p)
			if err != nil {
				return err
			}
			run.OrgPath = orgPath
			if err := a.record(run, r); err != nil {
				return err
			}

			if f.json {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			backtest.PrintReport(cmd.OutOrStdout(), r.BacktestReport(runID))

			if orgPath != "" {
				if err := run.WriteOrg(perSymbol(r)); err != nil {
					return fmt.Errorf("write org: %w", err)
				}
				a.log.Info("org summary written", "path", orgPath)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&orgPath, "org", "", "Also write an org-mode summary to this path")
	return cmd
}

// record writes the run to the configured journal, if any.
func (a *app) record(run journal.Run, r *scan.Report) error {
	j, err := journal.Open(a.cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j == nil {
		return nil
	}
	defer j.Close()

	if err := journal.Record(j, run, r); err != nil {
		return err
	}
	a.log.Info("run journaled", "run_id", run.RunID, "journal", a.cfg.Journal.Type)
	return nil
}

func perSymbol(r *scan.Report) []backtest.SymbolStatistics {
	var out []backtest.SymbolStatistics
	for _, res := range r.Results {
		if !res.Skipped {
			out = append(out, res.Stats)
		}
	}
	return out
}
