package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/chartscan/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query journaled runs",
		Long: `Query and display runs recorded in the SQLite journal.

Subcommands:
  runs    - List recent runs
  show    - Print a run summary in org-mode
  trades  - Print a run's trades in org-mode

Examples:
  chartscan journal runs --limit 5
  chartscan journal show <run-id>
  chartscan journal trades <run-id>`,
	}

	var limit int
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.openSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-26s %-9s %-17s %-4s %8s %8s %10s\n", "Run ID", "Mode", "Created", "Int", "Symbols", "Trades", "Net %")
			for _, r := range runs {
				fmt.Fprintf(w, "%-26s %-9s %-17s %-4s %8d %8d %10.2f\n",
					r.RunID, r.Mode, r.Created.Format("2006-01-02 15:04"), r.Interval,
					len(r.Symbols), r.Overall.TradeCount, r.Overall.NetPnLPct)
			}
			return nil
		},
	}
	runsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.openSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}
			stats, err := j.ListStats(run.RunID)
			if err != nil {
				return fmt.Errorf("list stats: %w", err)
			}
			out, err := run.FormatOrg(stats)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	tradesCmd := &cobra.Command{
		Use:   "trades <run-id>",
		Short: "Print a run's trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.openSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			trades, err := j.ListTrades(args[0])
			if err != nil {
				return fmt.Errorf("list trades: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(args[0], trades))
			return nil
		},
	}

	cmd.AddCommand(runsCmd, showCmd, tradesCmd)
	return cmd
}

func (a *app) openSQLite() (*journal.SQLite, error) {
	if a.cfg.Journal.DBPath == "" {
		return nil, fmt.Errorf("no journal database: pass --db or set journal.db_path")
	}
	j, err := journal.NewSQLite(a.cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}
