package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rustyeddy/chartscan/market"
)

// Report is the printable summary of one backtest run.
type Report struct {
	RunID    string
	Created  time.Time
	Interval string
	Symbols  []string
	Kinds    []market.Kind

	Start time.Time
	End   time.Time

	Overall   SymbolStatistics
	PerSymbol []SymbolStatistics
	ByKind    map[market.Kind]SymbolStatistics

	Skipped []string
	Notes   []string
}

func PrintReport(w io.Writer, r Report) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Interval:      %s\n", r.Interval)
	fmt.Fprintf(w, "Symbols:       %d\n", len(r.Symbols))
	if len(r.Kinds) > 0 && len(r.Kinds) < len(market.AllKinds) {
		fmt.Fprintf(w, "Kinds:         %v\n", r.Kinds)
	}

	if !r.Start.IsZero() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	printStats(w, r.Overall)

	if len(r.PerSymbol) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Per Symbol")
		fmt.Fprintln(w, "--------------------------------------------------")
		printTable(w, r.PerSymbol)
	}

	if len(r.ByKind) > 0 {
		rows := make([]SymbolStatistics, 0, len(r.ByKind))
		for _, s := range r.ByKind {
			rows = append(rows, s)
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Per Kind")
		fmt.Fprintln(w, "--------------------------------------------------")
		printTable(w, rows)
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Skipped")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "- %s\n", s)
		}
	}

	if len(r.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Observations")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, note := range r.Notes {
			fmt.Fprintf(w, "- %s\n", note)
		}
	}

	fmt.Fprintln(w)
}

func printStats(w io.Writer, s SymbolStatistics) {
	fmt.Fprintf(w, "Trades:        %d\n", s.TradeCount)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate)
	fmt.Fprintf(w, "Avg Gain:      %.2f%%\n", s.AvgGainPct)
	fmt.Fprintf(w, "Net P/L:       %.2f%%\n", s.NetPnLPct)
	if s.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", s.ProfitFactor)
	}
	if s.MaxDDPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", s.MaxDDPct)
	}
}

func printTable(w io.Writer, rows []SymbolStatistics) {
	fmt.Fprintf(w, "%-24s %6s %8s %8s %9s %7s\n", "NAME", "TRADES", "WIN%", "AVG%", "NET%", "PF")
	for _, s := range rows {
		fmt.Fprintf(w, "%-24s %6d %8.2f %8.2f %9.2f %7.2f\n",
			s.Symbol, s.TradeCount, s.WinRate, s.AvgGainPct, s.NetPnLPct, s.ProfitFactor)
	}
}
