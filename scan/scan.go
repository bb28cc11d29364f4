// Package scan runs the detection pipeline over many symbols with bounded
// concurrency and merges the results.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/chartscan/backtest"
	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/indicators"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/patterns"
	"github.com/rustyeddy/chartscan/provider"
	"github.com/rustyeddy/chartscan/signals"
)

// DefaultWorkers bounds in-flight symbols when Analyzer.Workers is zero.
const DefaultWorkers = 10

// Reason explains why a symbol has no results.
type Reason string

const (
	ReasonDataUnavailable     Reason = "data_unavailable"
	ReasonInsufficientHistory Reason = "insufficient_history"
	ReasonFetchFailed         Reason = "fetch_failed"
	ReasonCancelled           Reason = "cancelled"
)

// Window is the history requested for every symbol.
type Window struct {
	Interval market.Interval
	Start    time.Time
	End      time.Time
}

// LastDays is a window of days ending at end.
func LastDays(iv market.Interval, days int, end time.Time) Window {
	return Window{Interval: iv, Start: end.AddDate(0, 0, -days), End: end}
}

// SymbolResult is the pipeline output for one symbol.
type SymbolResult struct {
	Symbol     string                    `json:"symbol"`
	Bars       int                       `json:"bars"`
	Detections []market.Detection        `json:"detections,omitempty"`
	Trades     []backtest.Trade          `json:"trades,omitempty"`
	Stats      backtest.SymbolStatistics `json:"stats"`
	Failures   []patterns.Failure        `json:"-"`

	Skipped bool   `json:"skipped,omitempty"`
	Reason  Reason `json:"reason,omitempty"`
	Err     error  `json:"-"`
}

// Report is the merged output of one run.
type Report struct {
	Window   Window                    `json:"window"`
	Kinds    []market.Kind             `json:"kinds,omitempty"`
	Results  []SymbolResult            `json:"results"`
	Overall  backtest.SymbolStatistics `json:"overall"`
	Partial  bool                      `json:"partial"`
	Started  time.Time                 `json:"started"`
	Finished time.Time                 `json:"finished"`
}

// Detections returns every symbol's detections in symbol order.
func (r *Report) Detections() []market.Detection {
	var out []market.Detection
	for _, res := range r.Results {
		out = append(out, res.Detections...)
	}
	return out
}

// Trades returns every symbol's trades in symbol order.
func (r *Report) Trades() []backtest.Trade {
	var out []backtest.Trade
	for _, res := range r.Results {
		out = append(out, res.Trades...)
	}
	return out
}

// Skipped returns the symbols that produced no analysis.
func (r *Report) Skipped() []SymbolResult {
	var out []SymbolResult
	for _, res := range r.Results {
		if res.Skipped {
			out = append(out, res)
		}
	}
	return out
}

// BacktestReport converts r into the printable backtest summary.
func (r *Report) BacktestReport(runID string) backtest.Report {
	br := backtest.Report{
		RunID:    runID,
		Created:  r.Finished,
		Interval: r.Window.Interval.String(),
		Kinds:    r.Kinds,
		Start:    r.Window.Start,
		End:      r.Window.End,
		Overall:  r.Overall,
		ByKind:   backtest.SummarizeByKind(r.Trades()),
	}
	for _, res := range r.Results {
		br.Symbols = append(br.Symbols, res.Symbol)
		if res.Skipped {
			br.Skipped = append(br.Skipped, fmt.Sprintf("%s (%s)", res.Symbol, res.Reason))
			continue
		}
		br.PerSymbol = append(br.PerSymbol, res.Stats)
		for _, f := range res.Failures {
			br.Notes = append(br.Notes, fmt.Sprintf("%s: %v", res.Symbol, f))
		}
	}
	if r.Partial {
		br.Notes = append(br.Notes, "run was cancelled, results are partial")
	}
	return br
}

// Analyzer fans the pipeline out across symbols.
type Analyzer struct {
	Provider    provider.Provider
	Params      config.Params
	Workers     int
	RequireExit bool
	Logger      *slog.Logger
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Run analyses symbols concurrently, at most Workers at a time. Symbols
// whose data is missing or too short are skipped with a reason. When ctx is
// cancelled, in-flight fetches are abandoned, finished symbols are kept and
// the report is marked Partial. Only invalid configuration is an error.
func (a *Analyzer) Run(ctx context.Context, symbols []string, w Window) (*Report, error) {
	if a.Provider == nil {
		return nil, errors.New("scan: provider is required")
	}
	if err := a.Params.Validate(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	workers := a.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	symbols = uniqueSymbols(symbols)
	report := &Report{Window: w, Kinds: a.Params.Kinds, Started: time.Now().UTC()}
	results := make([]SymbolResult, len(symbols))
	log := a.logger()

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for i, sym := range symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = skipped(sym, ReasonCancelled, ctx.Err())
			continue
		}

		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = a.Analyze(ctx, sym, w)
		}(i, sym)
	}
	wg.Wait()

	var trades []backtest.Trade
	for _, res := range results {
		if res.Reason == ReasonCancelled {
			report.Partial = true
		}
		if res.Skipped {
			log.Info("symbol skipped", "symbol", res.Symbol, "reason", res.Reason, "err", res.Err)
		}
		trades = append(trades, res.Trades...)
	}
	backtest.SortByExit(trades)

	report.Results = results
	report.Overall = backtest.Summarize("ALL", trades)
	report.Finished = time.Now().UTC()
	log.Info("scan finished",
		"symbols", len(symbols),
		"detections", len(report.Detections()),
		"trades", len(trades),
		"partial", report.Partial,
		"elapsed", report.Finished.Sub(report.Started).String())
	return report, nil
}

// Analyze fetches one symbol and runs the pipeline on it.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, w Window) SymbolResult {
	candles, err := a.Provider.Candles(ctx, provider.Request{
		Symbol:   symbol,
		Interval: w.Interval,
		Start:    w.Start,
		End:      w.End,
	})
	switch {
	case err != nil && ctx.Err() != nil:
		return skipped(symbol, ReasonCancelled, ctx.Err())
	case errors.Is(err, provider.ErrDataUnavailable):
		return skipped(symbol, ReasonDataUnavailable, err)
	case err != nil:
		return skipped(symbol, ReasonFetchFailed, err)
	case len(candles) == 0:
		return skipped(symbol, ReasonDataUnavailable, provider.ErrDataUnavailable)
	}

	res := AnalyzeSeries(market.NewSeries(symbol, w.Interval, candles), a.Params, a.RequireExit)
	if res.Skipped {
		return res
	}
	a.logger().Debug("symbol analysed",
		"symbol", symbol,
		"bars", res.Bars,
		"detections", len(res.Detections),
		"trades", len(res.Trades))
	return res
}

// AnalyzeSeries is the synchronous per-symbol pipeline: indicators,
// signals, patterns, trade simulation and statistics.
func AnalyzeSeries(s *market.Series, p config.Params, requireExit bool) SymbolResult {
	if s.Len() < p.MinBars() {
		return skipped(s.Symbol, ReasonInsufficientHistory,
			fmt.Errorf("%w: %d bars, need %d", indicators.ErrInsufficientHistory, s.Len(), p.MinBars()))
	}

	f, err := indicators.Compute(s, p)
	if err != nil {
		return skipped(s.Symbol, ReasonInsufficientHistory, err)
	}

	dets := signals.Detect(f, p, requireExit)
	var failures []patterns.Failure
	if kinds, ok := patternKinds(p); ok {
		pr := patterns.Detect(f, kinds, p)
		dets = append(dets, pr.Detections...)
		failures = pr.Failures
	}
	sort.SliceStable(dets, func(i, j int) bool {
		if dets[i].Index != dets[j].Index {
			return dets[i].Index < dets[j].Index
		}
		return dets[i].Kind < dets[j].Kind
	})

	trades := backtest.SimulateTrades(dets, f, p.HoldBars)
	return SymbolResult{
		Symbol:     s.Symbol,
		Bars:       s.Len(),
		Detections: dets,
		Trades:     trades,
		Stats:      backtest.Summarize(s.Symbol, trades),
		Failures:   failures,
	}
}

// patternKinds picks the pattern kinds out of p.Kinds. ok is false when
// p selects signals only.
func patternKinds(p config.Params) (kinds []market.Kind, ok bool) {
	if len(p.Kinds) == 0 {
		return patterns.Kinds(), true
	}
	for _, k := range patterns.Kinds() {
		if slices.Contains(p.Kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, len(kinds) > 0
}

func skipped(symbol string, reason Reason, err error) SymbolResult {
	return SymbolResult{Symbol: symbol, Skipped: true, Reason: reason, Err: err}
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
