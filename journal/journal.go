// Package journal persists scan and backtest runs.
package journal

import (
	"time"

	"github.com/rustyeddy/chartscan/backtest"
	"github.com/rustyeddy/chartscan/market"
)

// Run is one scan or backtest invocation.
type Run struct {
	RunID    string
	Created  time.Time
	Mode     string // "scan" or "backtest"
	Interval string
	Symbols  []string
	Kinds    []market.Kind

	Start time.Time
	End   time.Time

	Params  []byte // analysis parameters as JSON
	Partial bool

	// Results
	Overall backtest.SymbolStatistics
	Skipped []string

	OrgPath string
	Notes   []string
}

type Journal interface {
	RecordRun(Run) error
	RecordDetection(runID string, d market.Detection) error
	RecordTrade(runID string, t backtest.Trade) error
	RecordStats(runID string, s backtest.SymbolStatistics) error
	Close() error
}
