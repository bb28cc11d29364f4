// Package backtest resolves detections into simulated trades and aggregates
// per-symbol statistics.
package backtest

import (
	"time"

	"github.com/rustyeddy/chartscan/market"
)

type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// SideOf maps a detection kind to the direction it trades.
func SideOf(k market.Kind) Side {
	if k.Bullish() {
		return Long
	}
	return Short
}

// Exit reasons.
const (
	ReasonHold    = "hold"
	ReasonStop    = "stop"
	ReasonTarget  = "target"
	ReasonExpired = "expired"
)

// Trade is a detection resolved to a realised outcome.
type Trade struct {
	Symbol string      `json:"symbol"`
	Kind   market.Kind `json:"kind"`
	Side   Side        `json:"side"`

	EntryIndex int       `json:"entry_index"`
	ExitIndex  int       `json:"exit_index"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Stop       float64   `json:"stop_loss,omitempty"`
	Target     float64   `json:"target_price,omitempty"`

	PnLPct float64 `json:"pnl_pct"`
	Reason string  `json:"reason"`
}

// Win reports a strictly positive return.
func (t Trade) Win() bool {
	return t.PnLPct > 0
}

// Bars is the number of bars the trade was held.
func (t Trade) Bars() int {
	return t.ExitIndex - t.EntryIndex
}

// checkExit evaluates stop and target against one bar. When both are
// touched in the same bar the stop wins.
func checkExit(side Side, stop, target float64, c market.Candle) (price float64, reason string, hit bool) {
	switch side {
	case Long:
		if c.Low <= stop {
			return stop, ReasonStop, true
		}
		if c.High >= target {
			return target, ReasonTarget, true
		}
	case Short:
		if c.High >= stop {
			return stop, ReasonStop, true
		}
		if c.Low <= target {
			return target, ReasonTarget, true
		}
	}
	return 0, "", false
}
