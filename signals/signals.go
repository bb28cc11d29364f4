// Package signals flags breakout and breakdown bars.
package signals

import (
	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/indicators"
	"github.com/rustyeddy/chartscan/market"
)

// Bounds returns the half-open bar range [start, end) the detector scans.
// With requireExit the last HoldBars bars are left out so every signal has a
// realised exit.
func Bounds(n int, p config.Params, requireExit bool) (start, end int) {
	start = p.Warmup()
	if start < 1 {
		start = 1
	}
	end = n
	if requireExit {
		end = n - p.HoldBars
	}
	return start, end
}

// Detect scans f for BREAKOUT and BREAKDOWN bars. A bar breaks out when its
// close crosses above the previous bar's swing high on volume of at least
// VolumeMultiplier times average with a strong bullish candle; breakdowns
// mirror this on the swing low.
//
// Kinds not wanted by p are not emitted. The result is ordered by bar.
func Detect(f *indicators.Frame, p config.Params, requireExit bool) []market.Detection {
	wantUp, wantDown := p.Wants(market.Breakout), p.Wants(market.Breakdown)
	if f == nil || (!wantUp && !wantDown) {
		return nil
	}

	var out []market.Detection
	start, end := Bounds(f.Len(), p, requireExit)
	for i := start; i < end; i++ {
		c, prev := f.Candles[i], f.Candles[i-1]
		vr := f.VolRatio[i]
		if !indicators.Defined(vr) || vr < p.VolumeMultiplier {
			continue
		}

		wide := f.Range[i] > f.AvgRange[i]
		hi, lo := f.SwingHigh[i-1], f.SwingLow[i-1]

		if wantUp && indicators.Defined(hi) &&
			prev.Close <= hi && c.Close > hi &&
			(c.Close > c.Open || wide) {
			out = append(out, build(f, p, i, market.Breakout, hi))
		}
		if wantDown && indicators.Defined(lo) &&
			prev.Close >= lo && c.Close < lo &&
			(c.Close < c.Open || wide) {
			out = append(out, build(f, p, i, market.Breakdown, lo))
		}
	}
	return out
}

func build(f *indicators.Frame, p config.Params, i int, kind market.Kind, level float64) market.Detection {
	c := f.Candles[i]
	d := market.Detection{
		Symbol: f.Symbol,
		Time:   c.Time,
		Index:  i,
		Kind:   kind,
		Price:  c.Close,
		Entry:  EntryPrice(f.Candles, i),
		Evidence: market.Evidence{
			Points:   []market.Point{f.Point(i, c.Close, kind == market.Breakout)},
			Level:    level,
			VolRatio: f.VolRatio[i],
			Momentum: zeroIfUndefined(f.Momentum[i]),
			ATR:      zeroIfUndefined(f.ATR[i]),
		},
	}

	if x := i + p.HoldBars; p.HoldBars > 0 && x < f.Len() {
		exit := f.Candles[x].Close
		d.Exit = market.F(exit)
		d.PnLPct = market.F(PnLPct(kind.Bullish(), d.Entry, exit))
	}
	return d
}

// EntryPrice is the next bar's open, or bar i's close on the last bar.
func EntryPrice(candles []market.Candle, i int) float64 {
	if i+1 < len(candles) {
		return candles[i+1].Open
	}
	return candles[i].Close
}

// PnLPct is the percent return of a long (or short) from entry to exit.
func PnLPct(long bool, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	if long {
		return (exit - entry) / entry * 100
	}
	return (entry - exit) / entry * 100
}

func zeroIfUndefined(v float64) float64 {
	if !indicators.Defined(v) {
		return 0
	}
	return v
}
