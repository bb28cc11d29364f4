package backtest

import (
	"github.com/rustyeddy/chartscan/indicators"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/signals"
)

// SimulateTrades resolves each detection against the frame's candles.
//
// Signals (BREAKOUT, BREAKDOWN) enter at the next bar's open and exit at the
// close holdBars bars after the signal bar; without that bar there is no
// trade. Patterns enter at their detection price and walk forward from the
// next bar, checking stop before target, for at most the frame's
// MaxPatternHold bars. A pattern still open at the end exits at the last
// inspected close with reason "expired"; a pattern on the last bar has no
// trade.
func SimulateTrades(dets []market.Detection, f *indicators.Frame, holdBars int) []Trade {
	if f == nil {
		return nil
	}
	var out []Trade
	for _, d := range dets {
		if d.Index < 0 || d.Index >= f.Len() {
			continue
		}
		var (
			t  Trade
			ok bool
		)
		if d.Kind.IsSignal() {
			t, ok = holdExit(d, f, holdBars)
		} else {
			t, ok = stopTargetExit(d, f, f.Params.MaxPatternHold)
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

func newTrade(d market.Detection, f *indicators.Frame) Trade {
	return Trade{
		Symbol:     d.Symbol,
		Kind:       d.Kind,
		Side:       SideOf(d.Kind),
		EntryIndex: d.Index,
		EntryTime:  f.Candles[d.Index].Time,
		EntryPrice: d.Entry,
		Stop:       market.Val(d.Stop),
		Target:     market.Val(d.Target),
	}
}

func holdExit(d market.Detection, f *indicators.Frame, holdBars int) (Trade, bool) {
	x := d.Index + holdBars
	if holdBars <= 0 || x >= f.Len() {
		return Trade{}, false
	}

	t := newTrade(d, f)
	t.EntryPrice = signals.EntryPrice(f.Candles, d.Index)
	t.ExitIndex = x
	t.ExitTime = f.Candles[x].Time
	t.ExitPrice = f.Candles[x].Close
	t.PnLPct = signals.PnLPct(t.Side == Long, t.EntryPrice, t.ExitPrice)
	t.Reason = ReasonHold
	return t, true
}

func stopTargetExit(d market.Detection, f *indicators.Frame, maxHold int) (Trade, bool) {
	if d.Stop == nil || d.Target == nil || d.Index+1 >= f.Len() {
		return Trade{}, false
	}

	t := newTrade(d, f)
	last := d.Index + maxHold
	if maxHold <= 0 || last > f.Len()-1 {
		last = f.Len() - 1
	}

	for j := d.Index + 1; j <= last; j++ {
		if price, reason, hit := checkExit(t.Side, t.Stop, t.Target, f.Candles[j]); hit {
			return t.closeAt(f, j, price, reason), true
		}
	}
	return t.closeAt(f, last, f.Candles[last].Close, ReasonExpired), true
}

func (t Trade) closeAt(f *indicators.Frame, j int, price float64, reason string) Trade {
	t.ExitIndex = j
	t.ExitTime = f.Candles[j].Time
	t.ExitPrice = price
	t.Reason = reason
	t.PnLPct = signals.PnLPct(t.Side == Long, t.EntryPrice, price)
	return t
}
