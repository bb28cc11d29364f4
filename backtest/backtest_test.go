package backtest

import (
	"bytes"
	"testing"
	"time"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/indicators"
	"github.com/rustyeddy/chartscan/internal/candletest"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/patterns"
	"github.com/rustyeddy/chartscan/signals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trades(pnls ...float64) []Trade {
	out := make([]Trade, len(pnls))
	for i, p := range pnls {
		out[i] = Trade{Symbol: "X", Kind: market.Breakout, PnLPct: p}
	}
	return out
}

func TestSummarizeAllWins(t *testing.T) {
	s := Summarize("X", trades(5, 3))

	assert.Equal(t, 2, s.TradeCount)
	assert.Equal(t, 100.0, s.WinRate)
	assert.Equal(t, 4.0, s.AvgGainPct)
	assert.Equal(t, 8.0, s.NetPnLPct)
	assert.Equal(t, ProfitFactorCap, s.ProfitFactor)
	assert.Equal(t, 0.0, s.MaxDDPct)
}

func TestSummarizeAllLosses(t *testing.T) {
	s := Summarize("X", trades(-2, -1))

	assert.Equal(t, 0.0, s.ProfitFactor)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, -1.5, s.AvgGainPct)
	assert.Equal(t, -3.0, s.NetPnLPct)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 3.0, s.MaxDDPct)
}

func TestSummarizeNoTrades(t *testing.T) {
	assert.Equal(t, SymbolStatistics{Symbol: "X"}, Summarize("X", nil))
}

func TestSummarizeMixed(t *testing.T) {
	s := Summarize("X", trades(4, -2, 0, 6, -3))

	assert.Equal(t, 5, s.TradeCount)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.InDelta(t, 40.0, s.WinRate, 1e-12)
	assert.InDelta(t, 1.0, s.AvgGainPct, 1e-12)
	assert.InDelta(t, 2.0, s.ProfitFactor, 1e-12)
	// equity 4, 2, 2, 8, 5
	assert.InDelta(t, 3.0, s.MaxDDPct, 1e-12)
}

func TestProfitFactor(t *testing.T) {
	assert.Equal(t, 0.0, ProfitFactor(0, 0))
	assert.Equal(t, ProfitFactorCap, ProfitFactor(1, 0))
	assert.Equal(t, ProfitFactorCap, ProfitFactor(1e9, -1))
	assert.Equal(t, 0.5, ProfitFactor(1, -2))
}

func TestSummarizeByKind(t *testing.T) {
	ts := []Trade{
		{Kind: market.Breakout, PnLPct: 2},
		{Kind: market.DoubleBottom, PnLPct: -1},
		{Kind: market.Breakout, PnLPct: 1},
	}
	got := SummarizeByKind(ts)

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[market.Breakout].TradeCount)
	assert.Equal(t, 3.0, got[market.Breakout].NetPnLPct)
	assert.Equal(t, "DOUBLE_BOTTOM", got[market.DoubleBottom].Symbol)
}

func simFrame(t *testing.T, b *candletest.Builder) *indicators.Frame {
	t.Helper()
	p := config.DefaultParams()
	p.MaxPatternHold = 4
	f, err := indicators.Compute(b.Series("X"), p)
	require.NoError(t, err)
	return f
}

func TestSimulateSignalHoldExit(t *testing.T) {
	b := candletest.New(market.Minute15).Closes(100, 100, 101, 102, 103, 104)
	f := simFrame(t, b)

	d := market.Detection{Symbol: "X", Index: 1, Kind: market.Breakout}
	got := SimulateTrades([]market.Detection{d}, f, 3)
	require.Len(t, got, 1)

	tr := got[0]
	assert.Equal(t, 101.0, tr.EntryPrice) // next bar opens at the previous close
	assert.Equal(t, 104.0, tr.ExitPrice)
	assert.Equal(t, 4, tr.ExitIndex)
	assert.Equal(t, ReasonHold, tr.Reason)
	assert.InDelta(t, 3.0/101.0*100, tr.PnLPct, 1e-9)

	// not enough bars for the exit
	d.Index = 2
	assert.Empty(t, SimulateTrades([]market.Detection{d}, f, 3))
}

func TestSimulateBreakdownIsShort(t *testing.T) {
	b := candletest.New(market.Minute15).Closes(100, 100, 99, 98, 97, 96)
	f := simFrame(t, b)

	got := SimulateTrades([]market.Detection{{Index: 0, Kind: market.Breakdown}}, f, 2)
	require.Len(t, got, 1)
	assert.Equal(t, Short, got[0].Side)
	assert.InDelta(t, 2.0, got[0].PnLPct, 1e-9)
}

func pattern(i int, entry, stop, target float64) market.Detection {
	return market.Detection{
		Symbol: "X", Index: i, Kind: market.DoubleBottom,
		Entry: entry, Stop: market.F(stop), Target: market.F(target),
	}
}

func TestSimulatePatternTarget(t *testing.T) {
	b := candletest.New(market.Minute15).
		Bar(100, 100, 100, 100, 1).
		Bar(100, 103, 99.5, 102, 1).
		Bar(102, 106, 101, 105, 1)
	f := simFrame(t, b)

	got := SimulateTrades([]market.Detection{pattern(0, 100, 98, 104)}, f, 3)
	require.Len(t, got, 1)
	assert.Equal(t, ReasonTarget, got[0].Reason)
	assert.Equal(t, 104.0, got[0].ExitPrice)
	assert.Equal(t, 2, got[0].ExitIndex)
	assert.InDelta(t, 4.0, got[0].PnLPct, 1e-9)
}

func TestSimulatePatternStopFirst(t *testing.T) {
	b := candletest.New(market.Minute15).
		Bar(100, 100, 100, 100, 1).
		Bar(100, 105, 97, 101, 1)
	f := simFrame(t, b)

	got := SimulateTrades([]market.Detection{pattern(0, 100, 98, 104)}, f, 3)
	require.Len(t, got, 1)
	assert.Equal(t, ReasonStop, got[0].Reason)
	assert.InDelta(t, -2.0, got[0].PnLPct, 1e-9)
}

func TestSimulatePatternExpires(t *testing.T) {
	b := candletest.New(market.Minute15).Closes(1, 100, 100.5, 101, 101.5, 101, 100.5, 100)
	f := simFrame(t, b)

	got := SimulateTrades([]market.Detection{pattern(0, 100, 90, 110)}, f, 3)
	require.Len(t, got, 1)
	// MaxPatternHold is 4 bars
	assert.Equal(t, ReasonExpired, got[0].Reason)
	assert.Equal(t, 4, got[0].ExitIndex)
	assert.Equal(t, 101.0, got[0].ExitPrice)

	// pattern on the last bar cannot be traded
	assert.Empty(t, SimulateTrades([]market.Detection{pattern(6, 100, 90, 110)}, f, 3))
}

func TestSimulateShortPattern(t *testing.T) {
	b := candletest.New(market.Minute15).
		Bar(100, 100, 100, 100, 1).
		Bar(100, 100.5, 95, 96, 1)
	f := simFrame(t, b)

	d := pattern(0, 100, 102, 96)
	d.Kind = market.DoubleTop
	got := SimulateTrades([]market.Detection{d}, f, 3)
	require.Len(t, got, 1)
	assert.Equal(t, ReasonTarget, got[0].Reason)
	assert.InDelta(t, 4.0, got[0].PnLPct, 1e-9)
}

// pipeline runs indicators, signals, patterns and statistics end to end.
func pipeline(t *testing.T, s *market.Series) (SymbolStatistics, []Trade) {
	p := config.DefaultParams()
	f, err := indicators.Compute(s, p)
	require.NoError(t, err)

	dets := signals.Detect(f, p, true)
	dets = append(dets, patterns.Detect(f, nil, p).Detections...)
	ts := SimulateTrades(dets, f, p.HoldBars)
	return Summarize(s.Symbol, ts), ts
}

func TestPipelineIsDeterministic(t *testing.T) {
	b := candletest.New(market.Minute15).
		Flat(70, 70, 70.5, 69.5, 1000).
		Ramp(10, 50, 1000).
		Ramp(8, 60, 1000).
		Ramp(8, 50.5, 1000).
		Ramp(7, 59.5, 1000).
		Closes(1306, 61).
		Ramp(20, 72, 1000).
		Ramp(20, 64, 1000)

	s1, t1 := pipeline(t, b.Series("X"))
	s2, t2 := pipeline(t, b.Series("X"))
	assert.Equal(t, s1, s2)
	assert.Equal(t, t1, t2)
	assert.NotZero(t, s1.TradeCount)
}

func TestPrintReport(t *testing.T) {
	r := Report{
		RunID:     "01HRUN",
		Created:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Interval:  "15m",
		Symbols:   []string{"A", "B"},
		Overall:   Summarize("ALL", trades(5, -1)),
		PerSymbol: []SymbolStatistics{Summarize("A", trades(5)), Summarize("B", trades(-1))},
		ByKind:    SummarizeByKind(trades(5, -1)),
		Skipped:   []string{"C: data_unavailable"},
	}

	var buf bytes.Buffer
	PrintReport(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "Run ID:        01HRUN")
	assert.Contains(t, out, "Created:       2024-01-02T03:04:05Z")
	assert.Contains(t, out, "Trades:        2")
	assert.Contains(t, out, "Profit Factor: 5.00")
	assert.Contains(t, out, "Per Symbol")
	assert.Contains(t, out, "BREAKOUT")
	assert.Contains(t, out, "- C: data_unavailable")
}
