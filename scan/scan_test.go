package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/internal/candletest"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	data map[string][]market.Candle
	errs map[string]error

	block   map[string]bool
	started chan string
	delay   time.Duration

	mu       sync.Mutex
	inflight int32
	peak     int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Candles(ctx context.Context, req provider.Request) ([]market.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	f.mu.Lock()
	if n > f.peak {
		f.peak = n
	}
	f.mu.Unlock()

	if f.block[req.Symbol] {
		if f.started != nil {
			f.started <- req.Symbol
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.errs[req.Symbol]; err != nil {
		return nil, err
	}
	c, ok := f.data[req.Symbol]
	if !ok {
		return nil, provider.ErrDataUnavailable
	}
	return c, nil
}

// breakout is 80 flat bars, a high volume breakout bar and three bars that
// carry the trade to its exit.
func breakout() []market.Candle {
	b := candletest.New(market.Minute15).
		Flat(80, 99, 100, 98, 1000).
		Bar(99, 102.5, 98.8, 102, 2030)
	for _, c := range []float64{103, 104, 106} {
		b.Bar(c, c+0.5, c-0.5, c, 1000)
	}
	return b.Candles()
}

func window() Window {
	return Window{Interval: market.Minute15, End: candletest.Start.AddDate(0, 0, 5)}
}

func analyzer(p provider.Provider) *Analyzer {
	return &Analyzer{Provider: p, Params: config.DefaultParams(), Workers: 4}
}

func TestAnalyzeSeriesBreakout(t *testing.T) {
	s := market.NewSeries("EUR_USD", market.Minute15, breakout())
	res := AnalyzeSeries(s, config.DefaultParams(), true)

	require.False(t, res.Skipped)
	assert.Equal(t, 84, res.Bars)

	var found bool
	for _, d := range res.Detections {
		if d.Kind == market.Breakout {
			found = true
			assert.Equal(t, 80, d.Index)
			assert.Equal(t, "EUR_USD", d.Symbol)
		}
	}
	require.True(t, found)

	require.NotEmpty(t, res.Trades)
	assert.Equal(t, market.Breakout, res.Trades[0].Kind)
	assert.InDelta(t, (106.0-103.0)/103.0*100, res.Trades[0].PnLPct, 1e-9)
	assert.Equal(t, len(res.Trades), res.Stats.TradeCount)
}

func TestAnalyzeSeriesSignalsOnly(t *testing.T) {
	s := market.NewSeries("EUR_USD", market.Minute15, breakout())
	p := config.DefaultParams().WithKinds([]market.Kind{market.Breakout})

	res := AnalyzeSeries(s, p, false)
	require.Len(t, res.Detections, 1)
	assert.Equal(t, market.Breakout, res.Detections[0].Kind)
	assert.Empty(t, res.Failures)
}

func TestAnalyzeSeriesInsufficientHistory(t *testing.T) {
	p := config.DefaultParams()
	s := candletest.New(market.Minute15).Flat(p.MinBars()-1, 1, 1.1, 0.9, 10).Series("X")

	res := AnalyzeSeries(s, p, false)
	assert.True(t, res.Skipped)
	assert.Equal(t, ReasonInsufficientHistory, res.Reason)
	assert.Error(t, res.Err)
}

func TestRunSkipsWithReasons(t *testing.T) {
	fp := &fakeProvider{
		data: map[string][]market.Candle{
			"EUR_USD": breakout(),
			"SHORT":   candletest.New(market.Minute15).Flat(10, 1, 1.1, 0.9, 10).Candles(),
			"EMPTY":   {},
		},
		errs: map[string]error{"BROKEN": errors.New("connection reset")},
	}

	r, err := analyzer(fp).Run(context.Background(),
		[]string{"EUR_USD", "SHORT", "MISSING", "BROKEN", "EMPTY", "EUR_USD", " "}, window())
	require.NoError(t, err)
	assert.False(t, r.Partial)

	reasons := map[string]Reason{}
	var symbols []string
	for _, res := range r.Results {
		symbols = append(symbols, res.Symbol)
		reasons[res.Symbol] = res.Reason
	}
	assert.Equal(t, []string{"BROKEN", "EMPTY", "EUR_USD", "MISSING", "SHORT"}, symbols)
	assert.Equal(t, ReasonFetchFailed, reasons["BROKEN"])
	assert.Equal(t, ReasonDataUnavailable, reasons["EMPTY"])
	assert.Equal(t, ReasonDataUnavailable, reasons["MISSING"])
	assert.Equal(t, ReasonInsufficientHistory, reasons["SHORT"])
	assert.Equal(t, Reason(""), reasons["EUR_USD"])

	assert.Len(t, r.Skipped(), 4)
	assert.NotEmpty(t, r.Detections())
	assert.Equal(t, len(r.Trades()), r.Overall.TradeCount)
	assert.Equal(t, "ALL", r.Overall.Symbol)
	assert.False(t, r.Finished.Before(r.Started))
}

func TestRunThroughChainSeparatesFailures(t *testing.T) {
	csv := &fakeProvider{data: map[string][]market.Candle{"NIFTY": breakout()}}
	remote := &fakeProvider{errs: map[string]error{"EUR_USD": errors.New("dial tcp: i/o timeout")}}

	r, err := analyzer(provider.Chain{csv, remote}).Run(context.Background(),
		[]string{"EUR_USD", "GBP_USD", "NIFTY"}, window())
	require.NoError(t, err)

	reasons := map[string]Reason{}
	for _, res := range r.Results {
		reasons[res.Symbol] = res.Reason
	}
	assert.Equal(t, ReasonFetchFailed, reasons["EUR_USD"])
	assert.Equal(t, ReasonDataUnavailable, reasons["GBP_USD"])
	assert.Equal(t, Reason(""), reasons["NIFTY"])
}

func TestRunCancelledIsPartial(t *testing.T) {
	fp := &fakeProvider{
		data:    map[string][]market.Candle{"AAA": breakout(), "ZZZ": breakout()},
		block:   map[string]bool{"MMM": true},
		started: make(chan string, 1),
	}
	a := analyzer(fp)
	a.Workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-fp.started
		cancel()
	}()

	r, err := a.Run(ctx, []string{"ZZZ", "MMM", "AAA"}, window())
	require.NoError(t, err)
	require.Len(t, r.Results, 3)
	assert.True(t, r.Partial)

	assert.False(t, r.Results[0].Skipped)
	assert.Equal(t, ReasonCancelled, r.Results[1].Reason)
	assert.Equal(t, ReasonCancelled, r.Results[2].Reason)
	assert.Equal(t, r.Results[0].Stats.TradeCount, r.Overall.TradeCount)

	br := r.BacktestReport("run-1")
	assert.Equal(t, "run-1", br.RunID)
	assert.Equal(t, "15m", br.Interval)
	assert.Equal(t, []string{"AAA", "MMM", "ZZZ"}, br.Symbols)
	assert.Equal(t, []string{"MMM (cancelled)", "ZZZ (cancelled)"}, br.Skipped)
	assert.Len(t, br.PerSymbol, 1)
	assert.Contains(t, br.Notes, "run was cancelled, results are partial")
}

func TestRunBoundsWorkers(t *testing.T) {
	fp := &fakeProvider{data: map[string][]market.Candle{}, delay: 5 * time.Millisecond}
	var symbols []string
	for _, s := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		fp.data[s] = breakout()
		symbols = append(symbols, s)
	}
	a := analyzer(fp)
	a.Workers = 2

	r, err := a.Run(context.Background(), symbols, window())
	require.NoError(t, err)
	assert.Len(t, r.Results, 8)
	assert.LessOrEqual(t, fp.peak, int32(2))
}

func TestRunIsDeterministic(t *testing.T) {
	fp := &fakeProvider{data: map[string][]market.Candle{
		"A": breakout(), "B": breakout(), "C": breakout(),
	}}

	one := analyzer(fp)
	one.Workers = 1
	many := analyzer(fp)
	many.Workers = 8

	r1, err := one.Run(context.Background(), []string{"C", "A", "B"}, window())
	require.NoError(t, err)
	r2, err := many.Run(context.Background(), []string{"B", "C", "A"}, window())
	require.NoError(t, err)

	assert.Equal(t, r1.Results, r2.Results)
	assert.Equal(t, r1.Overall, r2.Overall)
}

func TestRunRejectsBadSetup(t *testing.T) {
	_, err := (&Analyzer{Params: config.DefaultParams()}).Run(context.Background(), []string{"A"}, window())
	assert.Error(t, err)

	_, err = (&Analyzer{Provider: &fakeProvider{}}).Run(context.Background(), []string{"A"}, window())
	assert.Error(t, err)
}

func TestPatternKinds(t *testing.T) {
	kinds, ok := patternKinds(config.DefaultParams())
	assert.True(t, ok)
	assert.Len(t, kinds, 9)

	p := config.DefaultParams().WithKinds([]market.Kind{market.Breakout, market.DoubleTop})
	kinds, ok = patternKinds(p)
	assert.True(t, ok)
	assert.Equal(t, []market.Kind{market.DoubleTop}, kinds)
}

func TestLastDays(t *testing.T) {
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	w := LastDays(market.Hour1, 7, end)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, market.Hour1, w.Interval)
}
