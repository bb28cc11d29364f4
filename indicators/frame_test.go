package indicators

import (
	"math"
	"testing"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/internal/candletest"
	"github.com/rustyeddy/chartscan/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingMeanUsesAvailableBars(t *testing.T) {
	x := []float64{2, 4, math.NaN(), 6, 8}
	got := RollingMean(x, 3)

	assert.Equal(t, 2.0, got[0])
	assert.Equal(t, 3.0, got[1])
	assert.Equal(t, 3.0, got[2])
	assert.Equal(t, 5.0, got[3])
	assert.Equal(t, 7.0, got[4])
}

func TestRollingFullMeanNeedsWholeWindow(t *testing.T) {
	x := []float64{math.NaN(), 1, 2, 3, 4}
	got := RollingFullMean(x, 2)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 1.5, got[2])
	assert.Equal(t, 3.5, got[4])
}

func TestRollingMaxMin(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2, 6}

	assert.Equal(t, []float64{3, 3, 4, 4, 5, 9, 9, 9}, RollingMax(x, 3))
	assert.Equal(t, []float64{3, 1, 1, 1, 1, 1, 2, 2}, RollingMin(x, 3))
}

func TestRSIBounded(t *testing.T) {
	closes := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1,
		45.9, 46.2, 45.6, 46.3, 46.3, 46, 46.4, 46.2, 45.6, 46.2, 46.8, 45.3, 44.1}

	rsi := RSI(closes, 14)
	require.Len(t, rsi, len(closes))
	for i, v := range rsi {
		assert.GreaterOrEqual(t, v, 0.0, "bar %d", i)
		assert.LessOrEqual(t, v, 100.0, "bar %d", i)
	}

	// warmup is neutral
	for i := 0; i < 14; i++ {
		assert.Equal(t, NeutralRSI, rsi[i])
	}
	assert.NotEqual(t, NeutralRSI, rsi[14])
}

func TestRSIZeroLossIsNeutral(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.3
	}
	// one early loss that rolls out of the window
	closes[3] = 99

	rsi := RSI(closes, 14)
	for i := 20; i < len(rsi); i++ {
		assert.Equal(t, 50.0, rsi[i], "bar %d", i)
	}
}

func TestRSIAllLosses(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	rsi := RSI(closes, 14)
	assert.Equal(t, 0.0, rsi[29])
}

func TestComputeEmpty(t *testing.T) {
	_, err := Compute(market.NewSeries("X", market.Minute15, nil), config.DefaultParams())
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = Compute(nil, config.DefaultParams())
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestComputeSwingLevels(t *testing.T) {
	p := config.DefaultParams()
	b := candletest.New(market.Minute15).Flat(20, 99, 100, 98, 1000)
	f, err := Compute(b.Series("X"), p)
	require.NoError(t, err)

	assert.InDelta(t, 99.5, f.SwingHigh[19], 1e-9)
	assert.InDelta(t, 98.49, f.SwingLow[19], 1e-9)
	// min periods 1: first bar already has a level
	assert.InDelta(t, 99.5, f.SwingHigh[0], 1e-9)
	assert.False(t, f.Ready(19))
	assert.Equal(t, 71, f.Warmup())
}

func TestSwingHighHasNoLookahead(t *testing.T) {
	p := config.DefaultParams()
	b := candletest.New(market.Minute15).Flat(30, 99, 100, 98, 1000)
	base, err := Compute(b.Series("X"), p)
	require.NoError(t, err)

	i := 20
	changed := b.Candles()
	for j := i; j < len(changed); j++ {
		changed[j].High = 500
		changed[j].Low = 1
		changed[j].Close = 250
	}
	f, err := Compute(market.NewSeries("X", market.Minute15, changed), p)
	require.NoError(t, err)

	for j := 0; j < i; j++ {
		assert.Equal(t, base.SwingHigh[j], f.SwingHigh[j])
		assert.Equal(t, base.SwingLow[j], f.SwingLow[j])
	}
	assert.NotEqual(t, base.SwingHigh[i], f.SwingHigh[i])
}

func TestComputeVolumeRatio(t *testing.T) {
	p := config.DefaultParams()
	p.VolumeWindow = 4

	b := candletest.New(market.Minute15).
		Flat(3, 10, 11, 9, 100).
		Flat(1, 10, 11, 9, 500)
	f, err := Compute(b.Series("X"), p)
	require.NoError(t, err)

	assert.Equal(t, 100.0, f.AvgVolume[2])
	assert.Equal(t, 1.0, f.VolRatio[2])
	assert.Equal(t, 200.0, f.AvgVolume[3])
	assert.Equal(t, 2.5, f.VolRatio[3])
}

func TestComputeZeroVolumeIsUndefined(t *testing.T) {
	b := candletest.New(market.Minute15).Flat(10, 10, 11, 9, 0)
	f, err := Compute(b.Series("X"), config.DefaultParams())
	require.NoError(t, err)

	for i := range f.VolRatio {
		assert.False(t, Defined(f.VolRatio[i]))
	}
}

func TestComputeMomentum(t *testing.T) {
	p := config.DefaultParams()
	b := candletest.New(market.Day1).Closes(100, 100, 110, 99)
	f, err := Compute(b.Series("X"), p)
	require.NoError(t, err)

	assert.False(t, Defined(f.Momentum[0]))
	assert.InDelta(t, 10.0, f.Momentum[1], 1e-9)
	assert.InDelta(t, -10.0, f.Momentum[2], 1e-9)

	// daily bars use a one bar "week", so the ratio is exactly 1
	assert.InDelta(t, 1.0, f.MomentumRatio[1], 1e-12)
	assert.InDelta(t, 1.0, f.MomentumRatio[2], 1e-12)
}

func TestComputeIntradayMomentumAverage(t *testing.T) {
	p := config.DefaultParams()
	p.SessionMinutes = 60
	p.TradingDaysPerWeek = 1 // 4 bars of 15m

	b := candletest.New(market.Minute15).Closes(1, 100, 101, 102, 103, 104, 105)
	f, err := Compute(b.Series("X"), p)
	require.NoError(t, err)

	want := (f.Momentum[2] + f.Momentum[3] + f.Momentum[4] + f.Momentum[5]) / 4
	assert.InDelta(t, want, f.AvgMomentum[5], 1e-12)
	assert.InDelta(t, f.Momentum[5]/want, f.MomentumRatio[5], 1e-12)
}

func TestComputeRangeAndATR(t *testing.T) {
	p := config.DefaultParams()
	p.ATRPeriod = 3
	b := candletest.New(market.Minute15).Flat(10, 10, 12, 9, 100)
	f, err := Compute(b.Series("X"), p)
	require.NoError(t, err)

	assert.Equal(t, 3.0, f.Range[0])
	assert.Equal(t, 3.0, f.AvgRange[9])
	assert.False(t, Defined(f.ATR[2]))
	assert.InDelta(t, 3.0, f.ATR[9], 1e-9)
}

func TestAt(t *testing.T) {
	col := []float64{1, 2}
	assert.Equal(t, 2.0, At(col, 1))
	assert.True(t, math.IsNaN(At(col, -1)))
	assert.True(t, math.IsNaN(At(col, 2)))
}
