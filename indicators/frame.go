// Package indicators derives the per-bar columns the detectors read: swing
// levels, volume and range averages, RSI and momentum.
package indicators

import (
	"errors"
	"math"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/market"
)

// ErrInsufficientHistory is returned when a series is too short to analyse.
var ErrInsufficientHistory = errors.New("insufficient history")

// Frame is a candle series plus its derived indicator columns. Every column
// has one entry per candle; undefined entries are NaN.
type Frame struct {
	Symbol   string
	Interval market.Interval
	Candles  []market.Candle
	Params   config.Params

	SwingHigh     []float64
	SwingLow      []float64
	AvgVolume     []float64
	VolRatio      []float64
	Range         []float64
	AvgRange      []float64
	RSI           []float64
	Momentum      []float64
	AvgMomentum   []float64
	MomentumRatio []float64
	ATR           []float64

	closes []float64
}

// Compute derives the indicator frame for s. Only an empty series is an
// error; short series produce a frame whose bars are never Ready.
func Compute(s *market.Series, p config.Params) (*Frame, error) {
	if s == nil || s.Len() == 0 {
		return nil, ErrInsufficientHistory
	}

	n := s.Len()
	highs := s.Highs()
	lows := s.Lows()
	closes := s.Closes()
	volumes := s.Volumes()

	f := &Frame{
		Symbol:   s.Symbol,
		Interval: s.Interval,
		Candles:  s.Candles,
		Params:   p,
		closes:   closes,
	}

	// swing levels with a buffer so a breakout has to clear the extreme
	f.SwingHigh = RollingMax(highs, p.SwingLookback)
	f.SwingLow = RollingMin(lows, p.SwingLookback)
	for i := 0; i < n; i++ {
		f.SwingHigh[i] *= 1 - p.SwingBuffer
		f.SwingLow[i] *= 1 + p.SwingBuffer
	}

	f.AvgVolume = RollingMean(volumes, p.VolumeWindow)
	f.VolRatio = nanSlice(n)
	for i := 0; i < n; i++ {
		f.VolRatio[i] = ratio(volumes[i], f.AvgVolume[i])
	}

	f.Range = make([]float64, n)
	for i, c := range s.Candles {
		f.Range[i] = c.Range()
	}
	f.AvgRange = RollingMean(f.Range, p.VolumeWindow)

	f.RSI = RSI(closes, p.RSIPeriod)

	f.Momentum = nanSlice(n)
	for i := 1; i < n; i++ {
		if closes[i-1] != 0 {
			f.Momentum[i] = (closes[i] - closes[i-1]) / closes[i-1] * 100
		}
	}
	week := s.Interval.WeekBars(p.SessionMinutes, p.TradingDaysPerWeek)
	f.AvgMomentum = RollingMean(f.Momentum, week)
	f.MomentumRatio = nanSlice(n)
	for i := 0; i < n; i++ {
		f.MomentumRatio[i] = ratio(f.Momentum[i], f.AvgMomentum[i])
	}

	f.ATR = ATR(highs, lows, closes, p.ATRPeriod)

	return f, nil
}

// ratio is num/den, NaN when either side is undefined or den is zero.
func ratio(num, den float64) float64 {
	if !Defined(num) || !Defined(den) || den == 0 {
		return math.NaN()
	}
	return num / den
}

// Len returns the number of bars.
func (f *Frame) Len() int {
	return len(f.Candles)
}

// Warmup is the first bar at which every rolling window is populated.
func (f *Frame) Warmup() int {
	return f.Params.Warmup()
}

// Ready reports whether bar i is past the warmup.
func (f *Frame) Ready(i int) bool {
	return i >= f.Warmup() && i < f.Len()
}

// Closes returns the close column. Callers must not modify it.
func (f *Frame) Closes() []float64 {
	return f.closes
}

// At returns a value from col, NaN when i is out of range.
func At(col []float64, i int) float64 {
	if i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// Point builds a market.Point for bar i at price.
func (f *Frame) Point(i int, price float64, peak bool) market.Point {
	return market.Point{Index: i, Time: f.Candles[i].Time, Price: price, Peak: peak}
}
