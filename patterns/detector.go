// Package patterns runs the geometric pattern detectors over an indicator
// frame: RSI divergences, trend retests, double and triple tops and bottoms
// and the inverse head and shoulders.
//
// Every detector is a pure function of the frame and the parameters. They run
// independently; a failure in one is logged and reported without affecting
// the others, and overlapping detections on the same bar are all kept.
package patterns

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/extrema"
	"github.com/rustyeddy/chartscan/indicators"
	"github.com/rustyeddy/chartscan/market"
)

// ErrMalformedFrame is reported when a frame's columns do not line up with
// its candles.
var ErrMalformedFrame = errors.New("malformed indicator frame")

// Failure records one detector that did not complete.
type Failure struct {
	Kind market.Kind
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Result is the outcome of one Detect call.
type Result struct {
	Detections []market.Detection
	Failures   []Failure
}

type detectFunc func(v *view) ([]market.Detection, error)

var registry = map[market.Kind]detectFunc{
	market.RSIBullishDivergence: func(v *view) ([]market.Detection, error) { return divergence(v, true), nil },
	market.RSIBearishDivergence: func(v *view) ([]market.Detection, error) { return divergence(v, false), nil },
	market.UptrendRetest:        func(v *view) ([]market.Detection, error) { return retest(v, true), nil },
	market.DowntrendRetest:      func(v *view) ([]market.Detection, error) { return retest(v, false), nil },
	market.InverseHeadShoulders: func(v *view) ([]market.Detection, error) { return inverseHeadShoulders(v), nil },
	market.DoubleBottom:         levelDetector(market.DoubleBottom),
	market.DoubleTop:            levelDetector(market.DoubleTop),
	market.TripleBottom:         levelDetector(market.TripleBottom),
	market.TripleTop:            levelDetector(market.TripleTop),
}

// Kinds returns the kinds this package can detect, in AllKinds order.
func Kinds() []market.Kind {
	var out []market.Kind
	for _, k := range market.AllKinds {
		if _, ok := registry[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Detect runs the requested pattern detectors over f. Signal kinds in kinds
// are ignored (see package signals); an empty list runs all nine. Results
// are ordered by bar then kind.
func Detect(f *indicators.Frame, kinds []market.Kind, p config.Params) Result {
	return detectWith(registry, f, kinds, p)
}

func detectWith(reg map[market.Kind]detectFunc, f *indicators.Frame, kinds []market.Kind, p config.Params) Result {
	var res Result
	if f == nil || f.Len() == 0 {
		return res
	}
	if len(kinds) == 0 {
		kinds = market.AllKinds
	}

	v := newView(f, p)
	for _, k := range kinds {
		fn, ok := reg[k]
		if !ok {
			continue
		}
		dets, err := runIsolated(fn, v)
		if err != nil {
			slog.Warn("pattern detector failed", "symbol", f.Symbol, "kind", k, "err", err)
			res.Failures = append(res.Failures, Failure{Kind: k, Err: err})
			continue
		}
		res.Detections = append(res.Detections, dets...)
	}

	sort.SliceStable(res.Detections, func(i, j int) bool {
		a, b := res.Detections[i], res.Detections[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Kind < b.Kind
	})
	return res
}

func runIsolated(fn detectFunc, v *view) (dets []market.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			dets = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := v.check(); err != nil {
		return nil, err
	}
	return fn(v)
}

// view is the frame plus the extrema the detectors share. Extrema are only
// ever taken over a prefix of the series: a detection confirmed at bar j sees
// the peaks and troughs of bars 0..j and nothing later. Prefix extrema are
// computed on first use and memoised by their last bar.
type view struct {
	f *indicators.Frame
	p config.Params

	closes []float64

	price map[int]turns
	rsi   map[int]turns

	volumeBars []int
	volumeDone bool
}

// turns are the peaks and troughs of one prefix.
type turns struct {
	peaks, troughs []int
}

func newView(f *indicators.Frame, p config.Params) *view {
	return &view{
		f:      f,
		p:      p,
		closes: f.Closes(),
		price:  make(map[int]turns),
		rsi:    make(map[int]turns),
	}
}

func (v *view) check() error {
	n := v.f.Len()
	cols := []struct {
		name string
		col  []float64
	}{
		{"closes", v.closes},
		{"swing_high", v.f.SwingHigh},
		{"swing_low", v.f.SwingLow},
		{"vol_ratio", v.f.VolRatio},
		{"rsi", v.f.RSI},
		{"momentum", v.f.Momentum},
	}
	for _, c := range cols {
		if len(c.col) != n {
			return fmt.Errorf("%w: %s has %d values for %d candles", ErrMalformedFrame, c.name, len(c.col), n)
		}
	}
	return nil
}

func (v *view) n() int {
	return v.f.Len()
}

func (v *view) candle(i int) market.Candle {
	return v.f.Candles[i]
}

// priceThrough returns the close peaks and troughs of bars 0..j, with a
// prominence of ProminencePct of that prefix's close range.
func (v *view) priceThrough(j int) (peaks, troughs []int) {
	t, ok := v.price[j]
	if !ok {
		x := v.closes[:j+1]
		t = findTurns(x, v.p.ExtremaDistance, v.p.ProminencePct*spread(x))
		v.price[j] = t
	}
	return t.peaks, t.troughs
}

// rsiThrough returns the RSI peaks and troughs of bars 0..j.
func (v *view) rsiThrough(j int) (peaks, troughs []int) {
	t, ok := v.rsi[j]
	if !ok {
		t = findTurns(v.f.RSI[:j+1], v.p.ExtremaDistance, v.p.RSIProminence)
		v.rsi[j] = t
	}
	return t.peaks, t.troughs
}

func findTurns(x []float64, distance int, prominence float64) turns {
	if prominence <= 0 {
		prominence = -1
	}
	opt := extrema.Options{Distance: distance, Prominence: prominence}
	return turns{peaks: extrema.Peaks(x, opt), troughs: extrema.Troughs(x, opt)}
}

// confirmBars lists the bars with enough volume to confirm a neckline
// break. Only these can carry a level or head and shoulders detection.
func (v *view) confirmBars() []int {
	if !v.volumeDone {
		for j, vr := range v.f.VolRatio {
			if indicators.Defined(vr) && vr >= v.p.ConfirmVolumeMultiplier {
				v.volumeBars = append(v.volumeBars, j)
			}
		}
		v.volumeDone = true
	}
	return v.volumeBars
}

func spread(x []float64) float64 {
	lo, hi := 0.0, 0.0
	seen := false
	for _, v := range x {
		if !indicators.Defined(v) {
			continue
		}
		if !seen || v < lo {
			lo = v
		}
		if !seen || v > hi {
			hi = v
		}
		seen = true
	}
	return hi - lo
}

// detection fills the fields every pattern shares.
func (v *view) detection(kind market.Kind, i int, entry, stop, target float64, ev market.Evidence) market.Detection {
	c := v.candle(i)
	if ev.VolRatio == 0 && indicators.Defined(v.f.VolRatio[i]) {
		ev.VolRatio = v.f.VolRatio[i]
	}
	if ev.ATR == 0 && indicators.Defined(indicators.At(v.f.ATR, i)) {
		ev.ATR = v.f.ATR[i]
	}
	return market.Detection{
		Symbol:   v.f.Symbol,
		Time:     c.Time,
		Index:    i,
		Kind:     kind,
		Price:    c.Close,
		Entry:    entry,
		Stop:     market.F(stop),
		Target:   market.F(target),
		Evidence: ev,
	}
}

// between returns the members of idx strictly between lo and hi.
func between(idx []int, lo, hi int) []int {
	var out []int
	for _, i := range idx {
		if i > lo && i < hi {
			out = append(out, i)
		}
	}
	return out
}
