package patterns

import (
	"math"

	"github.com/rustyeddy/chartscan/indicators"
	"github.com/rustyeddy/chartscan/market"
)

// levelPattern is the shared N-extrema-with-neckline shape behind double and
// triple tops and bottoms: n same-type extrema within tolerance of each
// other, separated by opposite extrema that define the neckline.
type levelPattern struct {
	kind      market.Kind
	n         int
	tops      bool
	tolerance float64
}

func levelDetector(kind market.Kind) detectFunc {
	return func(v *view) ([]market.Detection, error) {
		return newLevelPattern(kind, v).detect(v), nil
	}
}

func newLevelPattern(kind market.Kind, v *view) levelPattern {
	lp := levelPattern{kind: kind}
	switch kind {
	case market.DoubleTop:
		lp.n, lp.tops, lp.tolerance = 2, true, v.p.DoubleTolerance
	case market.DoubleBottom:
		lp.n, lp.tops, lp.tolerance = 2, false, v.p.DoubleTolerance
	case market.TripleTop:
		lp.n, lp.tops, lp.tolerance = 3, true, v.p.TripleTolerance
	case market.TripleBottom:
		lp.n, lp.tops, lp.tolerance = 3, false, v.p.TripleTolerance
	}
	return lp
}

// detect walks the high volume bars in order. At each bar j it takes the
// extrema of bars 0..j and reports the first group whose neckline break
// lands exactly on j.
func (lp levelPattern) detect(v *view) []market.Detection {
	var out []market.Detection
	for _, j := range v.confirmBars() {
		if d, ok := lp.at(v, j); ok {
			out = append(out, d)
		}
	}
	return out
}

func (lp levelPattern) at(v *view, j int) (market.Detection, bool) {
	peaks, troughs := v.priceThrough(j)
	same, opposite := troughs, peaks
	if lp.tops {
		same, opposite = peaks, troughs
	}

	for k := 0; k+lp.n <= len(same); k++ {
		group := same[k : k+lp.n]
		if j-group[len(group)-1] > v.p.ConfirmLookahead {
			continue
		}
		prices := pricesAt(v.closes, group)
		if !withinTolerance(prices, lp.tolerance) {
			continue
		}

		neck, ok := neckline(v.closes, group, opposite, lp.tops)
		if !ok {
			continue
		}

		invalid := minOf(prices)
		if lp.tops {
			invalid = maxOf(prices)
		}
		if c, ok := confirm(v, group[len(group)-1], j, neck, invalid, !lp.tops); !ok || c != j {
			continue
		}
		return measuredMove(v, lp.kind, j, group, prices, neck, !lp.tops), true
	}
	return market.Detection{}, false
}

// withinTolerance reports whether (max-min)/min of prices is at most tol.
func withinTolerance(prices []float64, tol float64) bool {
	lo, hi := minOf(prices), maxOf(prices)
	if lo <= 0 || !indicators.Defined(lo) || !indicators.Defined(hi) {
		return false
	}
	return (hi-lo)/lo <= tol
}

// neckline is the highest peak between bottoms, or the lowest trough between
// tops. Every adjacent pair in group must have at least one opposite
// extremum between them.
func neckline(closes []float64, group, opposite []int, tops bool) (float64, bool) {
	level := math.NaN()
	for i := 1; i < len(group); i++ {
		mid := between(opposite, group[i-1], group[i])
		if len(mid) == 0 {
			return 0, false
		}
		for _, m := range mid {
			c := closes[m]
			switch {
			case math.IsNaN(level):
				level = c
			case tops && c < level:
				level = c
			case !tops && c > level:
				level = c
			}
		}
	}
	return level, indicators.Defined(level)
}

// confirm looks for the first close through the neckline after bar last,
// within ConfirmLookahead bars and no later than bar through, on at least
// ConfirmVolumeMultiplier times average volume. A close beyond invalid (below
// a bottom, above a top) ends the search. Closes through the neckline on thin
// volume keep searching.
func confirm(v *view, last, through int, neck, invalid float64, bullish bool) (int, bool) {
	end := last + v.p.ConfirmLookahead
	if end > through {
		end = through
	}
	for j := last + 1; j <= end; j++ {
		c := v.closes[j]
		if (bullish && c < invalid) || (!bullish && c > invalid) {
			return 0, false
		}
		through := (bullish && c > neck) || (!bullish && c < neck)
		if !through {
			continue
		}
		vr := v.f.VolRatio[j]
		if indicators.Defined(vr) && vr >= v.p.ConfirmVolumeMultiplier {
			return j, true
		}
	}
	return 0, false
}

// measuredMove builds a confirmed detection: target projects the pattern
// height beyond the neckline, stop sits PatternStopPct beyond the mean
// extremum.
func measuredMove(v *view, kind market.Kind, j int, group []int, prices []float64, neck float64, bullish bool) market.Detection {
	mean := meanOf(prices)
	target := neck + (neck - mean)
	stop := mean * (1 - v.p.PatternStopPct)
	if !bullish {
		stop = mean * (1 + v.p.PatternStopPct)
	}

	points := make([]market.Point, 0, len(group))
	for i, idx := range group {
		points = append(points, v.f.Point(idx, prices[i], !bullish))
	}
	return v.detection(kind, j, v.closes[j], stop, target, market.Evidence{
		Points:   points,
		Level:    neck,
		Momentum: zeroIfUndefined(v.f.Momentum[j]),
	})
}

func pricesAt(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = x[k]
	}
	return out
}

func minOf(x []float64) float64 {
	m := math.Inf(1)
	for _, v := range x {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(x []float64) float64 {
	m := math.Inf(-1)
	for _, v := range x {
		m = math.Max(m, v)
	}
	return m
}

func meanOf(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func zeroIfUndefined(v float64) float64 {
	if !indicators.Defined(v) {
		return 0
	}
	return v
}
