package patterns

import (
	"math"

	"github.com/rustyeddy/chartscan/indicators"
	"github.com/rustyeddy/chartscan/market"
)

// retest is a three stage check. Stage one is a close through the previous
// bar's swing level with momentum in the break direction on at least
// RetestVolumeMultiplier times average volume. Stage two waits up to
// RetestLookahead bars for price to come back within RetestTolerance of the
// broken level on a reversal candle; a close beyond the band on the wrong
// side abandons the setup. Stage three requires the revisit bar's momentum
// to be smaller in magnitude than the breakout's.
func retest(v *view, up bool) []market.Detection {
	kind := market.DowntrendRetest
	if up {
		kind = market.UptrendRetest
	}

	var out []market.Detection
	seen := make(map[int]bool)
	start := v.f.Warmup()
	if start < 1 {
		start = 1
	}
	for i := start; i < v.n(); i++ {
		level, ok := v.brokeLevel(i, up)
		if !ok {
			continue
		}
		j, ok := v.revisit(i, level, up)
		if !ok || seen[j] {
			continue
		}
		seen[j] = true

		c := v.candle(j)
		entry := c.Close
		var stop, target float64
		if up {
			stop = math.Min(c.Low, level)
			target = entry + v.p.RewardRisk*(entry-stop)
		} else {
			stop = math.Max(c.High, level)
			target = entry - v.p.RewardRisk*(stop-entry)
		}
		if stop == entry {
			continue
		}

		out = append(out, v.detection(kind, j, entry, stop, target, market.Evidence{
			Points: []market.Point{
				v.f.Point(i, v.closes[i], up),
				v.f.Point(j, entry, !up),
			},
			Level:    level,
			Momentum: v.f.Momentum[j],
		}))
	}
	return out
}

// brokeLevel is stage one at bar i.
func (v *view) brokeLevel(i int, up bool) (float64, bool) {
	prev, cur := v.closes[i-1], v.closes[i]
	mom, vr := v.f.Momentum[i], v.f.VolRatio[i]
	if !indicators.Defined(mom) || !indicators.Defined(vr) || vr < v.p.RetestVolumeMultiplier {
		return 0, false
	}

	if up {
		level := v.f.SwingHigh[i-1]
		if indicators.Defined(level) && prev <= level && cur > level && mom > 0 {
			return level, true
		}
		return 0, false
	}
	level := v.f.SwingLow[i-1]
	if indicators.Defined(level) && prev >= level && cur < level && mom < 0 {
		return level, true
	}
	return 0, false
}

// revisit runs stages two and three for a break at bar i.
func (v *view) revisit(i int, level float64, up bool) (int, bool) {
	tol := v.p.RetestTolerance
	end := i + v.p.RetestLookahead
	if end > v.n()-1 {
		end = v.n() - 1
	}
	breakMom := math.Abs(v.f.Momentum[i])

	for j := i + 1; j <= end; j++ {
		c := v.candle(j)
		if (up && c.Close < level*(1-tol)) || (!up && c.Close > level*(1+tol)) {
			return 0, false
		}

		touch := c.Low
		if !up {
			touch = c.High
		}
		if math.Abs(touch-level)/level > tol {
			continue
		}
		if !v.reversal(c, level, up) {
			continue
		}

		mom := v.f.Momentum[j]
		if indicators.Defined(mom) && math.Abs(mom) < breakMom {
			return j, true
		}
	}
	return 0, false
}

// reversal reports a rejection wick of at least WickBodyRatio times the body,
// or a decisive close back beyond the level in the trend direction.
func (v *view) reversal(c market.Candle, level float64, up bool) bool {
	body := c.Body()
	if up {
		wick := c.LowerWick()
		return (wick > 0 && wick >= v.p.WickBodyRatio*body) ||
			(c.Close > c.Open && c.Close > level)
	}
	wick := c.UpperWick()
	return (wick > 0 && wick >= v.p.WickBodyRatio*body) ||
		(c.Close < c.Open && c.Close < level)
}
