package patterns

import (
	"github.com/rustyeddy/chartscan/market"
)

// divergence compares the two most recent price troughs (bullish) or peaks
// (bearish) against RSI at the same points. Bullish fires on a lower price
// low with a higher RSI low, both RSI readings under DivergenceOversold;
// bearish is the mirror above DivergenceOverbought.
//
// The second extremum is only known once later bars have closed, so the
// detection confirms on the first bar k at which the pair is the latest one
// in the extrema of bars 0..k and the divergence holds. Entry is the close at
// k; the stop sits PatternStopPct beyond the second extremum.
func divergence(v *view, bullish bool) []market.Detection {
	kind := market.RSIBearishDivergence
	if bullish {
		kind = market.RSIBullishDivergence
	}

	var out []market.Detection
	reported := make(map[[2]int]bool)
	for k := 1; k < v.n(); k++ {
		peaks, troughs := v.priceThrough(k)
		points := peaks
		if bullish {
			points = troughs
		}
		if len(points) < 2 {
			continue
		}
		a, b := points[len(points)-2], points[len(points)-1]
		if reported[[2]int{a, b}] {
			continue
		}

		rsiPeaks, rsiTroughs := v.rsiThrough(k)
		rsiPoints := rsiPeaks
		if bullish {
			rsiPoints = rsiTroughs
		}
		pa, pb := v.closes[a], v.closes[b]
		ra, rb := v.rsiNear(a, b, rsiPoints), v.rsiNear(b, b, rsiPoints)

		if bullish {
			if !(pb < pa && rb > ra && ra < v.p.DivergenceOversold && rb < v.p.DivergenceOversold) {
				continue
			}
		} else {
			if !(pb > pa && rb < ra && ra > v.p.DivergenceOverbought && rb > v.p.DivergenceOverbought) {
				continue
			}
		}

		entry := v.closes[k]
		stop := pb * (1 - v.p.PatternStopPct)
		if !bullish {
			stop = pb * (1 + v.p.PatternStopPct)
		}
		if (bullish && entry <= stop) || (!bullish && entry >= stop) {
			continue
		}
		target := entry + v.p.RewardRisk*(entry-stop)
		reported[[2]int{a, b}] = true

		out = append(out, v.detection(kind, k, entry, stop, target, market.Evidence{
			Points: []market.Point{
				v.f.Point(a, pa, !bullish),
				v.f.Point(b, pb, !bullish),
			},
			Level:    rb,
			Momentum: zeroIfUndefined(v.f.Momentum[k]),
		}))
	}
	return out
}

// rsiNear reads RSI for the price extremum at bar i: the value at the
// nearest RSI extremum within ExtremaDistance bars and no later than bar
// limit, or RSI at i itself. Ties go to the earlier RSI extremum.
func (v *view) rsiNear(i, limit int, rsiPoints []int) float64 {
	best, bestDist := -1, v.p.ExtremaDistance+1
	for _, r := range rsiPoints {
		if r > limit {
			break
		}
		d := r - i
		if d < 0 {
			d = -d
		}
		if d <= v.p.ExtremaDistance && d < bestDist {
			best, bestDist = r, d
		}
	}
	if best < 0 {
		return v.f.RSI[i]
	}
	return v.f.RSI[best]
}
