package patterns

import (
	"math"

	"github.com/rustyeddy/chartscan/market"
)

// inverseHeadShoulders finds three consecutive troughs whose middle one is
// strictly the lowest and whose outer two are within ShoulderTolerance of
// each other. The neckline is the higher of the peaks flanking the head.
// Confirmation and targets follow the double/triple patterns.
func inverseHeadShoulders(v *view) []market.Detection {
	var out []market.Detection
	for _, j := range v.confirmBars() {
		if d, ok := headShouldersAt(v, j); ok {
			out = append(out, d)
		}
	}
	return out
}

// headShouldersAt reports the first trough triple in bars 0..j whose
// neckline break confirms exactly on j.
func headShouldersAt(v *view, j int) (market.Detection, bool) {
	peaks, troughs := v.priceThrough(j)
	for k := 0; k+3 <= len(troughs); k++ {
		group := troughs[k : k+3]
		if j-group[2] > v.p.ConfirmLookahead {
			continue
		}
		prices := pricesAt(v.closes, group)
		left, head, right := prices[0], prices[1], prices[2]
		if !(head < left && head < right) {
			continue
		}
		if !withinTolerance([]float64{left, right}, v.p.ShoulderTolerance) {
			continue
		}

		leftPeak, ok := highest(v.closes, between(peaks, group[0], group[1]))
		if !ok {
			continue
		}
		rightPeak, ok := highest(v.closes, between(peaks, group[1], group[2]))
		if !ok {
			continue
		}
		neck := math.Max(leftPeak, rightPeak)

		if c, ok := confirm(v, group[2], j, neck, head, true); !ok || c != j {
			continue
		}
		return measuredMove(v, market.InverseHeadShoulders, j, group, prices, neck, true), true
	}
	return market.Detection{}, false
}

func highest(x []float64, idx []int) (float64, bool) {
	if len(idx) == 0 {
		return 0, false
	}
	return maxOf(pricesAt(x, idx)), true
}
