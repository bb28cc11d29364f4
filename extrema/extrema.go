// Package extrema finds local peaks and troughs in a scalar series.
//
// The primary algorithm works like a classic find-peaks: local maxima
// (plateaus resolved to their midpoint), thinned by minimum spacing in order
// of height, then filtered by prominence. When the input is degenerate the
// finder logs the failure and falls back to a strict-dominance scan that
// never fails.
package extrema

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// ErrDegenerate is returned by the primary algorithm for input it cannot
// handle: non-finite values or a distance below one.
var ErrDegenerate = errors.New("extrema: degenerate input")

// Options tunes a finder call.
type Options struct {
	// Distance is the minimum index spacing between two returned extrema.
	Distance int
	// Prominence is the minimum height above the higher neighbouring base.
	// Zero selects DefaultProminence of the input; a negative value turns the
	// filter off.
	Prominence float64
}

// DefaultDistance is used when Options.Distance is zero.
const DefaultDistance = 5

// DefaultProminence returns 1% of the observed range for price-like series
// (values above 100) and a flat 2 points for bounded oscillators.
func DefaultProminence(x []float64) float64 {
	lo, hi, ok := bounds(x)
	if !ok {
		return 2
	}
	if hi > 100 {
		return (hi - lo) * 0.01
	}
	return 2
}

// Peaks returns the indices of local maxima in ascending order.
func Peaks(x []float64, opt Options) []int {
	opt = opt.withDefaults(x)
	idx, err := FindPeaks(x, opt)
	if err != nil {
		slog.Warn("extrema: using fallback scan", "err", err, "n", len(x))
		return Fallback(x, opt.Distance, false)
	}
	return idx
}

// Troughs returns the indices of local minima in ascending order. The series
// is mirrored as max-value and handed to the peak algorithm.
func Troughs(x []float64, opt Options) []int {
	opt = opt.withDefaults(x)
	_, hi, ok := bounds(x)
	if !ok {
		return Fallback(x, opt.Distance, true)
	}
	mirrored := make([]float64, len(x))
	for i, v := range x {
		mirrored[i] = hi - v
	}
	idx, err := FindPeaks(mirrored, opt)
	if err != nil {
		slog.Warn("extrema: using fallback scan", "err", err, "n", len(x))
		return Fallback(x, opt.Distance, true)
	}
	return idx
}

func (o Options) withDefaults(x []float64) Options {
	if o.Distance == 0 {
		o.Distance = DefaultDistance
	}
	if o.Prominence == 0 {
		o.Prominence = DefaultProminence(x)
	}
	return o
}

// FindPeaks is the primary peak algorithm. It fails with ErrDegenerate
// instead of guessing. Options are used as given: a prominence of zero or
// less applies no prominence filter.
func FindPeaks(x []float64, opt Options) ([]int, error) {
	if opt.Distance < 1 {
		return nil, fmt.Errorf("%w: distance %d", ErrDegenerate, opt.Distance)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %v at %d", ErrDegenerate, v, i)
		}
	}

	peaks := localMaxima(x)
	peaks = selectByDistance(x, peaks, opt.Distance)
	if opt.Prominence > 0 {
		prom := Prominences(x, peaks)
		kept := peaks[:0]
		for i, p := range peaks {
			if prom[i] >= opt.Prominence {
				kept = append(kept, p)
			}
		}
		peaks = kept
	}
	return peaks, nil
}

// localMaxima returns samples strictly greater than their neighbours. A flat
// top is reported once, at its midpoint (rounded down).
func localMaxima(x []float64) []int {
	var out []int
	n := len(x)
	i := 1
	for i < n-1 {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				left, right := i, ahead-1
				out = append(out, (left+right)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return out
}

// selectByDistance drops peaks closer than distance to a higher one. Peaks
// are considered highest first; equal heights favour the later index.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	if distance <= 1 || len(peaks) < 2 {
		return peaks
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ha, hb := x[peaks[order[a]]], x[peaks[order[b]]]
		if ha != hb {
			return ha > hb
		}
		return peaks[order[a]] > peaks[order[b]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// Prominences returns, for each peak, its height above the higher of its two
// bases. A base is the lowest sample between the peak and the first strictly
// higher sample on that side (or the series edge).
func Prominences(x []float64, peaks []int) []float64 {
	out := make([]float64, len(peaks))
	for i, p := range peaks {
		h := x[p]

		leftMin := h
		for k := p - 1; k >= 0 && x[k] <= h; k-- {
			leftMin = math.Min(leftMin, x[k])
		}
		rightMin := h
		for k := p + 1; k < len(x) && x[k] <= h; k++ {
			rightMin = math.Min(rightMin, x[k])
		}
		out[i] = h - math.Max(leftMin, rightMin)
	}
	return out
}

// Fallback marks i as an extremum when it strictly dominates every defined
// sample within ±distance. It never fails; undefined samples are never
// extrema.
func Fallback(x []float64, distance int, troughs bool) []int {
	if distance < 1 {
		distance = 1
	}
	var out []int
	for i, v := range x {
		if !finite(v) {
			continue
		}
		ok := true
		for k := i - distance; k <= i+distance && ok; k++ {
			if k == i || k < 0 || k >= len(x) || !finite(x[k]) {
				continue
			}
			if troughs {
				ok = v < x[k]
			} else {
				ok = v > x[k]
			}
		}
		if ok && hasNeighbour(x, i, distance) {
			out = append(out, i)
		}
	}
	return out
}

// hasNeighbour keeps a lone sample with nothing to compare against from
// counting as an extremum.
func hasNeighbour(x []float64, i, distance int) bool {
	for k := i - distance; k <= i+distance; k++ {
		if k != i && k >= 0 && k < len(x) && finite(x[k]) {
			return true
		}
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func bounds(x []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range x {
		if !finite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	return lo, hi, ok
}
