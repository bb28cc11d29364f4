package indicators

import "math"

// Defined reports whether v holds a usable value. Undefined indicator
// values are NaN and mean "skip this bar", never zero.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// RollingMean is the trailing mean over window bars. It uses whatever
// defined values are available in the window (min periods 1) and yields NaN
// only when the window holds no defined value.
//
// Each window is summed directly so an all-zero window is exactly zero.
func RollingMean(x []float64, window int) []float64 {
	return rollingMean(x, window, 1)
}

// RollingFullMean is like RollingMean but requires window defined values.
func RollingFullMean(x []float64, window int) []float64 {
	return rollingMean(x, window, window)
}

func rollingMean(x []float64, window, minPeriods int) []float64 {
	out := nanSlice(len(x))
	if window <= 0 {
		return out
	}

	for i := range x {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		var (
			sum   float64
			count int
		)
		for _, v := range x[lo : i+1] {
			if Defined(v) {
				sum += v
				count++
			}
		}
		if count >= minPeriods && count > 0 {
			out[i] = sum / float64(count)
		}
	}
	return out
}

// RollingMax is the trailing maximum over window bars (min periods 1).
func RollingMax(x []float64, window int) []float64 {
	return rollingExtreme(x, window, func(a, b float64) bool { return a >= b })
}

// RollingMin is the trailing minimum over window bars (min periods 1).
func RollingMin(x []float64, window int) []float64 {
	return rollingExtreme(x, window, func(a, b float64) bool { return a <= b })
}

// rollingExtreme keeps a monotonic deque of indices; dominates(a, b) is true
// when a makes b redundant.
func rollingExtreme(x []float64, window int, dominates func(a, b float64) bool) []float64 {
	out := nanSlice(len(x))
	if window <= 0 {
		return out
	}

	dq := make([]int, 0, window)
	for i, v := range x {
		for len(dq) > 0 && dq[0] <= i-window {
			dq = dq[1:]
		}
		if Defined(v) {
			for len(dq) > 0 && dominates(v, x[dq[len(dq)-1]]) {
				dq = dq[:len(dq)-1]
			}
			dq = append(dq, i)
		}
		if len(dq) > 0 {
			out[i] = x[dq[0]]
		}
	}
	return out
}
