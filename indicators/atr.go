package indicators

import (
	"github.com/markcheno/go-talib"
)

// ATR returns Wilder's average true range. Bars inside the warmup are NaN.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if period <= 0 || n <= period {
		return out
	}

	atr := talib.Atr(highs, lows, closes, period)
	for i := period; i < n && i < len(atr); i++ {
		out[i] = atr[i]
	}
	return out
}
