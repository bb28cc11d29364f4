package indicators

import "math"

// NeutralRSI is reported whenever RSI cannot be computed.
const NeutralRSI = 50.0

// RSI computes a relative strength index from plain rolling means of gains
// and losses over period bars. Any non-finite result, a zero average loss or
// missing history yields NeutralRSI, so the output is always in [0,100].
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	gains := nanSlice(n)
	losses := nanSlice(n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if !Defined(d) {
			continue
		}
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}

	avgGain := RollingFullMean(gains, period)
	avgLoss := RollingFullMean(losses, period)

	out := make([]float64, n)
	for i := range out {
		out[i] = rsiValue(avgGain[i], avgLoss[i])
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if !Defined(avgGain) || !Defined(avgLoss) || avgLoss == 0 {
		return NeutralRSI
	}
	rs := avgGain / avgLoss
	v := 100 - 100/(1+rs)
	if !Defined(v) {
		return NeutralRSI
	}
	return v
}
