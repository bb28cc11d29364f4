package market

import "time"

// Resample aggregates ascending candles into bars of interval iv. Intraday
// buckets are aligned to the interval on the UTC clock, daily buckets to the
// UTC date. Open is the first bar's open, close the last bar's close, and
// volume the sum. Empty buckets produce no bar.
func Resample(candles []Candle, iv Interval) []Candle {
	if len(candles) == 0 || iv <= 0 {
		return nil
	}

	bucket := func(t time.Time) time.Time {
		t = t.UTC()
		if !iv.Intraday() {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return t.Truncate(iv.Duration())
	}

	var out []Candle
	var cur Candle
	var curKey time.Time
	open := false

	for _, c := range candles {
		k := bucket(c.Time)
		if open && k.Equal(curKey) {
			if c.High > cur.High {
				cur.High = c.High
			}
			if c.Low < cur.Low {
				cur.Low = c.Low
			}
			cur.Close = c.Close
			cur.Volume += c.Volume
			continue
		}
		if open {
			out = append(out, cur)
		}
		curKey = k
		cur = Candle{Time: k, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume}
		open = true
	}
	if open {
		out = append(out, cur)
	}
	return out
}

// Window keeps the candles with start <= Time < end. A zero bound is open.
func Window(candles []Candle, start, end time.Time) []Candle {
	out := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if !start.IsZero() && c.Time.Before(start) {
			continue
		}
		if !end.IsZero() && !c.Time.Before(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}
