// Package candletest builds synthetic candle series for tests.
package candletest

import (
	"math"
	"time"

	"github.com/rustyeddy/chartscan/market"
)

// Start is the timestamp of the first generated bar.
var Start = time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)

// Builder appends bars one interval apart.
type Builder struct {
	iv      market.Interval
	candles []market.Candle
}

// New returns a builder for bars of interval iv.
func New(iv market.Interval) *Builder {
	return &Builder{iv: iv}
}

func (b *Builder) next() time.Time {
	return Start.Add(time.Duration(len(b.candles)) * b.iv.Duration())
}

// Bar appends one explicit bar.
func (b *Builder) Bar(o, h, l, c, v float64) *Builder {
	b.candles = append(b.candles, market.Candle{
		Time: b.next(), Open: o, High: h, Low: l, Close: c, Volume: v,
	})
	return b
}

// Flat appends n bars with open=close=price, high=high and low=low.
func (b *Builder) Flat(n int, price, high, low, vol float64) *Builder {
	for i := 0; i < n; i++ {
		b.Bar(price, high, low, price, vol)
	}
	return b
}

// Closes appends one wickless bar per close; each bar opens at the previous
// close.
func (b *Builder) Closes(vol float64, closes ...float64) *Builder {
	for _, c := range closes {
		o := c
		if len(b.candles) > 0 {
			o = b.candles[len(b.candles)-1].Close
		}
		b.Bar(o, math.Max(o, c), math.Min(o, c), c, vol)
	}
	return b
}

// Ramp appends n wickless bars moving linearly from the last close to to.
func (b *Builder) Ramp(n int, to, vol float64) *Builder {
	from := to
	if len(b.candles) > 0 {
		from = b.candles[len(b.candles)-1].Close
	}
	for i := 1; i <= n; i++ {
		b.Closes(vol, from+(to-from)*float64(i)/float64(n))
	}
	return b
}

// Len returns the number of bars so far.
func (b *Builder) Len() int {
	return len(b.candles)
}

// Candles returns a copy of the bars.
func (b *Builder) Candles() []market.Candle {
	return append([]market.Candle(nil), b.candles...)
}

// Series wraps the bars as a series for symbol.
func (b *Builder) Series(symbol string) *market.Series {
	return market.NewSeries(symbol, b.iv, b.candles)
}
