package market

import (
	"sort"
	"time"
)

// Candle represents one OHLCV bar. Prices are in instrument currency units.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Range is High - Low.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Body is the absolute open/close distance.
func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperWick is the distance from the top of the body to the high.
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick is the distance from the low to the bottom of the body.
func (c Candle) LowerWick() float64 {
	bottom := c.Open
	if c.Close < bottom {
		bottom = c.Close
	}
	return bottom - c.Low
}

// Series is an ordered candle history for one symbol and interval.
type Series struct {
	Symbol   string
	Interval Interval
	Candles  []Candle

	duplicates int
}

// NewSeries copies candles, sorts them by time and drops duplicate
// timestamps keeping the first occurrence.
func NewSeries(symbol string, iv Interval, candles []Candle) *Series {
	cs := make([]Candle, len(candles))
	copy(cs, candles)

	// stable so keep-first survives the sort
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Time.Before(cs[j].Time)
	})

	s := &Series{Symbol: symbol, Interval: iv}
	s.Candles = cs[:0]
	for i, c := range cs {
		if i > 0 && !c.Time.After(s.Candles[len(s.Candles)-1].Time) {
			s.duplicates++
			continue
		}
		s.Candles = append(s.Candles, c)
	}
	return s
}

// Len returns the number of candles.
func (s *Series) Len() int {
	return len(s.Candles)
}

// Duplicates reports how many candles were dropped by NewSeries.
func (s *Series) Duplicates() int {
	return s.duplicates
}

// Closes returns the close column.
func (s *Series) Closes() []float64 {
	return column(s.Candles, func(c Candle) float64 { return c.Close })
}

// Highs returns the high column.
func (s *Series) Highs() []float64 {
	return column(s.Candles, func(c Candle) float64 { return c.High })
}

// Lows returns the low column.
func (s *Series) Lows() []float64 {
	return column(s.Candles, func(c Candle) float64 { return c.Low })
}

// Volumes returns the volume column.
func (s *Series) Volumes() []float64 {
	return column(s.Candles, func(c Candle) float64 { return c.Volume })
}

// Start returns the first candle time, zero when empty.
func (s *Series) Start() time.Time {
	if len(s.Candles) == 0 {
		return time.Time{}
	}
	return s.Candles[0].Time
}

// End returns the last candle time, zero when empty.
func (s *Series) End() time.Time {
	if len(s.Candles) == 0 {
		return time.Time{}
	}
	return s.Candles[len(s.Candles)-1].Time
}

func column(cs []Candle, f func(Candle) float64) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = f(c)
	}
	return out
}
