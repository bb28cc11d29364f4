package market

import "time"

// Point is one extremum or reference bar that supports a detection.
type Point struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Peak  bool      `json:"peak"`
}

// Evidence records what satisfied a detector's constraints.
type Evidence struct {
	Points   []Point `json:"points,omitempty"`
	Level    float64 `json:"level,omitempty"` // swing level or neckline
	VolRatio float64 `json:"vol_ratio,omitempty"`
	Momentum float64 `json:"momentum,omitempty"`
	ATR      float64 `json:"atr,omitempty"`
}

// Detection is one signal or pattern found on a symbol's history.
//
// Stop and Target are nil for BREAKOUT and BREAKDOWN, which exit after a
// fixed number of bars instead. Exit and PnLPct are only set by the signal
// detector when the hold-bars exit bar exists.
type Detection struct {
	Symbol   string    `json:"symbol"`
	Time     time.Time `json:"time"`
	Index    int       `json:"index"`
	Kind     Kind      `json:"kind"`
	Price    float64   `json:"price"`
	Entry    float64   `json:"entry_price"`
	Stop     *float64  `json:"stop_loss,omitempty"`
	Target   *float64  `json:"target_price,omitempty"`
	Exit     *float64  `json:"exit_price,omitempty"`
	PnLPct   *float64  `json:"pnl_pct,omitempty"`
	Evidence Evidence  `json:"evidence"`
}

// F returns a pointer to v, for the optional price fields.
func F(v float64) *float64 {
	return &v
}

// Val dereferences p, returning 0 for nil.
func Val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
