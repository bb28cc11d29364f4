package market

import (
	"fmt"
	"strings"
)

// Kind names one of the eleven detections the screener emits.
type Kind string

const (
	Breakout             Kind = "BREAKOUT"
	Breakdown            Kind = "BREAKDOWN"
	RSIBullishDivergence Kind = "RSI_BULLISH_DIVERGENCE"
	RSIBearishDivergence Kind = "RSI_BEARISH_DIVERGENCE"
	UptrendRetest        Kind = "UPTREND_RETEST"
	DowntrendRetest      Kind = "DOWNTREND_RETEST"
	InverseHeadShoulders Kind = "INVERSE_HEAD_SHOULDERS"
	DoubleBottom         Kind = "DOUBLE_BOTTOM"
	DoubleTop            Kind = "DOUBLE_TOP"
	TripleBottom         Kind = "TRIPLE_BOTTOM"
	TripleTop            Kind = "TRIPLE_TOP"
)

// AllKinds lists every kind in a fixed order.
var AllKinds = []Kind{
	Breakout,
	Breakdown,
	RSIBullishDivergence,
	RSIBearishDivergence,
	UptrendRetest,
	DowntrendRetest,
	InverseHeadShoulders,
	DoubleBottom,
	DoubleTop,
	TripleBottom,
	TripleTop,
}

// ParseKind accepts the canonical name in any case, with '-' or '_'.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !k.Valid() {
		return "", fmt.Errorf("unknown detection kind %q", s)
	}
	return k, nil
}

// ParseKinds parses a list of names. An empty list means every kind.
func ParseKinds(names []string) ([]Kind, error) {
	if len(names) == 0 {
		return append([]Kind(nil), AllKinds...), nil
	}
	out := make([]Kind, 0, len(names))
	seen := make(map[Kind]bool)
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// Valid reports whether k is one of AllKinds.
func (k Kind) Valid() bool {
	for _, a := range AllKinds {
		if a == k {
			return true
		}
	}
	return false
}

// IsSignal is true for the hold-bars signals BREAKOUT and BREAKDOWN.
func (k Kind) IsSignal() bool {
	return k == Breakout || k == Breakdown
}

// Bullish reports whether the detection expects price to rise.
func (k Kind) Bullish() bool {
	switch k {
	case Breakout, RSIBullishDivergence, UptrendRetest, InverseHeadShoulders, DoubleBottom, TripleBottom:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}
