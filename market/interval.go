package market

import (
	"fmt"
	"strings"
	"time"
)

// Interval is a candle timeframe stored as whole minutes.
type Interval int

const (
	Minute1  Interval = 1
	Minute3  Interval = 3
	Minute5  Interval = 5
	Minute10 Interval = 10
	Minute15 Interval = 15
	Minute30 Interval = 30
	Hour1    Interval = 60
	Hour2    Interval = 120
	Hour4    Interval = 240
	Day1     Interval = 1440
)

var intervalNames = map[string]Interval{
	"1m":  Minute1,
	"3m":  Minute3,
	"5m":  Minute5,
	"10m": Minute10,
	"15m": Minute15,
	"30m": Minute30,
	"1h":  Hour1,
	"2h":  Hour2,
	"4h":  Hour4,
	"1d":  Day1,

	// OANDA style granularities
	"M1":  Minute1,
	"M5":  Minute5,
	"M15": Minute15,
	"M30": Minute30,
	"H1":  Hour1,
	"H2":  Hour2,
	"H4":  Hour4,
	"D":   Day1,
	"D1":  Day1,
}

// ParseInterval accepts "15m", "1h", "1d" and OANDA granularities like "M15".
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if iv, ok := intervalNames[s]; ok {
		return iv, nil
	}
	if iv, ok := intervalNames[strings.ToLower(s)]; ok {
		return iv, nil
	}
	if iv, ok := intervalNames[strings.ToUpper(s)]; ok {
		return iv, nil
	}
	return 0, fmt.Errorf("unsupported interval: %q", s)
}

// Minutes returns the bar length in minutes.
func (iv Interval) Minutes() int {
	return int(iv)
}

// Duration returns the bar length.
func (iv Interval) Duration() time.Duration {
	return time.Duration(iv) * time.Minute
}

// Intraday reports whether bars are shorter than one day.
func (iv Interval) Intraday() bool {
	return iv > 0 && iv < Day1
}

func (iv Interval) String() string {
	switch {
	case iv <= 0:
		return "invalid"
	case iv%Day1 == 0:
		return fmt.Sprintf("%dd", iv/Day1)
	case iv%Hour1 == 0:
		return fmt.Sprintf("%dh", iv/Hour1)
	default:
		return fmt.Sprintf("%dm", int(iv))
	}
}

// Granularity maps the interval to an OANDA granularity string.
func (iv Interval) Granularity() (string, error) {
	switch iv {
	case Minute1:
		return "M1", nil
	case Minute5:
		return "M5", nil
	case Minute15:
		return "M15", nil
	case Minute30:
		return "M30", nil
	case Hour1:
		return "H1", nil
	case Hour2:
		return "H2", nil
	case Hour4:
		return "H4", nil
	case Day1:
		return "D", nil
	default:
		return "", fmt.Errorf("cannot map interval %s to a granularity", iv)
	}
}

// WeekBars is the number of bars in one trading week of momentum history:
// sessions*sessionMinutes/interval for intraday bars and 1 for daily bars.
func (iv Interval) WeekBars(sessionMinutes, sessions int) int {
	if !iv.Intraday() {
		return 1
	}
	n := sessions * sessionMinutes / iv.Minutes()
	if n < 1 {
		n = 1
	}
	return n
}
