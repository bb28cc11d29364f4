package market

import (
	"math"
	"strings"
)

// InstrumentMeta describes how an FX instrument is quoted.
type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {Name: "EUR_USD", BaseCurrency: "EUR", QuoteCurrency: "USD", PipLocation: -4},
	"GBP_USD": {Name: "GBP_USD", BaseCurrency: "GBP", QuoteCurrency: "USD", PipLocation: -4},
	"AUD_USD": {Name: "AUD_USD", BaseCurrency: "AUD", QuoteCurrency: "USD", PipLocation: -4},
	"USD_CHF": {Name: "USD_CHF", BaseCurrency: "USD", QuoteCurrency: "CHF", PipLocation: -4},
	"USD_CAD": {Name: "USD_CAD", BaseCurrency: "USD", QuoteCurrency: "CAD", PipLocation: -4},
	"USD_JPY": {Name: "USD_JPY", BaseCurrency: "USD", QuoteCurrency: "JPY", PipLocation: -2},
	"EUR_JPY": {Name: "EUR_JPY", BaseCurrency: "EUR", QuoteCurrency: "JPY", PipLocation: -2},
}

// NormalizeInstrument turns "eurusd", "EUR/USD" or "EUR_USD" into "EUR_USD".
// Names that do not look like a currency pair are upper-cased and returned.
func NormalizeInstrument(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("/", "_", "-", "_").Replace(s)
	if len(s) == 6 && !strings.Contains(s, "_") {
		return s[:3] + "_" + s[3:]
	}
	return s
}

// LookupInstrument finds metadata for any spelling NormalizeInstrument
// accepts. Unknown pairs quoted in JPY get a pip location of -2, other six
// letter pairs -4.
func LookupInstrument(s string) (InstrumentMeta, bool) {
	name := NormalizeInstrument(s)
	if m, ok := Instruments[name]; ok {
		return m, true
	}
	base, quote, ok := strings.Cut(name, "_")
	if !ok || len(base) != 3 || len(quote) != 3 {
		return InstrumentMeta{}, false
	}
	pip := -4
	if quote == "JPY" {
		pip = -2
	}
	return InstrumentMeta{Name: name, BaseCurrency: base, QuoteCurrency: quote, PipLocation: pip}, true
}

// PointScale is the integer scale of one price point, a tenth of a pip:
// 1e5 for EUR_USD, 1e3 for USD_JPY.
func (m InstrumentMeta) PointScale() float64 {
	return math.Pow10(-m.PipLocation + 1)
}
