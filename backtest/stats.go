package backtest

import (
	"math"
	"sort"

	"github.com/rustyeddy/chartscan/market"
)

// ProfitFactorCap stands in for an infinite profit factor: wins and no
// losses.
const ProfitFactorCap = 999.99

// SymbolStatistics aggregates one symbol's trades. Percent fields are in
// percent points.
type SymbolStatistics struct {
	Symbol       string  `json:"symbol"`
	TradeCount   int     `json:"trade_count"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	AvgGainPct   float64 `json:"avg_gain_pct"`
	NetPnLPct    float64 `json:"net_pnl_pct"`
	ProfitFactor float64 `json:"profit_factor"`
	MaxDDPct     float64 `json:"max_drawdown_pct"`
}

// Summarize aggregates trades. No trades gives all-zero statistics.
func Summarize(symbol string, trades []Trade) SymbolStatistics {
	s := SymbolStatistics{Symbol: symbol, TradeCount: len(trades)}
	if len(trades) == 0 {
		return s
	}

	var grossWin, grossLoss float64
	for _, t := range trades {
		s.NetPnLPct += t.PnLPct
		switch {
		case t.Win():
			s.Wins++
			grossWin += t.PnLPct
		case t.PnLPct < 0:
			s.Losses++
			grossLoss += t.PnLPct
		}
	}

	s.WinRate = float64(s.Wins) / float64(s.TradeCount) * 100
	s.AvgGainPct = s.NetPnLPct / float64(s.TradeCount)
	s.ProfitFactor = ProfitFactor(grossWin, grossLoss)
	s.MaxDDPct = MaxDrawdown(trades)
	return s
}

// ProfitFactor is grossWin/|grossLoss|, capped at ProfitFactorCap. It is 0
// without wins and the cap with wins but no losses.
func ProfitFactor(grossWin, grossLoss float64) float64 {
	if grossWin <= 0 {
		return 0
	}
	if grossLoss == 0 {
		return ProfitFactorCap
	}
	return math.Min(grossWin/math.Abs(grossLoss), ProfitFactorCap)
}

// MaxDrawdown is the largest peak-to-trough fall of the cumulative pnl
// curve, starting from zero, in trade order.
func MaxDrawdown(trades []Trade) float64 {
	var equity, peak, dd float64
	for _, t := range trades {
		equity += t.PnLPct
		peak = math.Max(peak, equity)
		dd = math.Max(dd, peak-equity)
	}
	return dd
}

// SummarizeByKind aggregates trades per detection kind. The Symbol field of
// each entry holds the kind name.
func SummarizeByKind(trades []Trade) map[market.Kind]SymbolStatistics {
	groups := make(map[market.Kind][]Trade)
	for _, t := range trades {
		groups[t.Kind] = append(groups[t.Kind], t)
	}
	out := make(map[market.Kind]SymbolStatistics, len(groups))
	for k, ts := range groups {
		out[k] = Summarize(string(k), ts)
	}
	return out
}

// SortByExit orders trades by exit time, then symbol, for pooled curves.
func SortByExit(trades []Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if !a.ExitTime.Equal(b.ExitTime) {
			return a.ExitTime.Before(b.ExitTime)
		}
		return a.Symbol < b.Symbol
	})
}
