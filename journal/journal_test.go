package journal

import (
	"time"

	"github.com/rustyeddy/chartscan/backtest"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/scan"
)

var (
	t0 = time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	t1 = time.Date(2024, 4, 10, 15, 30, 0, 0, time.UTC)
)

func sampleRun() Run {
	return Run{
		RunID:    "01HV0000000000000000000001",
		Created:  t1,
		Mode:     "backtest",
		Interval: "15m",
		Symbols:  []string{"EUR_USD", "GBP_USD"},
		Kinds:    []market.Kind{market.Breakout, market.DoubleBottom},
		Start:    t0,
		End:      t1,
		Params:   []byte(`{"hold_bars":3}`),
		Overall: backtest.SymbolStatistics{
			Symbol: "ALL", TradeCount: 2, Wins: 1, Losses: 1,
			WinRate: 50, AvgGainPct: 0.5, NetPnLPct: 1, ProfitFactor: 2, MaxDDPct: 1,
		},
		Skipped: []string{"GBP_USD (data_unavailable)"},
		Notes:   []string{"first note"},
	}
}

func sampleDetection() market.Detection {
	return market.Detection{
		Symbol: "EUR_USD",
		Time:   t0,
		Index:  80,
		Kind:   market.DoubleBottom,
		Price:  61,
		Entry:  61,
		Stop:   market.F(49.245),
		Target: market.F(69.75),
		Evidence: market.Evidence{
			Points: []market.Point{{Index: 79, Time: t0, Price: 50, Peak: false}},
			Level:  60,
		},
	}
}

func sampleTrades() []backtest.Trade {
	return []backtest.Trade{
		{
			Symbol: "EUR_USD", Kind: market.Breakout, Side: backtest.Long,
			EntryIndex: 81, ExitIndex: 83, EntryTime: t0, ExitTime: t1,
			EntryPrice: 103, ExitPrice: 106, PnLPct: 2.912621, Reason: backtest.ReasonHold,
		},
		{
			Symbol: "EUR_USD", Kind: market.DoubleTop, Side: backtest.Short,
			EntryIndex: 90, ExitIndex: 95, EntryTime: t0, ExitTime: t1.Add(time.Hour),
			EntryPrice: 95, ExitPrice: 96.9, Stop: 96.9, Target: 88.5, PnLPct: -2, Reason: backtest.ReasonStop,
		},
	}
}

func sampleReport() *scan.Report {
	trades := sampleTrades()
	return &scan.Report{
		Window:   scan.Window{Interval: market.Minute15, Start: t0, End: t1},
		Started:  t0,
		Finished: t1,
		Overall:  backtest.Summarize("ALL", trades),
		Results: []scan.SymbolResult{
			{
				Symbol:     "EUR_USD",
				Bars:       120,
				Detections: []market.Detection{sampleDetection()},
				Trades:     trades,
				Stats:      backtest.Summarize("EUR_USD", trades),
			},
			{Symbol: "GBP_USD", Skipped: true, Reason: scan.ReasonDataUnavailable},
		},
	}
}
