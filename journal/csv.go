package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/chartscan/backtest"
	"github.com/rustyeddy/chartscan/market"
)

// CSV writes trades and per-symbol statistics to two files. Runs and
// detections are not recorded.
type CSV struct {
	trades *csv.Writer
	stats  *csv.Writer
	tf, sf *os.File
}

var (
	tradeHeader = []string{"run_id", "symbol", "kind", "side", "entry_time", "exit_time",
		"entry_price", "exit_price", "stop_loss", "target_price", "pnl_pct", "reason"}
	statsHeader = []string{"run_id", "symbol", "trades", "wins", "losses", "win_rate",
		"avg_gain_pct", "net_pnl_pct", "profit_factor", "max_dd_pct"}
)

func NewCSV(tradesPath, statsPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(statsPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	j := &CSV{trades: csv.NewWriter(tf), stats: csv.NewWriter(sf), tf: tf, sf: sf}
	if err := j.write(j.trades, tradeHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.write(j.stats, statsHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSV) RecordRun(Run) error { return nil }

func (j *CSV) RecordDetection(string, market.Detection) error { return nil }

func (j *CSV) RecordTrade(runID string, t backtest.Trade) error {
	return j.write(j.trades, []string{
		runID,
		t.Symbol,
		string(t.Kind),
		t.Side.String(),
		t.EntryTime.UTC().Format(time.RFC3339),
		t.ExitTime.UTC().Format(time.RFC3339),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Stop),
		f(t.Target),
		f(t.PnLPct),
		t.Reason,
	})
}

func (j *CSV) RecordStats(runID string, s backtest.SymbolStatistics) error {
	return j.write(j.stats, []string{
		runID,
		s.Symbol,
		strconv.Itoa(s.TradeCount),
		strconv.Itoa(s.Wins),
		strconv.Itoa(s.Losses),
		f(s.WinRate),
		f(s.AvgGainPct),
		f(s.NetPnLPct),
		f(s.ProfitFactor),
		f(s.MaxDDPct),
	})
}

func (j *CSV) write(w *csv.Writer, rec []string) error {
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	j.stats.Flush()
	return errors.Join(j.trades.Error(), j.stats.Error(), j.tf.Close(), j.sf.Close())
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
