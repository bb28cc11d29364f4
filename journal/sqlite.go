package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/chartscan/backtest"
	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/pkg/id"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, mode, bar_interval, symbols, kinds, start_time, end_time, params, partial,
		 trades, wins, losses, win_rate, avg_gain_pct, net_pnl_pct, profit_factor, max_dd_pct, skipped, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Mode, r.Interval,
		strings.Join(r.Symbols, ","), joinKinds(r.Kinds),
		r.Start.UTC(), r.End.UTC(), string(r.Params), r.Partial,
		r.Overall.TradeCount, r.Overall.Wins, r.Overall.Losses, r.Overall.WinRate,
		r.Overall.AvgGainPct, r.Overall.NetPnLPct, r.Overall.ProfitFactor, r.Overall.MaxDDPct,
		strings.Join(r.Skipped, "\n"), strings.Join(r.Notes, "\n"),
	)
	return err
}

func (j *SQLite) RecordDetection(runID string, d market.Detection) error {
	ev, err := json.Marshal(d.Evidence)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	_, err = j.db.Exec(`
		INSERT INTO detections
		(run_id, symbol, kind, bar_index, time, price, entry_price, stop_loss, target_price, exit_price, pnl_pct, evidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, d.Symbol, string(d.Kind), d.Index, d.Time.UTC(), d.Price, d.Entry,
		d.Stop, d.Target, d.Exit, d.PnLPct, string(ev),
	)
	return err
}

func (j *SQLite) RecordTrade(runID string, t backtest.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, symbol, kind, side, entry_index, exit_index, entry_time, exit_time,
		 entry_price, exit_price, stop_loss, target_price, pnl_pct, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.New(), runID, t.Symbol, string(t.Kind), t.Side.String(),
		t.EntryIndex, t.ExitIndex, t.EntryTime.UTC(), t.ExitTime.UTC(),
		t.EntryPrice, t.ExitPrice, t.Stop, t.Target, t.PnLPct, t.Reason,
	)
	return err
}

func (j *SQLite) RecordStats(runID string, s backtest.SymbolStatistics) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO symbol_stats
		(run_id, symbol, trades, wins, losses, win_rate, avg_gain_pct, net_pnl_pct, profit_factor, max_dd_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.Symbol, s.TradeCount, s.Wins, s.Losses, s.WinRate,
		s.AvgGainPct, s.NetPnLPct, s.ProfitFactor, s.MaxDDPct,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func joinKinds(kinds []market.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}
