package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rustyeddy/chartscan/backtest"
	"github.com/rustyeddy/chartscan/market"
)

// ErrNotFound is returned when a run id is not in the journal.
var ErrNotFound = errors.New("not found")

const runColumns = `run_id, created, mode, bar_interval, symbols, kinds, start_time, end_time, params, partial,
	trades, wins, losses, win_rate, avg_gain_pct, net_pnl_pct, profit_factor, max_dd_pct, skipped, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r                     Run
		symbols, kinds, notes string
		skipped, params       string
	)
	err := row.Scan(
		&r.RunID, &r.Created, &r.Mode, &r.Interval, &symbols, &kinds,
		&r.Start, &r.End, &params, &r.Partial,
		&r.Overall.TradeCount, &r.Overall.Wins, &r.Overall.Losses, &r.Overall.WinRate,
		&r.Overall.AvgGainPct, &r.Overall.NetPnLPct, &r.Overall.ProfitFactor, &r.Overall.MaxDDPct,
		&skipped, &notes,
	)
	if err != nil {
		return Run{}, err
	}
	r.Symbols = splitList(symbols, ",")
	for _, k := range splitList(kinds, ",") {
		r.Kinds = append(r.Kinds, market.Kind(k))
	}
	if params != "" {
		r.Params = []byte(params)
	}
	r.Skipped = splitList(skipped, "\n")
	r.Notes = splitList(notes, "\n")
	r.Overall.Symbol = "ALL"
	return r, nil
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (Run, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %q %w", runID, ErrNotFound)
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (j *SQLite) ListRuns(limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY created DESC, run_id DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := j.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDetections returns a run's detections ordered by symbol then bar.
func (j *SQLite) ListDetections(runID string) ([]market.Detection, error) {
	rows, err := j.db.Query(`
		SELECT symbol, kind, bar_index, time, price, entry_price, stop_loss, target_price, exit_price, pnl_pct, evidence
		FROM detections
		WHERE run_id = ?
		ORDER BY symbol ASC, bar_index ASC, kind ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Detection
	for rows.Next() {
		var (
			d                       market.Detection
			kind, ev                string
			stop, target, exit, pnl sql.NullFloat64
		)
		if err := rows.Scan(
			&d.Symbol, &kind, &d.Index, &d.Time, &d.Price, &d.Entry,
			&stop, &target, &exit, &pnl, &ev,
		); err != nil {
			return nil, err
		}
		d.Kind = market.Kind(kind)
		d.Stop = nullable(stop)
		d.Target = nullable(target)
		d.Exit = nullable(exit)
		d.PnLPct = nullable(pnl)
		if err := json.Unmarshal([]byte(ev), &d.Evidence); err != nil {
			return nil, fmt.Errorf("decode evidence: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns a run's trades in exit order.
func (j *SQLite) ListTrades(runID string) ([]backtest.Trade, error) {
	rows, err := j.db.Query(`
		SELECT symbol, kind, side, entry_index, exit_index, entry_time, exit_time,
		       entry_price, exit_price, stop_loss, target_price, pnl_pct, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY exit_time ASC, symbol ASC, entry_index ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.Trade
	for rows.Next() {
		var (
			t          backtest.Trade
			kind, side string
		)
		if err := rows.Scan(
			&t.Symbol, &kind, &side, &t.EntryIndex, &t.ExitIndex, &t.EntryTime, &t.ExitTime,
			&t.EntryPrice, &t.ExitPrice, &t.Stop, &t.Target, &t.PnLPct, &t.Reason,
		); err != nil {
			return nil, err
		}
		t.Kind = market.Kind(kind)
		t.Side = backtest.Long
		if side == backtest.Short.String() {
			t.Side = backtest.Short
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStats returns a run's per-symbol statistics ordered by symbol.
func (j *SQLite) ListStats(runID string) ([]backtest.SymbolStatistics, error) {
	rows, err := j.db.Query(`
		SELECT symbol, trades, wins, losses, win_rate, avg_gain_pct, net_pnl_pct, profit_factor, max_dd_pct
		FROM symbol_stats
		WHERE run_id = ?
		ORDER BY symbol ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.SymbolStatistics
	for rows.Next() {
		var s backtest.SymbolStatistics
		if err := rows.Scan(
			&s.Symbol, &s.TradeCount, &s.Wins, &s.Losses, &s.WinRate,
			&s.AvgGainPct, &s.NetPnLPct, &s.ProfitFactor, &s.MaxDDPct,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return market.F(v.Float64)
}
