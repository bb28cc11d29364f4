package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/scan"
)

// NewRun describes a finished scan report as a journal run.
func NewRun(runID, mode string, r *scan.Report, p config.Params) (Run, error) {
	params, err := json.Marshal(p)
	if err != nil {
		return Run{}, fmt.Errorf("encode params: %w", err)
	}

	br := r.BacktestReport(runID)
	created := r.Finished
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return Run{
		RunID:    runID,
		Created:  created,
		Mode:     mode,
		Interval: br.Interval,
		Symbols:  br.Symbols,
		Kinds:    br.Kinds,
		Start:    br.Start,
		End:      br.End,
		Params:   params,
		Partial:  r.Partial,
		Overall:  r.Overall,
		Skipped:  br.Skipped,
		Notes:    br.Notes,
	}, nil
}

// Record writes run and every analysed symbol's detections, trades and
// statistics to j.
func Record(j Journal, run Run, r *scan.Report) error {
	if err := j.RecordRun(run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	for _, res := range r.Results {
		if res.Skipped {
			continue
		}
		for _, d := range res.Detections {
			if err := j.RecordDetection(run.RunID, d); err != nil {
				return fmt.Errorf("record detection %s %s: %w", d.Symbol, d.Kind, err)
			}
		}
		for _, t := range res.Trades {
			if err := j.RecordTrade(run.RunID, t); err != nil {
				return fmt.Errorf("record trade %s %s: %w", t.Symbol, t.Kind, err)
			}
		}
		if err := j.RecordStats(run.RunID, res.Stats); err != nil {
			return fmt.Errorf("record stats %s: %w", res.Symbol, err)
		}
	}
	return nil
}

// Open returns the journal named by c, or nil for type "none".
func Open(c config.JournalConfig) (Journal, error) {
	switch c.Type {
	case "", "none":
		return nil, nil
	case "csv":
		j, err := NewCSV(c.TradesCSV, c.StatsCSV)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "sqlite":
		j, err := NewSQLite(c.DBPath)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", c.Type)
	}
}
