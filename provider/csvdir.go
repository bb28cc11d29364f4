package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/chartscan/market"
)

// CSVDir serves candles from CSV files in Dir, named <SYMBOL>_<interval>.csv
// (for example NIFTY_15m.csv) or <SYMBOL>.csv. A file at a finer interval is
// not resampled; name files for the interval they hold.
type CSVDir struct {
	Dir string
}

func (d CSVDir) Name() string {
	return "csv"
}

// Path returns the first existing file for req, or "" when none exists.
func (d CSVDir) Path(symbol string, iv market.Interval) string {
	base := strings.ToUpper(strings.TrimSpace(symbol))
	for _, name := range []string{
		fmt.Sprintf("%s_%s.csv", base, iv),
		base + ".csv",
	} {
		p := filepath.Join(d.Dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

func (d CSVDir) Candles(ctx context.Context, req Request) ([]market.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.Path(req.Symbol, req.Interval)
	if path == "" {
		return nil, fmt.Errorf("%w: no csv for %s in %s", ErrDataUnavailable, req.Symbol, d.Dir)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}
		return nil, err
	}
	defer f.Close()

	candles, err := market.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return market.Window(candles, req.Start, req.End), nil
}

// Save writes candles to Dir as <SYMBOL>_<interval>.csv, creating Dir.
func (d CSVDir) Save(symbol string, iv market.Interval, candles []market.Candle) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(d.Dir, fmt.Sprintf("%s_%s.csv", strings.ToUpper(symbol), iv))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := market.WriteCSV(f, candles); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
