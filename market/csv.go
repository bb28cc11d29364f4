package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// CSVHeader is the canonical candle CSV header.
var CSVHeader = []string{"time", "open", "high", "low", "close", "volume"}

// ReadCSV reads canonical candle rows:
//
//	time,open,high,low,close[,volume]
//
// where time is RFC3339 or RFC3339Nano. A header row is allowed and
// empty rows are skipped. A missing volume column reads as zero.
func ReadCSV(r io.Reader) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		out  []Candle
		line int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}
		c, err := parseCandleRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}
}

func parseCandleRow(row []string) (Candle, error) {
	if len(row) < 5 {
		return Candle{}, fmt.Errorf("need at least 5 columns (time,open,high,low,close), got %d", len(row))
	}

	ts := strings.TrimSpace(row[0])
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return Candle{}, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}

	var vals [5]float64
	n := 4
	if len(row) > 5 {
		n = 5
	}
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Candle{}, fmt.Errorf("bad %s %q: %w", CSVHeader[i+1], row[i+1], err)
		}
		vals[i] = v
	}

	return Candle{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// WriteCSV writes candles with the canonical header.
func WriteCSV(w io.Writer, candles []Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, c := range candles {
		row := []string{
			c.Time.UTC().Format(time.RFC3339),
			f(c.Open), f(c.High), f(c.Low), f(c.Close), f(c.Volume),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
