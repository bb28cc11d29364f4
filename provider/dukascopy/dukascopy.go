// Package dukascopy reads the public Dukascopy datafeed: one LZMA compressed
// file of minute candles per instrument and UTC day, aggregated here to the
// requested interval.
package dukascopy

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/provider"
	"github.com/ulikunitz/xz/lzma"
)

const DefaultBaseURL = "https://datafeed.dukascopy.com/datafeed"

// recordSize is one minute candle: uint32 second offset, open, close, low
// and high as uint32 points, float32 volume. Big endian.
const recordSize = 24

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func (c *Client) Name() string {
	return "dukascopy"
}

// DayURL is the minute candle file for symbol on the UTC day of t.
// Dukascopy months are zero based: Jan=00 ... Dec=11.
func DayURL(base, symbol string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/BID_candles_min_1.bi5",
		strings.TrimRight(base, "/"),
		symbol,
		t.Year(), int(t.Month())-1, t.Day())
}

func (c *Client) Candles(ctx context.Context, req provider.Request) ([]market.Candle, error) {
	meta, ok := market.LookupInstrument(req.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: dukascopy has no FX pair %q", provider.ErrDataUnavailable, req.Symbol)
	}
	if req.Start.IsZero() {
		return nil, fmt.Errorf("dukascopy: start time required")
	}
	end := req.End
	if end.IsZero() {
		end = time.Now().UTC()
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	symbol := strings.ReplaceAll(meta.Name, "_", "")
	scale := meta.PointScale()

	var minutes []market.Candle
	s := req.Start.UTC()
	for day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC); day.Before(end); day = day.AddDate(0, 0, 1) {
		raw, err := c.fetch(ctx, DayURL(base, symbol, day))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		bars, err := Decode(raw, day, scale)
		if err != nil {
			return nil, fmt.Errorf("dukascopy: %s %s: %w", symbol, day.Format("2006-01-02"), err)
		}
		minutes = append(minutes, bars...)
	}

	minutes = market.Window(minutes, req.Start, req.End)
	if req.Interval == market.Minute1 {
		return minutes, nil
	}
	return market.Resample(minutes, req.Interval), nil
}

// fetch returns the decompressed file, or nil for a day with no data.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "chartscan/1.0")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dukascopy: %s: http status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	r, err := lzma.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dukascopy: %s: %w", url, err)
	}
	return io.ReadAll(r)
}

// Decode parses decompressed minute records for the day starting at day.
// Prices are divided by scale. Minutes with no trading (zero volume and
// equal OHLC) are kept; callers filter if they care.
func Decode(raw []byte, day time.Time, scale float64) ([]market.Candle, error) {
	if len(raw)%recordSize != 0 {
		return nil, fmt.Errorf("truncated data: %d bytes is not a multiple of %d", len(raw), recordSize)
	}
	out := make([]market.Candle, 0, len(raw)/recordSize)
	for off := 0; off < len(raw); off += recordSize {
		rec := raw[off : off+recordSize]
		secs := binary.BigEndian.Uint32(rec[0:4])
		o := binary.BigEndian.Uint32(rec[4:8])
		cl := binary.BigEndian.Uint32(rec[8:12])
		lo := binary.BigEndian.Uint32(rec[12:16])
		hi := binary.BigEndian.Uint32(rec[16:20])
		vol := math.Float32frombits(binary.BigEndian.Uint32(rec[20:24]))

		out = append(out, market.Candle{
			Time:   day.Add(time.Duration(secs) * time.Second),
			Open:   float64(o) / scale,
			High:   float64(hi) / scale,
			Low:    float64(lo) / scale,
			Close:  float64(cl) / scale,
			Volume: float64(vol),
		})
	}
	return out, nil
}
