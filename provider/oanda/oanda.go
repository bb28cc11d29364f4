// Package oanda fetches candles from the OANDA v20 REST API.
package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/provider"
)

// MaxCount is the largest page the candles endpoint returns.
const MaxCount = 5000

type Client struct {
	BaseURL string // e.g. https://api-fxpractice.oanda.com
	Token   string
	Price   string // M, B or A; M when empty
	HTTP    *http.Client

	// IncludeIncomplete keeps the still-forming last candle.
	IncludeIncomplete bool
}

func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo":
		return "https://api-fxpractice.oanda.com", nil
	case "live", "trade":
		return "https://api-fxtrade.oanda.com", nil
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

type ohlc struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candlesResp struct {
	Instrument  string `json:"instrument"`
	Granularity string `json:"granularity"`
	Candles     []struct {
		Complete bool   `json:"complete"`
		Time     string `json:"time"`
		Volume   int    `json:"volume"`
		Mid      *ohlc  `json:"mid,omitempty"`
		Bid      *ohlc  `json:"bid,omitempty"`
		Ask      *ohlc  `json:"ask,omitempty"`
	} `json:"candles"`
}

func (c *Client) Name() string {
	return "oanda"
}

// Candles pages through [req.Start, req.End) MaxCount candles at a time.
func (c *Client) Candles(ctx context.Context, req provider.Request) ([]market.Candle, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("oanda: missing token")
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("oanda: missing base url")
	}
	if req.Symbol == "" {
		return nil, fmt.Errorf("oanda: missing instrument")
	}
	gran, err := req.Interval.Granularity()
	if err != nil {
		return nil, fmt.Errorf("oanda: %w", err)
	}
	instrument := market.NormalizeInstrument(req.Symbol)

	var out []market.Candle
	from := req.Start
	for {
		page, err := c.page(ctx, instrument, gran, from)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < MaxCount {
			break
		}
		last := page[len(page)-1].Time
		if !req.End.IsZero() && !last.Before(req.End) {
			break
		}
		from = last.Add(req.Interval.Duration())
	}
	return market.Window(out, req.Start, req.End), nil
}

func (c *Client) page(ctx context.Context, instrument, gran string, from time.Time) ([]market.Candle, error) {
	price := strings.ToUpper(strings.TrimSpace(c.Price))
	if price == "" {
		price = "M"
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = fmt.Sprintf("/v3/instruments/%s/candles", instrument)

	q := u.Query()
	q.Set("granularity", gran)
	q.Set("price", price)
	q.Set("count", strconv.Itoa(MaxCount))
	if !from.IsZero() {
		q.Set("from", from.UTC().Format(time.RFC3339Nano))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("%w: oanda candles http %d: %s", provider.ErrDataUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("oanda candles http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cr candlesResp
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, err
	}

	out := make([]market.Candle, 0, len(cr.Candles))
	for _, cd := range cr.Candles {
		if !cd.Complete && !c.IncludeIncomplete {
			continue
		}
		var set *ohlc
		switch price {
		case "M":
			set = cd.Mid
		case "B":
			set = cd.Bid
		case "A":
			set = cd.Ask
		default:
			return nil, fmt.Errorf("oanda: price=%s not supported; use M/B/A", price)
		}
		if set == nil {
			continue
		}

		candle, err := parseCandle(cd.Time, cd.Volume, set)
		if err != nil {
			return nil, fmt.Errorf("oanda: %s %s: %w", instrument, cd.Time, err)
		}
		out = append(out, candle)
	}
	return out, nil
}

func parseCandle(ts string, volume int, set *ohlc) (market.Candle, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return market.Candle{}, err
	}
	var vals [4]float64
	for i, s := range []string{set.O, set.H, set.L, set.C} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("bad price %q", s)
		}
		vals[i] = v
	}
	return market.Candle{
		Time:   t.UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: float64(volume),
	}, nil
}
