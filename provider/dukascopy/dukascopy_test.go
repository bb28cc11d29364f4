package dukascopy

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/chartscan/market"
	"github.com/rustyeddy/chartscan/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz/lzma"
)

type minute struct {
	secs         uint32
	o, c, lo, hi uint32
	vol          float32
}

func encode(t *testing.T, ms []minute) []byte {
	t.Helper()
	var raw bytes.Buffer
	for _, m := range ms {
		for _, v := range []uint32{m.secs, m.o, m.c, m.lo, m.hi, math.Float32bits(m.vol)} {
			require.NoError(t, binary.Write(&raw, binary.BigEndian, v))
		}
	}

	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDayURL(t *testing.T) {
	got := DayURL(DefaultBaseURL+"/", "EURUSD", time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC))
	assert.Equal(t, "https://datafeed.dukascopy.com/datafeed/EURUSD/2024/00/05/BID_candles_min_1.bi5", got)
}

func TestDecode(t *testing.T) {
	var raw bytes.Buffer
	for _, v := range []uint32{60, 110000, 110050, 109990, 110070, math.Float32bits(2.5)} {
		require.NoError(t, binary.Write(&raw, binary.BigEndian, v))
	}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	got, err := Decode(raw.Bytes(), day, 1e5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day.Add(time.Minute), got[0].Time)
	assert.InDelta(t, 1.1, got[0].Open, 1e-12)
	assert.InDelta(t, 1.1005, got[0].Close, 1e-12)
	assert.InDelta(t, 1.0999, got[0].Low, 1e-12)
	assert.InDelta(t, 1.1007, got[0].High, 1e-12)
	assert.InDelta(t, 2.5, got[0].Volume, 1e-6)

	_, err = Decode(raw.Bytes()[:20], day, 1e5)
	assert.Error(t, err)
}

func TestCandlesAggregates(t *testing.T) {
	t.Parallel()

	day1 := encode(t, []minute{
		{0, 150000, 150010, 149990, 150020, 1},
		{60, 150010, 150030, 150000, 150040, 2},
		{15 * 60, 150030, 150020, 150010, 150035, 4},
	})

	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if strings.HasSuffix(r.URL.Path, "/USDJPY/2024/02/01/BID_candles_min_1.bi5") {
			_, _ = w.Write(day1)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	got, err := c.Candles(context.Background(), provider.Request{
		Symbol:   "USD_JPY",
		Interval: market.Minute15,
		Start:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	mu.Lock()
	assert.Len(t, paths, 2)
	mu.Unlock()
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.Time)
	assert.InDelta(t, 150.000, first.Open, 1e-9)
	assert.InDelta(t, 150.040, first.High, 1e-9)
	assert.InDelta(t, 149.990, first.Low, 1e-9)
	assert.InDelta(t, 150.030, first.Close, 1e-9)
	assert.InDelta(t, 3.0, first.Volume, 1e-6)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 15, 0, 0, time.UTC), got[1].Time)
}

func TestCandlesUnknownSymbol(t *testing.T) {
	c := &Client{BaseURL: "http://127.0.0.1:1"}
	_, err := c.Candles(context.Background(), provider.Request{
		Symbol:   "NIFTY",
		Interval: market.Minute15,
		Start:    time.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, provider.ErrDataUnavailable)
}

func TestCandlesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.Candles(context.Background(), provider.Request{
		Symbol:   "EURUSD",
		Interval: market.Hour1,
		Start:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http status 502")
}
