package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rustyeddy/chartscan/config"
	"github.com/rustyeddy/chartscan/provider"
	"github.com/rustyeddy/chartscan/provider/cache"
	"github.com/rustyeddy/chartscan/provider/dukascopy"
	"github.com/rustyeddy/chartscan/provider/oanda"
)

const httpTimeout = 30 * time.Second

// buildProvider composes the configured sources into a chain, wrapped in
// the redis cache when enabled. The returned func releases the cache
// connection.
func buildProvider(ctx context.Context, c config.ProvidersConfig, log *slog.Logger) (provider.Provider, func() error, error) {
	hc := &http.Client{Timeout: httpTimeout}

	var chain provider.Chain
	for _, name := range c.Order {
		switch name {
		case "csv":
			chain = append(chain, provider.CSVDir{Dir: c.CSV.Dir})
		case "oanda":
			if c.OANDA.Token == "" {
				log.Warn("oanda provider has no token, skipping", "hint", "set OANDA_TOKEN")
				continue
			}
			chain = append(chain, &oanda.Client{
				BaseURL: c.OANDA.BaseURL,
				Token:   c.OANDA.Token,
				Price:   c.OANDA.Price,
				HTTP:    hc,
			})
		case "dukascopy":
			chain = append(chain, &dukascopy.Client{BaseURL: c.Dukascopy.BaseURL, HTTP: hc})
		default:
			return nil, nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	if len(chain) == 0 {
		return nil, nil, fmt.Errorf("no usable providers in %v", c.Order)
	}

	noop := func() error { return nil }
	if !c.Cache.Enabled {
		return chain, noop, nil
	}

	ttl, err := c.Cache.ParseTTL()
	if err != nil {
		return nil, nil, fmt.Errorf("cache ttl: %w", err)
	}
	store, err := cache.NewRedisStore(ctx, c.Cache.Addr, c.Cache.Password, c.Cache.DB)
	if err != nil {
		log.Warn("candle cache unavailable, continuing without it", "addr", c.Cache.Addr, "err", err)
		return chain, noop, nil
	}
	log.Debug("candle cache enabled", "addr", c.Cache.Addr, "ttl", ttl)
	return &cache.Provider{Inner: chain, Store: store, TTL: ttl}, store.Close, nil
}
