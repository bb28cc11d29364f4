// Package provider defines the candle source contract and composes sources
// into an ordered chain.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rustyeddy/chartscan/market"
)

// ErrDataUnavailable means a source has no candles for the request. It is
// an expected outcome, not a fault.
var ErrDataUnavailable = errors.New("data unavailable")

// Request asks for candles of one symbol in [Start, End).
type Request struct {
	Symbol   string
	Interval market.Interval
	Start    time.Time
	End      time.Time
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s %s..%s", r.Symbol, r.Interval,
		r.Start.UTC().Format(time.RFC3339), r.End.UTC().Format(time.RFC3339))
}

// Provider returns an ordered, possibly empty candle sequence or an error
// wrapping ErrDataUnavailable. Providers never retry.
type Provider interface {
	Name() string
	Candles(ctx context.Context, req Request) ([]market.Candle, error)
}

// Chain asks each provider in order and returns the first non-empty answer.
// Empty answers and errors fall through to the next provider. When every
// provider comes up empty the chain reports ErrDataUnavailable; when any of
// them failed outright it returns those failures instead.
type Chain []Provider

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, ">")
}

func (c Chain) Candles(ctx context.Context, req Request) ([]market.Candle, error) {
	var errs, failures []error
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candles, err := p.Candles(ctx, req)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			err = fmt.Errorf("%s: %w", p.Name(), err)
			if !errors.Is(err, ErrDataUnavailable) {
				slog.Warn("provider failed", "provider", p.Name(), "symbol", req.Symbol, "err", err)
				failures = append(failures, err)
			}
			errs = append(errs, err)
		case len(candles) == 0:
			errs = append(errs, fmt.Errorf("%s: no candles", p.Name()))
		default:
			slog.Debug("candles fetched", "provider", p.Name(), "symbol", req.Symbol, "count", len(candles))
			return candles, nil
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s: no providers", ErrDataUnavailable, req.Symbol)
	}
	if len(failures) > 0 {
		return nil, fmt.Errorf("%s: %w", req.Symbol, errors.Join(failures...))
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrDataUnavailable, req.Symbol, errors.Join(errs...))
}
