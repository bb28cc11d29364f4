package config

import (
	"fmt"

	"github.com/rustyeddy/chartscan/market"
)

// Params holds every tunable threshold used by the detection core. It is
// passed by value through each call; nothing in the core reads package
// level state.
//
// Several defaults (the 0.5% swing buffer, the 1.5x wick ratio, the 1.2x and
// 1.6x volume multipliers and the 2-3% pattern tolerances) are hand tuned and
// have never been validated empirically.
type Params struct {
	SwingLookback    int     `json:"swing_lookback" yaml:"swing_lookback"`
	VolumeWindow     int     `json:"volume_window" yaml:"volume_window"`
	VolumeMultiplier float64 `json:"volume_multiplier" yaml:"volume_multiplier"`
	HoldBars         int     `json:"hold_bars" yaml:"hold_bars"`
	RSIPeriod        int     `json:"rsi_period" yaml:"rsi_period"`
	SwingBuffer      float64 `json:"swing_buffer" yaml:"swing_buffer"`

	SessionMinutes     int `json:"session_minutes" yaml:"session_minutes"`
	TradingDaysPerWeek int `json:"trading_days_per_week" yaml:"trading_days_per_week"`
	ATRPeriod          int `json:"atr_period" yaml:"atr_period"`

	ExtremaDistance int     `json:"extrema_distance" yaml:"extrema_distance"`
	ProminencePct   float64 `json:"prominence_pct" yaml:"prominence_pct"`
	RSIProminence   float64 `json:"rsi_prominence" yaml:"rsi_prominence"`

	DivergenceOversold   float64 `json:"divergence_oversold" yaml:"divergence_oversold"`
	DivergenceOverbought float64 `json:"divergence_overbought" yaml:"divergence_overbought"`

	RetestVolumeMultiplier float64 `json:"retest_volume_multiplier" yaml:"retest_volume_multiplier"`
	RetestTolerance        float64 `json:"retest_tolerance" yaml:"retest_tolerance"`
	RetestLookahead        int     `json:"retest_lookahead" yaml:"retest_lookahead"`
	WickBodyRatio          float64 `json:"wick_body_ratio" yaml:"wick_body_ratio"`
	RewardRisk             float64 `json:"reward_risk" yaml:"reward_risk"`

	DoubleTolerance         float64 `json:"double_tolerance" yaml:"double_tolerance"`
	TripleTolerance         float64 `json:"triple_tolerance" yaml:"triple_tolerance"`
	ShoulderTolerance       float64 `json:"shoulder_tolerance" yaml:"shoulder_tolerance"`
	ConfirmVolumeMultiplier float64 `json:"confirm_volume_multiplier" yaml:"confirm_volume_multiplier"`
	ConfirmLookahead        int     `json:"confirm_lookahead" yaml:"confirm_lookahead"`
	PatternStopPct          float64 `json:"pattern_stop_pct" yaml:"pattern_stop_pct"`
	MaxPatternHold          int     `json:"max_pattern_hold" yaml:"max_pattern_hold"`

	Kinds []market.Kind `json:"kinds,omitempty" yaml:"kinds,omitempty"`
}

// DefaultParams returns the stock thresholds.
func DefaultParams() Params {
	return Params{
		SwingLookback:    12,
		VolumeWindow:     70,
		VolumeMultiplier: 1.6,
		HoldBars:         3,
		RSIPeriod:        14,
		SwingBuffer:      0.005,

		SessionMinutes:     375,
		TradingDaysPerWeek: 5,
		ATRPeriod:          14,

		ExtremaDistance: 5,
		ProminencePct:   0.01,
		RSIProminence:   2,

		DivergenceOversold:   30,
		DivergenceOverbought: 70,

		RetestVolumeMultiplier: 1.2,
		RetestTolerance:        0.02,
		RetestLookahead:        20,
		WickBodyRatio:          1.5,
		RewardRisk:             2.0,

		DoubleTolerance:         0.02,
		TripleTolerance:         0.02,
		ShoulderTolerance:       0.03,
		ConfirmVolumeMultiplier: 1.2,
		ConfirmLookahead:        20,
		PatternStopPct:          0.02,
		MaxPatternHold:          60,

		Kinds: append([]market.Kind(nil), market.AllKinds...),
	}
}

// MinBars is the largest rolling window. Shorter histories are skipped as
// insufficient.
func (p Params) MinBars() int {
	if p.VolumeWindow > p.SwingLookback {
		return p.VolumeWindow
	}
	return p.SwingLookback
}

// Warmup is the first bar index at which both rolling windows are populated
// and the previous bar's swing level exists.
func (p Params) Warmup() int {
	return p.MinBars() + 1
}

// Wants reports whether kind k is enabled. An empty Kinds list enables all.
func (p Params) Wants(k market.Kind) bool {
	if len(p.Kinds) == 0 {
		return true
	}
	for _, want := range p.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// WithKinds returns a copy of p restricted to kinds.
func (p Params) WithKinds(kinds []market.Kind) Params {
	p.Kinds = append([]market.Kind(nil), kinds...)
	return p
}

// Validate checks windows, multipliers and tolerances.
func (p Params) Validate() error {
	ints := []struct {
		name string
		v    int
	}{
		{"swing_lookback", p.SwingLookback},
		{"volume_window", p.VolumeWindow},
		{"hold_bars", p.HoldBars},
		{"rsi_period", p.RSIPeriod},
		{"session_minutes", p.SessionMinutes},
		{"trading_days_per_week", p.TradingDaysPerWeek},
		{"atr_period", p.ATRPeriod},
		{"extrema_distance", p.ExtremaDistance},
		{"retest_lookahead", p.RetestLookahead},
		{"confirm_lookahead", p.ConfirmLookahead},
		{"max_pattern_hold", p.MaxPatternHold},
	}
	for _, f := range ints {
		if f.v <= 0 {
			return fmt.Errorf("analysis.%s must be positive", f.name)
		}
	}

	if p.VolumeMultiplier <= 0 || p.RetestVolumeMultiplier <= 0 || p.ConfirmVolumeMultiplier <= 0 {
		return fmt.Errorf("analysis volume multipliers must be positive")
	}
	if p.WickBodyRatio <= 0 || p.RewardRisk <= 0 {
		return fmt.Errorf("analysis.wick_body_ratio and analysis.reward_risk must be positive")
	}
	if p.RSIProminence < 0 {
		return fmt.Errorf("analysis.rsi_prominence must not be negative")
	}

	fracs := []struct {
		name string
		v    float64
	}{
		{"swing_buffer", p.SwingBuffer},
		{"prominence_pct", p.ProminencePct},
		{"retest_tolerance", p.RetestTolerance},
		{"double_tolerance", p.DoubleTolerance},
		{"triple_tolerance", p.TripleTolerance},
		{"shoulder_tolerance", p.ShoulderTolerance},
		{"pattern_stop_pct", p.PatternStopPct},
	}
	for _, f := range fracs {
		if f.v < 0 || f.v >= 1 {
			return fmt.Errorf("analysis.%s must be in [0,1)", f.name)
		}
	}

	if p.DivergenceOversold <= 0 || p.DivergenceOverbought >= 100 || p.DivergenceOversold >= p.DivergenceOverbought {
		return fmt.Errorf("analysis divergence gates must satisfy 0 < oversold < overbought < 100")
	}

	for _, k := range p.Kinds {
		if !k.Valid() {
			return fmt.Errorf("analysis.kinds: unknown kind %q", k)
		}
	}
	return nil
}
