package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidProfile marks an asset profile that cannot be scored.
var ErrInvalidProfile = errors.New("invalid asset profile")

// RegressionMode selects how the trend window grows.
type RegressionMode string

const (
	ModeExpanding RegressionMode = "expanding"
	ModeRolling   RegressionMode = "rolling"
)

// AssetProfile holds the per-asset scoring parameters. It is read-only for a run.
type AssetProfile struct {
	AssetID       string
	Name          string
	Symbol        string    // exchange symbol, e.g. BTCUSDT
	GenesisDate   time.Time // day zero of the power-law clock
	ExchangeStart time.Time // first day requested from the exchange

	RegressionMode    RegressionMode
	RollingWindowDays int
	WarmUpDays        int
	NormWindowDays    int // 0 = whole residual history

	MADFloor   float64
	SigmoidK   float64
	SmoothSpan int
	ClampMin   float64
	ClampMax   float64
}

// Rolling reports whether the profile regresses over a bounded window. A
// rolling profile with a zero window regresses like an expanding one.
func (p AssetProfile) Rolling() bool {
	return p.RegressionMode == ModeRolling && p.RollingWindowDays > 0
}

// Validate checks the invariants the scoring pipeline relies on.
func (p AssetProfile) Validate() error {
	fail := func(format string, a ...interface{}) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidProfile, p.AssetID, fmt.Sprintf(format, a...))
	}
	if p.AssetID == "" {
		return fmt.Errorf("%w: asset_id is required", ErrInvalidProfile)
	}
	if p.GenesisDate.IsZero() {
		return fail("genesis date is required")
	}
	switch p.RegressionMode {
	case ModeExpanding:
	case ModeRolling:
		if p.RollingWindowDays < 0 {
			return fail("rolling_window_days must not be negative")
		}
		if p.RollingWindowDays > 0 && p.RollingWindowDays < p.WarmUpDays {
			return fail("rolling_window_days (%d) must be >= warm_up_days (%d)", p.RollingWindowDays, p.WarmUpDays)
		}
	default:
		return fail("unknown regression mode %q", p.RegressionMode)
	}
	if p.WarmUpDays < 1 {
		return fail("warm_up_days must be at least 1")
	}
	if p.NormWindowDays < 0 {
		return fail("norm_window_days must not be negative")
	}
	if !(p.MADFloor > 0) || math.IsInf(p.MADFloor, 1) {
		return fail("mad_floor must be positive")
	}
	if !(p.SigmoidK > 0) || math.IsInf(p.SigmoidK, 1) {
		return fail("sigmoid_k must be positive")
	}
	if p.SmoothSpan < 1 {
		return fail("smooth_span must be at least 1")
	}
	if !(p.ClampMin >= 0) || !(p.ClampMax <= 100) {
		return fail("clamp bounds must lie in [0,100]")
	}
	if p.ClampMin >= p.ClampMax {
		return fail("clamp_min (%.2f) must be below clamp_max (%.2f)", p.ClampMin, p.ClampMax)
	}
	return nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultProfiles returns the built-in BTC, ETH, SOL and XRP profiles.
// BTC regresses over its whole history; the alts use a four-year rolling window
// so their earliest prices do not drag the trend line.
func DefaultProfiles() []AssetProfile {
	base := AssetProfile{
		RegressionMode:    ModeRolling,
		RollingWindowDays: 1460,
		WarmUpDays:        365,
		NormWindowDays:    1460,
		SigmoidK:          1.5,
		SmoothSpan:        7,
		ClampMin:          1.0,
		ClampMax:          99.0,
	}

	btc := base
	btc.AssetID, btc.Name, btc.Symbol = "BTC", "Bitcoin", "BTCUSDT"
	btc.GenesisDate, btc.ExchangeStart = day("2009-01-03"), day("2017-08-17")
	btc.RegressionMode, btc.NormWindowDays = ModeExpanding, 0
	btc.MADFloor = 0.10

	eth := base
	eth.AssetID, eth.Name, eth.Symbol = "ETH", "Ethereum", "ETHUSDT"
	eth.GenesisDate, eth.ExchangeStart = day("2015-08-07"), day("2017-08-17")
	eth.MADFloor = 0.12

	sol := base
	sol.AssetID, sol.Name, sol.Symbol = "SOL", "Solana", "SOLUSDT"
	sol.GenesisDate, sol.ExchangeStart = day("2020-04-10"), day("2020-04-10")
	sol.MADFloor = 0.15

	xrp := base
	xrp.AssetID, xrp.Name, xrp.Symbol = "XRP", "XRP", "XRPUSDT"
	xrp.GenesisDate, xrp.ExchangeStart = day("2013-08-04"), day("2018-01-01")
	xrp.MADFloor = 0.12

	return []AssetProfile{btc, eth, sol, xrp}
}
