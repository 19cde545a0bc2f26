package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

// AssetConfig overrides one asset profile. Unset fields fall back to the
// built-in profile with the same id, or to the generic rolling profile.
type AssetConfig struct {
	ID                string   `yaml:"id" validate:"required"`
	Name              string   `yaml:"name"`
	Symbol            string   `yaml:"symbol"`
	Genesis           string   `yaml:"genesis"`
	ExchangeStart     string   `yaml:"exchange_start"`
	Mode              string   `yaml:"mode" validate:"omitempty,oneof=expanding rolling"`
	RollingWindowDays *int     `yaml:"rolling_window_days"`
	WarmUpDays        *int     `yaml:"warm_up_days"`
	NormWindowDays    *int     `yaml:"norm_window_days"`
	MADFloor          *float64 `yaml:"mad_floor"`
	SigmoidK          *float64 `yaml:"sigmoid_k"`
	SmoothSpan        *int     `yaml:"smooth_span"`
	ClampMin          *float64 `yaml:"clamp_min"`
	ClampMax          *float64 `yaml:"clamp_max"`
}

func genericProfile(id string) models.AssetProfile {
	return models.AssetProfile{
		AssetID:           id,
		Name:              id,
		Symbol:            id + "USDT",
		RegressionMode:    models.ModeRolling,
		RollingWindowDays: 1460,
		WarmUpDays:        365,
		NormWindowDays:    1460,
		MADFloor:          0.12,
		SigmoidK:          1.5,
		SmoothSpan:        7,
		ClampMin:          1,
		ClampMax:          99,
	}
}

// Profiles resolves the configured assets into validated profiles. With no
// assets configured the built-in BTC, ETH, SOL and XRP profiles are used.
func (c *Config) Profiles() ([]models.AssetProfile, error) {
	if len(c.Assets) == 0 {
		return models.DefaultProfiles(), nil
	}

	builtin := make(map[string]models.AssetProfile)
	for _, p := range models.DefaultProfiles() {
		builtin[p.AssetID] = p
	}

	seen := make(map[string]bool, len(c.Assets))
	out := make([]models.AssetProfile, 0, len(c.Assets))
	for _, a := range c.Assets {
		id := strings.ToUpper(strings.TrimSpace(a.ID))
		if seen[id] {
			return nil, fmt.Errorf("asset %s configured twice", id)
		}
		seen[id] = true

		p, ok := builtin[id]
		if !ok {
			p = genericProfile(id)
		}
		if err := a.apply(&p); err != nil {
			return nil, fmt.Errorf("asset %s: %w", id, err)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (a AssetConfig) apply(p *models.AssetProfile) error {
	if a.Name != "" {
		p.Name = a.Name
	}
	if a.Symbol != "" {
		p.Symbol = strings.ToUpper(a.Symbol)
	}
	if a.Genesis != "" {
		t, err := time.Parse(util.DayLayout, a.Genesis)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
		p.GenesisDate = t
	}
	if a.ExchangeStart != "" {
		t, err := time.Parse(util.DayLayout, a.ExchangeStart)
		if err != nil {
			return fmt.Errorf("exchange_start: %w", err)
		}
		p.ExchangeStart = t
	}
	if a.Mode != "" {
		p.RegressionMode = models.RegressionMode(a.Mode)
	}
	setInt(&p.RollingWindowDays, a.RollingWindowDays)
	setInt(&p.WarmUpDays, a.WarmUpDays)
	setInt(&p.NormWindowDays, a.NormWindowDays)
	setInt(&p.SmoothSpan, a.SmoothSpan)
	setFloat(&p.MADFloor, a.MADFloor)
	setFloat(&p.SigmoidK, a.SigmoidK)
	setFloat(&p.ClampMin, a.ClampMin)
	setFloat(&p.ClampMax, a.ClampMax)
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
