package models

import "time"

// ScoreRecord is the pipeline output for one scored day.
type ScoreRecord struct {
	Date          time.Time `json:"date"`
	Price         float64   `json:"price"`
	TrendValue    float64   `json:"trend_value"`
	Residual      float64   `json:"residual"`
	ZScore        float64   `json:"z_score"`
	RawScore      float64   `json:"raw_score"`
	SmoothedScore float64   `json:"smoothed_score"`
	RiskScore     float64   `json:"risk_score"`
}

// ScoreComponents exposes the intermediate values behind a risk score.
type ScoreComponents struct {
	Residual      float64 `json:"residual"`
	ZScore        float64 `json:"z_score"`
	RawScore      float64 `json:"raw_score"`
	SmoothedScore float64 `json:"smoothed_score"`
}

// AssetScore is the latest score of one asset, rounded for publication.
type AssetScore struct {
	AssetID        string          `json:"asset_id"`
	Name           string          `json:"name"`
	Date           string          `json:"date"`
	RiskScore      float64         `json:"risk_score"`
	Price          float64         `json:"price"`
	TrendValue     float64         `json:"trend_value"`
	Components     ScoreComponents `json:"components"`
	RegressionMode RegressionMode  `json:"regression_mode"`
	HistoryDays    int             `json:"history_days"`
	Status         string          `json:"status"`
}

// Report is the result of one batch run across all configured assets.
// The primary asset's headline fields are repeated at top level.
type Report struct {
	RunID         string                `json:"run_id,omitempty"`
	UpdatedAt     string                `json:"updated_at"`
	EngineVersion string                `json:"engine_version"`
	Assets        map[string]AssetScore `json:"assets"`
	Errors        []string              `json:"errors,omitempty"`

	AssetID    string           `json:"asset_id,omitempty"`
	Date       string           `json:"date,omitempty"`
	RiskScore  *float64         `json:"risk_score,omitempty"`
	Price      *float64         `json:"price,omitempty"`
	TrendValue *float64         `json:"trend_value,omitempty"`
	Components *ScoreComponents `json:"components,omitempty"`
}

// SetPrimary copies the headline fields of s to the top level of the report.
func (r *Report) SetPrimary(s AssetScore) {
	risk, price, trend, comps := s.RiskScore, s.Price, s.TrendValue, s.Components
	r.AssetID = s.AssetID
	r.Date = s.Date
	r.RiskScore = &risk
	r.Price = &price
	r.TrendValue = &trend
	r.Components = &comps
}
