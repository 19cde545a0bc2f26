package service

import "github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"

// RiskScorer turns one asset's price history into daily risk records.
// Implementations must be pure: same inputs, same records.
type RiskScorer interface {
	Score(profile models.AssetProfile, series models.PriceSeries) ([]models.ScoreRecord, error)
}
