package pricefeed

import (
	_ "embed"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/util"
)

//go:embed prelisting.yaml
var prelistingYAML []byte

// Anchors maps asset id -> day -> close for the years before exchange listing.
type Anchors map[string]map[string]float64

type anchorFile struct {
	Anchors Anchors `yaml:"anchors"`
}

// DefaultAnchors parses the embedded pre-listing table.
func DefaultAnchors() (Anchors, error) {
	return ParseAnchors(prelistingYAML)
}

// ParseAnchors decodes an anchor table in the embedded file's layout.
func ParseAnchors(data []byte) (Anchors, error) {
	var f anchorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse anchors: %w", err)
	}
	for asset, days := range f.Anchors {
		for day, price := range days {
			if _, err := time.Parse(util.DayLayout, day); err != nil {
				return nil, fmt.Errorf("anchor %s %q: %w", asset, day, err)
			}
			if price <= 0 {
				return nil, fmt.Errorf("anchor %s %s: price must be positive", asset, day)
			}
		}
	}
	return f.Anchors, nil
}

// Daily expands the anchors of assetID into one point per day from the first
// to the last anchor, carrying each anchor forward. Unknown assets yield nil.
func (a Anchors) Daily(assetID string) []models.PricePoint {
	days := a[assetID]
	if len(days) == 0 {
		return nil
	}

	anchors := make([]models.PricePoint, 0, len(days))
	for day, price := range days {
		t, _ := time.Parse(util.DayLayout, day)
		anchors = append(anchors, models.PricePoint{Date: t, Price: price})
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Date.Before(anchors[j].Date) })

	return fillForward(anchors)
}
