package anomaly

import (
	"fmt"
	"math"

	"StockLens/internal/domain/models"
	domsvc "StockLens/internal/domain/service"

	"github.com/guregu/null/v6"
)

// DefaultPercentThreshold is used when no threshold is configured.
const DefaultPercentThreshold = 0.05

// PercentChange flags every index i >= 1 whose move relative to the previous
// price exceeds threshold. Steps with a missing endpoint or a zero
// predecessor are never flagged.
func PercentChange(prices []null.Float, threshold float64) ([]int, error) {
	if threshold <= 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("%w: threshold must be positive, got %v", models.ErrInvalidArgument, threshold)
	}

	out := []int{}
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if !prev.Valid || !cur.Valid || prev.Float64 == 0 {
			continue
		}
		if math.Abs(cur.Float64-prev.Float64)/prev.Float64 > threshold {
			out = append(out, i)
		}
	}
	return out, nil
}

// PercentChangeDetector is the threshold strategy behind domsvc.AnomalyDetector.
type PercentChangeDetector struct {
	Threshold float64
}

var _ domsvc.AnomalyDetector = PercentChangeDetector{}

func (d PercentChangeDetector) Name() string { return "percent_change" }

func (d PercentChangeDetector) Detect(series models.PriceSeries) ([]int, error) {
	th := d.Threshold
	if th == 0 {
		th = DefaultPercentThreshold
	}
	return PercentChange(series.Prices, th)
}
