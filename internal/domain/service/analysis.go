package service

import (
	"StockLens/internal/domain/models"

	"github.com/guregu/null/v6"
)

// Indicator computes one named series aligned with its input prices.
type Indicator interface {
	Name() string
	Compute(prices []null.Float) ([]null.Float, error)
}

// AnomalyDetector flags indices of unusual moves in a price series.
type AnomalyDetector interface {
	Name() string
	Detect(series models.PriceSeries) ([]int, error)
}
