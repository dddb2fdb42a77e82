package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Bar is one raw row from a price source. Close is left untyped because
// upstream feeds hand back numbers, numeric strings, nulls or duplicated
// columns; features.NormalizePrices turns it into a clean value.
type Bar struct {
	Date  time.Time `json:"date"`
	Close any       `json:"close"`
}

// PriceSeries is an ordered close-price series, oldest first. Gaps stay in
// place as invalid entries so indices line up with Timestamps.
type PriceSeries struct {
	Ticker     string
	Timestamps []time.Time
	Prices     []null.Float
}

// Len returns the number of samples.
func (s PriceSeries) Len() int { return len(s.Prices) }

// IndicatorSet maps indicator names such as SMA_20 to series aligned with the
// source prices.
type IndicatorSet map[string][]null.Float

// Floats wraps plain values as valid samples.
func Floats(vs ...float64) []null.Float {
	out := make([]null.Float, len(vs))
	for i, v := range vs {
		out[i] = null.FloatFrom(v)
	}
	return out
}

// LastValid returns the last non-null sample, if any.
func LastValid(vs []null.Float) (float64, bool) {
	for i := len(vs) - 1; i >= 0; i-- {
		if vs[i].Valid {
			return vs[i].Float64, true
		}
	}
	return 0, false
}
