package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// VolatilityReason is attached to every z-score alert.
const VolatilityReason = "High volatility detected"

// VolatilityAlert is one z-score anomaly. ZScore is null when the trailing
// window had zero variance (the score is unbounded).
type VolatilityAlert struct {
	ID        string     `json:"id,omitempty"`
	Ticker    string     `json:"ticker,omitempty"`
	Index     int        `json:"index"`
	Timestamp *time.Time `json:"timestamp"`
	Price     float64    `json:"price"`
	ZScore    null.Float `json:"z_score"`
	Reason    string     `json:"reason"`
}
