package indicators

import (
	"fmt"

	domsvc "StockLens/internal/domain/service"

	"github.com/guregu/null/v6"
)

// MovingAverage is the SMA capability behind domsvc.Indicator.
type MovingAverage struct {
	Window int
	Mode   DivisorMode
}

var _ domsvc.Indicator = MovingAverage{}

func (m MovingAverage) Name() string { return fmt.Sprintf("SMA_%d", m.Window) }

func (m MovingAverage) Compute(prices []null.Float) ([]null.Float, error) {
	return SMA(prices, m.Window, m.Mode)
}

// StrengthIndex is the RSI capability behind domsvc.Indicator.
type StrengthIndex struct {
	Window int
}

var _ domsvc.Indicator = StrengthIndex{}

func (s StrengthIndex) Name() string { return fmt.Sprintf("RSI_%d", s.Window) }

func (s StrengthIndex) Compute(prices []null.Float) ([]null.Float, error) {
	return RSI(prices, s.Window)
}
