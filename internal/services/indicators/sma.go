package indicators

import (
	"fmt"

	"StockLens/internal/domain/models"

	"github.com/guregu/null/v6"
)

// DivisorMode selects how a window containing gaps is averaged.
type DivisorMode int

const (
	// DivideByWindow divides the sum of valid samples by the full window, so
	// gaps pull the average toward zero.
	DivideByWindow DivisorMode = iota
	// DivideByCount divides by the number of valid samples in the window.
	DivideByCount
)

// ParseDivisorMode maps "window" or "count" to a DivisorMode.
func ParseDivisorMode(s string) (DivisorMode, error) {
	switch s {
	case "", "window":
		return DivideByWindow, nil
	case "count":
		return DivideByCount, nil
	default:
		return DivideByWindow, fmt.Errorf("%w: unknown sma divisor %q", models.ErrInvalidArgument, s)
	}
}

func (m DivisorMode) String() string {
	if m == DivideByCount {
		return "count"
	}
	return "window"
}

// SMA returns the simple moving average over a trailing window. out[i] is null
// for i < window-1. Runs in O(n) with a running sum.
func SMA(values []null.Float, window int, mode DivisorMode) ([]null.Float, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: sma window must be >= 1, got %d", models.ErrInvalidArgument, window)
	}

	out := make([]null.Float, len(values))
	sum := 0.0
	count := 0
	for i, v := range values {
		if v.Valid {
			sum += v.Float64
			count++
		}
		if i >= window {
			if old := values[i-window]; old.Valid {
				sum -= old.Float64
				count--
			}
		}
		if i < window-1 {
			continue
		}
		switch mode {
		case DivideByCount:
			if count > 0 {
				out[i] = null.FloatFrom(sum / float64(count))
			}
		default:
			out[i] = null.FloatFrom(sum / float64(window))
		}
	}
	return out, nil
}
