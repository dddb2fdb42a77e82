package indicators

import (
	"fmt"

	"StockLens/internal/domain/models"

	"github.com/guregu/null/v6"
)

// RSI computes the relative strength index with simple (not Wilder-smoothed)
// averages of gains and losses over the trailing window. A step with a missing
// endpoint counts as no move. Values are null until window samples exist and
// are 100 whenever the average loss is zero.
func RSI(prices []null.Float, window int) ([]null.Float, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: rsi window must be >= 2, got %d", models.ErrInvalidArgument, window)
	}

	n := len(prices)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		if !prices[i].Valid || !prices[i-1].Valid {
			continue
		}
		change := prices[i].Float64 - prices[i-1].Float64
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	out := make([]null.Float, n)
	gain, loss := newWindowSum(gains, window), newWindowSum(losses, window)
	w := float64(window)
	for i := 0; i < n; i++ {
		gain.push(i)
		loss.push(i)
		if i+1 < window {
			continue
		}
		avgGain := gain.value(i) / w
		avgLoss := loss.value(i) / w
		if avgLoss == 0 {
			out[i] = null.FloatFrom(100)
			continue
		}
		rs := avgGain / avgLoss
		out[i] = null.FloatFrom(100 - 100/(1+rs))
	}
	return out, nil
}

// windowSum is a running sum of non-negative values over a trailing window.
// The count of positive entries is exact, so an all-zero window reads as 0
// however small the values were, and a sum that drifted to <= 0 while
// positives remain is recomputed from the window.
type windowSum struct {
	vals     []float64
	window   int
	sum      float64
	positive int
}

func newWindowSum(vals []float64, window int) *windowSum {
	return &windowSum{vals: vals, window: window}
}

func (s *windowSum) push(i int) {
	s.sum += s.vals[i]
	if s.vals[i] > 0 {
		s.positive++
	}
	if j := i - s.window; j >= 0 {
		s.sum -= s.vals[j]
		if s.vals[j] > 0 {
			s.positive--
		}
	}
}

func (s *windowSum) value(i int) float64 {
	if s.positive == 0 {
		s.sum = 0
		return 0
	}
	if s.sum <= 0 {
		s.sum = 0
		for j := max(0, i-s.window+1); j <= i; j++ {
			s.sum += s.vals[j]
		}
	}
	return s.sum
}
