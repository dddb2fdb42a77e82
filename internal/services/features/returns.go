package features

import (
	"math"

	"github.com/guregu/null/v6"
)

// LogReturns computes r_t = ln(p_t / p_{t-1}) aligned with prices. Index 0 is
// always null, and so is any step with a missing endpoint or a non-positive
// ratio.
func LogReturns(prices []null.Float) []null.Float {
	out := make([]null.Float, len(prices))
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if !prev.Valid || !cur.Valid || prev.Float64 == 0 {
			continue
		}
		ratio := cur.Float64 / prev.Float64
		if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			continue
		}
		out[i] = null.FloatFrom(math.Log(ratio))
	}
	return out
}
