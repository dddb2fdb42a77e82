package cli

import (
	"strings"

	"github.com/guregu/null/v6"
)

var sparkChars = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws one block character per sample, scaled between the
// series min and max. Null samples render as a space.
func Sparkline(values []null.Float) string {
	mn, mx, seen := 0.0, 0.0, false
	for _, v := range values {
		if !v.Valid {
			continue
		}
		if !seen || v.Float64 < mn {
			mn = v.Float64
		}
		if !seen || v.Float64 > mx {
			mx = v.Float64
		}
		seen = true
	}
	if !seen {
		return ""
	}
	span := mx - mn
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	top := float64(len(sparkChars) - 1)
	for _, v := range values {
		if !v.Valid {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(sparkChars[int((v.Float64-mn)/span*top)])
	}
	return b.String()
}
