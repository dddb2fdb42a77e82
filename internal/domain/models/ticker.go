package models

import (
	"fmt"
	"regexp"
	"strings"
)

var tickerRe = regexp.MustCompile(`^[A-Z0-9.-]{1,7}$`)

// NormalizeTicker trims and upper-cases s and checks it looks like a listed symbol.
func NormalizeTicker(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if !tickerRe.MatchString(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, s)
	}
	return t, nil
}
