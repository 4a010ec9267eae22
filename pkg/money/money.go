// Package money converts between operator-facing decimal amounts and integer minor units.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const scale = 2

var ErrMalformed = errors.New("malformed amount")

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ParseMinor accepts "200", "200.5", "200,50" and a leading sign, with at most two decimals.
func ParseMinor(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrMalformed
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	minor := d.Mul(hundred)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than %d decimals", ErrMalformed, s, scale)
	}
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrMalformed, s)
	}
	return minor.IntPart(), nil
}

// Format renders minor units as "$1,234.50 MXN" style text.
func Format(minor int64, currency string) string {
	d := decimal.New(minor, -scale)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0).String()
	frac := d.Sub(d.Truncate(0)).Mul(hundred).IntPart()

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	out := fmt.Sprintf("%s$%s.%02d", sign, grouped.String(), frac)
	if currency != "" {
		out += " " + currency
	}
	return out
}
