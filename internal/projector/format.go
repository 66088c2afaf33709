package projector

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount rounds d to two places and renders it with space-grouped
// thousands. Whole results have no fraction.
func FormatAmount(d decimal.Decimal) string {
	d = d.Round(2)
	neg := d.IsNegative()
	d = d.Abs()

	var s string
	if d.Equal(d.Truncate(0)) {
		s = d.StringFixed(0)
	} else {
		s = d.StringFixed(2)
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}

// FormatPrice is FormatAmount followed by the currency suffix.
func FormatPrice(d decimal.Decimal, suffix string) string {
	if suffix == "" {
		return FormatAmount(d)
	}
	return FormatAmount(d) + " " + suffix
}
