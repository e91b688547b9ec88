package http

import (
	"strings"

	"github.com/dustin/go-humanize"

	"expenses/internal/core"
)

// formatAmount renders cents with thousands separators and two decimals,
// e.g. 123456 -> "1,234.56".
func formatAmount(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	frac := cents % 100
	fracStr := string([]byte{byte('0' + frac/10), byte('0' + frac%10)})
	return sign + humanize.Comma(cents/100) + "." + fracStr
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
