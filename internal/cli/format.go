// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatCalories formats a calorie amount, e.g. 1250 -> "1,250 cal".
func FormatCalories(n int) string {
	return FormatNumber(int64(n)) + " cal"
}

// FormatPercent formats a 0-100 percentage with one decimal, dropping ".0".
// e.g., 47.5 -> "47.5%", 100 -> "100%"
func FormatPercent(pct float64) string {
	s := fmt.Sprintf("%.1f", pct)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		s = s[:len(s)-2]
	}
	return s + "%"
}

// FormatID renders an entry id for display and for `kcal rm`.
func FormatID(id int64) string {
	return fmt.Sprintf("%d", id)
}
