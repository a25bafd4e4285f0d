package render

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// FormatInt groups digits the Indonesian way, 1234567 -> "1.234.567".
func FormatInt(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatVotes formats a tally value. Fractions are dropped.
func FormatVotes(v float64) string {
	return FormatInt(int64(math.Round(v)))
}

// Percent formats p with two decimals.
func Percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

// BarWidth clamps p to a CSS percentage width.
func BarWidth(p float64) string {
	switch {
	case math.IsNaN(p) || p < 0:
		p = 0
	case p > 100:
		p = 100
	}
	return fmt.Sprintf("%.2f%%", p)
}
