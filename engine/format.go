package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// ============================================================================
// FORMATTING — Display strings for measures
// ============================================================================
// Format names match the schema column formats. Thousands separators follow
// the dashboard convention (comma), e.g. "€ 12,500".
// ============================================================================

// Missing is shown wherever a value is NaN.
const Missing = "n/d"

// FormatValue renders v according to a column format.
func FormatValue(format string, v float64) string {
	if math.IsNaN(v) {
		return Missing
	}
	switch format {
	case "int":
		return Thousands(v)
	case "float1":
		return fmt.Sprintf("%.1f", v)
	case "float2":
		return fmt.Sprintf("%.2f", v)
	case "signed2":
		return fmt.Sprintf("%+.2f", v)
	case "euro":
		return Euro(v)
	case "percent":
		return fmt.Sprintf("%.0f %%", v*100)
	case "flag":
		switch v {
		case 0:
			return "No"
		case 1:
			return "Sì"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// Thousands rounds v and inserts comma separators: 12500.4 → "12,500".
func Thousands(v float64) string {
	if math.IsNaN(v) {
		return Missing
	}
	return humanize.Comma(int64(math.Round(v)))
}

// Euro renders a rounded amount with a leading euro sign: "€ 12,500".
func Euro(v float64) string {
	if math.IsNaN(v) {
		return Missing
	}
	return "€ " + Thousands(v)
}

// EuroSuffix renders a rounded amount with a trailing euro sign: "12,500 €".
func EuroSuffix(v float64) string {
	if math.IsNaN(v) {
		return Missing
	}
	return Thousands(v) + " €"
}

// Percent renders a 0..100 share without decimals: "42%".
func Percent(v float64) string {
	if math.IsNaN(v) {
		return Missing
	}
	return fmt.Sprintf("%.0f%%", v)
}

// Fixed renders v with the given number of decimals.
func Fixed(v float64, decimals int) string {
	if math.IsNaN(v) {
		return Missing
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
