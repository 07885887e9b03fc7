package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/garyellow/storebot/internal/errors"
)

// DefaultVATPercent is the VAT rate applied when none is configured.
const DefaultVATPercent = 18.0

// ComputeFinalPrice adds vatPercent to price, rounded to two decimals.
func ComputeFinalPrice(price, vatPercent float64) float64 {
	return RoundPrice(price * (1 + vatPercent/100))
}

// RoundPrice rounds to two decimals.
func RoundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

var priceReplacer = strings.NewReplacer("₪", "", "$", "", "€", "", ",", "", " ", "", "\u00a0", "")

// ParsePrice parses a positive price such as "50", "49.90" or "1,200 ₪".
func ParsePrice(text string) (float64, error) {
	cleaned := priceReplacer.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return 0, errors.NewValidationError("price", "empty")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewValidationError("price", "not a number")
	}
	if v <= 0 {
		return 0, errors.NewValidationError("price", "must be positive")
	}
	return RoundPrice(v), nil
}

// FormatPrice renders a price with two decimals.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
