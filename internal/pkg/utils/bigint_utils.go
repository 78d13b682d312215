package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseBigInt parses a base-10 unsigned integer string. Empty, negative or
// malformed input returns ok=false.
func ParseBigInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// ToUnits converts a raw amount into a decimal in human units.
func ToUnits(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// FormatUnits converts a raw amount to human units rounded to places
// decimals, trailing zeros trimmed and thousands separators in the integer
// part. Example: amount=1234567890000000000000000, decimals=18, places=2 =>
// "1,234,567.89".
func FormatUnits(amount *big.Int, decimals uint8, places int32) string {
	s := ToUnits(amount, decimals).Round(places).String()
	intPart, frac, hasFrac := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// PercentOf returns part/whole*100 computed on big integers. A zero or nil
// whole yields 0 rather than NaN.
func PercentOf(part, whole *big.Int) float64 {
	if part == nil || whole == nil || whole.Sign() == 0 {
		return 0
	}
	ratio := decimal.NewFromBigInt(part, 0).Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromBigInt(whole, 0), 12)
	f, _ := ratio.Float64()
	return f
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}
