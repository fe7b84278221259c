package coinutil

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts move through the system as int64 minor units. Conversion to
// whole-coin decimals happens only at the edges: configuration parsing,
// log lines and notification bodies.

// ToCoin converts minor units to a whole-coin decimal using the given number
// of minor units per coin.
func ToCoin(amount int64, units int64) decimal.Decimal {
	return decimal.New(amount, 0).Div(decimal.New(units, 0))
}

// FromCoin converts a whole-coin decimal to minor units, rounding to the
// nearest unit.
func FromCoin(coin decimal.Decimal, units int64) int64 {
	return coin.Mul(decimal.New(units, 0)).Round(0).IntPart()
}

// ParseCoin parses a whole-coin decimal string (e.g. "0.3") into minor units.
func ParseCoin(s string, units int64) (int64, error) {
	coin, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse coin amount %q: %w", s, err)
	}
	if coin.IsNegative() {
		return 0, fmt.Errorf("coin amount %q must not be negative", s)
	}
	return FromCoin(coin, units), nil
}

// Format renders minor units as a whole-coin decimal string for display.
func Format(amount int64, units int64) string {
	return ToCoin(amount, units).String()
}
