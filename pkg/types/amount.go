package types

import (
	"fmt"
	"math/big"
	"regexp"
)

var decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseDecimal parses a non-negative decimal amount such as "12.50"
func ParseDecimal(amount string) (*big.Rat, error) {
	if !decimalPattern.MatchString(amount) {
		return nil, fmt.Errorf("invalid amount: %q", amount)
	}
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", amount)
	}
	return r, nil
}

// ParseUnits converts a decimal amount into integer base units of a token
// with the given number of decimals. More fractional digits than decimals is
// an error rather than a silent truncation.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	r, err := ParseDecimal(amount)
	if err != nil {
		return nil, err
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatUnits renders base units as a decimal string with the given decimals
func FormatUnits(units *big.Int, decimals int) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(units, scale).FloatString(decimals)
}
