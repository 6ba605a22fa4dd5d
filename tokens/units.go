package tokens

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/arbitrable-escrow/escrow-api/types"
)

// ToSmallestUnit converts a human-entered decimal amount into the integer
// smallest-unit representation used on chain, as a string. All arithmetic is
// on big integers; 18-decimal amounts routinely exceed float precision.
//
// Empty, non-numeric and non-positive input is rejected, as is a fractional
// part longer than the asset supports.
func ToSmallestUnit(amount string, decimals int) (string, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return "", fmt.Errorf("empty amount: %w", types.ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return "", fmt.Errorf("signed amount %q: %w", amount, types.ErrInvalidAmount)
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if !isDigits(intPart) || (hasFrac && !isDigits(fracPart)) || (intPart == "" && fracPart == "") {
		return "", fmt.Errorf("non-numeric amount %q: %w", amount, types.ErrInvalidAmount)
	}
	if len(fracPart) > decimals {
		return "", fmt.Errorf("amount %q has more than %d fractional digits: %w", amount, decimals, types.ErrInvalidAmount)
	}

	// Shift the decimal point right by `decimals` places.
	digits := intPart + fracPart + strings.Repeat("0", decimals-len(fracPart))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "", fmt.Errorf("amount must be positive: %w", types.ErrInvalidAmount)
	}

	n, ok := new(big.Int).SetString(digits, 10)
	if !ok || n.Sign() <= 0 {
		return "", fmt.Errorf("non-numeric amount %q: %w", amount, types.ErrInvalidAmount)
	}
	return n.String(), nil
}

// FromSmallestUnit is the display-side inverse of ToSmallestUnit. Malformed
// input yields "0" instead of an error, so a single bad amount never blocks
// rendering.
func FromSmallestUnit(amount string, decimals int) string {
	n, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
	if !ok {
		return "0"
	}

	sign := ""
	if n.Sign() < 0 {
		sign = "-"
		n.Neg(n)
	}

	digits := n.String()
	if decimals <= 0 {
		return sign + digits
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	intPart := digits[:len(digits)-decimals]
	fracPart := strings.TrimRight(digits[len(digits)-decimals:], "0")
	if fracPart == "" {
		return sign + intPart
	}
	return sign + intPart + "." + fracPart
}

// ParseSmallestUnit parses an integer smallest-unit string into a big.Int.
func ParseSmallestUnit(amount string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
	if !ok {
		return nil, fmt.Errorf("malformed integer amount %q: %w", amount, types.ErrInvalidAmount)
	}
	return n, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
