package tokens

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitrable-escrow/escrow-api/types"
)

func TestToSmallestUnit(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{"whole ether", "1", 18, "1000000000000000000"},
		{"fractional ether", "1.5", 18, "1500000000000000000"},
		{"small fraction", "0.000001", 18, "1000000000000"},
		{"six decimals", "42.25", 6, "42250000"},
		{"eight decimals", "0.00000001", 8, "1"},
		{"zero decimals", "7", 0, "7"},
		{"leading zeros", "007.5", 18, "7500000000000000000"},
		{"whitespace", "  2  ", 6, "2000000"},
		{"leading dot", ".5", 18, "500000000000000000"},
		{"trailing dot", "3.", 18, "3000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToSmallestUnit(tt.amount, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToSmallestUnitRejects(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
	}{
		{"empty", "", 18},
		{"whitespace only", "   ", 18},
		{"negative", "-1", 18},
		{"explicit plus", "+1", 18},
		{"letters", "abc", 18},
		{"mixed", "1.2e5", 18},
		{"comma separator", "1,5", 18},
		{"two dots", "1.2.3", 18},
		{"zero", "0", 18},
		{"zero point zero", "0.0", 18},
		{"too precise", "1.1234567", 6},
		{"any fraction at zero decimals", "1.5", 0},
		{"bare dot", ".", 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToSmallestUnit(tt.amount, tt.decimals)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidAmount))
		})
	}
}

func TestToSmallestUnitRoundTrip(t *testing.T) {
	for _, decimals := range []int{6, 8, 18} {
		for _, amount := range []string{"1", "1.5", "0.25", "1000000", "123.456"} {
			raw, err := ToSmallestUnit(amount, decimals)
			require.NoError(t, err, "amount %s decimals %d", amount, decimals)
			assert.Equal(t, amount, FromSmallestUnit(raw, decimals), "amount %s decimals %d", amount, decimals)
		}
	}
}

func TestFromSmallestUnit(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{"one ether", "1000000000000000000", 18, "1"},
		{"one and a half", "1500000000000000000", 18, "1.5"},
		{"sub one", "1000000000000", 18, "0.000001"},
		{"trailing zeros trimmed", "1100000", 6, "1.1"},
		{"zero", "0", 18, "0"},
		{"zero decimals", "42", 0, "42"},
		{"negative", "-1500000000000000000", 18, "-1.5"},
		{"malformed yields zero", "not-a-number", 18, "0"},
		{"empty yields zero", "", 18, "0"},
		{"decimal input yields zero", "1.5", 18, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromSmallestUnit(tt.amount, tt.decimals))
		})
	}
}

func TestParseSmallestUnit(t *testing.T) {
	n, err := ParseSmallestUnit("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", n.String())

	_, err = ParseSmallestUnit("1.5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidAmount))
}
