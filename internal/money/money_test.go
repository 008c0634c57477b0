package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    decimal.Decimal
		expected string
	}{
		{
			name:     "already two decimals",
			input:    decimal.RequireFromString("110.00"),
			expected: "110.00",
		},
		{
			name:     "rounds half up away from zero",
			input:    decimal.RequireFromString("5.775"),
			expected: "5.78",
		},
		{
			name:     "rounds half down for negative away from zero",
			input:    decimal.RequireFromString("-5.775"),
			expected: "-5.78",
		},
		{
			name:     "truncates below half",
			input:    decimal.RequireFromString("11.284"),
			expected: "11.28",
		},
		{
			name:     "five percent of 115.50",
			input:    decimal.RequireFromString("115.50").Mul(decimal.RequireFromString("0.05")),
			expected: "5.78",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round2(tt.input)
			assert.Equal(t, tt.expected, Format(result))
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{name: "identical", a: "50.00", b: "50.00", expected: true},
		{name: "within half cent", a: "50.00", b: "50.004", expected: true},
		{name: "exactly at tolerance", a: "50.00", b: "50.005", expected: true},
		{name: "beyond tolerance", a: "50.00", b: "50.006", expected: false},
		{name: "clearly different", a: "50.00", b: "51.00", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decimal.RequireFromString(tt.a)
			b := decimal.RequireFromString(tt.b)
			assert.Equal(t, tt.expected, Equal(a, b))
			assert.Equal(t, tt.expected, Equal(b, a))
		})
	}
}

func TestIsValidAmount(t *testing.T) {
	assert.True(t, IsValidAmount(decimal.Zero))
	assert.True(t, IsValidAmount(decimal.RequireFromString("0.01")))
	assert.True(t, IsValidAmount(decimal.RequireFromString("50000000")))
	assert.False(t, IsValidAmount(decimal.RequireFromString("-0.01")))
}

func TestParse(t *testing.T) {
	d, err := Parse("110.005")
	assert.NoError(t, err)
	assert.Equal(t, "110.01", Format(d))

	_, err = Parse("not-a-number")
	assert.Error(t, err)
}
