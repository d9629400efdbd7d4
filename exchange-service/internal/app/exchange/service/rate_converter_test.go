package service

import (
	"errors"
	"testing"

	"exchanger/exchange-service/internal/app/exchange/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTable(t *testing.T) *entity.RateTable {
	t.Helper()
	table, err := entity.NewRateTable(map[string]float64{
		"USD": 1,
		"EUR": 2,
		"BRL": 4,
		"JPY": 8,
	})
	require.NoError(t, err)
	return table
}

// ===================== Convert Tests =====================

func TestRateConverter_FixturePairs(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		target   string
		expected string
	}{
		{name: "USD to EUR", base: "USD", target: "EUR", expected: "20"},
		{name: "BRL to JPY", base: "BRL", target: "JPY", expected: "20"},
		{name: "JPY to USD", base: "JPY", target: "USD", expected: "1.25"},
		{name: "same currency", base: "EUR", target: "EUR", expected: "10"},
	}

	converter := NewRateConverter(fixtureTable(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			result, err := converter.Convert(decimal.NewFromInt(10), tt.base, tt.target)

			// Assert
			require.NoError(t, err)
			assert.True(t, result.ConvertedValue.Equal(decimal.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, result.ConvertedValue)
			assert.Equal(t, tt.base, result.BaseCurrency)
			assert.Equal(t, tt.target, result.TargetCurrency)
		})
	}
}

func TestRateConverter_ZeroAmount(t *testing.T) {
	// Arrange
	converter := NewRateConverter(fixtureTable(t))

	// Act
	result, err := converter.Convert(decimal.Zero, "BRL", "EUR")

	// Assert
	require.NoError(t, err)
	assert.True(t, result.ConvertedValue.IsZero())
}

func TestRateConverter_RateIsExactQuotient(t *testing.T) {
	// Arrange
	table, err := entity.NewRateTable(map[string]float64{"USD": 1, "EUR": 0.92, "GBP": 0.79})
	require.NoError(t, err)
	converter := NewRateConverter(table)

	// Act
	result, err := converter.Convert(decimal.NewFromInt(1), "EUR", "GBP")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0.79/0.92, result.Rate)
}

func TestRateConverter_RoundTrip(t *testing.T) {
	// Arrange
	table, err := entity.NewRateTable(map[string]float64{"USD": 1, "EUR": 0.92})
	require.NoError(t, err)
	converter := NewRateConverter(table)
	amount := decimal.RequireFromString("123.45")

	// Act
	there, err := converter.Convert(amount, "USD", "EUR")
	require.NoError(t, err)
	back, err := converter.Convert(there.ConvertedValue, "EUR", "USD")
	require.NoError(t, err)

	// Assert
	assert.True(t, back.ConvertedValue.Sub(amount).Abs().LessThan(decimal.RequireFromString("0.0001")),
		"round trip drifted: %s", back.ConvertedValue)
}

func TestRateConverter_NormalizesCodes(t *testing.T) {
	// Arrange
	converter := NewRateConverter(fixtureTable(t))

	// Act
	result, err := converter.Convert(decimal.NewFromInt(10), " usd", "eur ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "USD", result.BaseCurrency)
	assert.Equal(t, "EUR", result.TargetCurrency)
	assert.True(t, result.ConvertedValue.Equal(decimal.NewFromInt(20)))
}

func TestRateConverter_UnknownCurrency(t *testing.T) {
	tests := []struct {
		name         string
		base         string
		target       string
		expectedSide CurrencySide
		expectedCode string
		expectedMsg  string
	}{
		{
			name:         "unknown base",
			base:         "ABC",
			target:       "EUR",
			expectedSide: SideBase,
			expectedCode: "ABC",
			expectedMsg:  "Unknown base currency: ABC",
		},
		{
			name:         "unknown target",
			base:         "USD",
			target:       "xyz",
			expectedSide: SideTarget,
			expectedCode: "XYZ",
			expectedMsg:  "Unknown target currency: XYZ",
		},
		{
			name:         "both unknown reports base",
			base:         "ABC",
			target:       "XYZ",
			expectedSide: SideBase,
			expectedCode: "ABC",
			expectedMsg:  "Unknown base currency: ABC",
		},
	}

	converter := NewRateConverter(fixtureTable(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			result, err := converter.Convert(decimal.NewFromInt(1), tt.base, tt.target)

			// Assert
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrUnknownCurrency)

			var uerr *UnknownCurrencyError
			require.True(t, errors.As(err, &uerr))
			assert.Equal(t, tt.expectedSide, uerr.Side)
			assert.Equal(t, tt.expectedCode, uerr.Code)
			assert.EqualError(t, err, tt.expectedMsg)
		})
	}
}

func TestRateConverter_EmptyTable(t *testing.T) {
	// Arrange
	converter := NewRateConverter(nil)

	// Act
	_, err := converter.Convert(decimal.NewFromInt(1), "USD", "EUR")

	// Assert
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}
