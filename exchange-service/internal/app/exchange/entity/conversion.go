package entity

import "github.com/shopspring/decimal"

// ConversionRequest - проверенная тройка (сумма, исходная валюта, целевая валюта)
type ConversionRequest struct {
	Amount         decimal.Decimal
	BaseCurrency   string
	TargetCurrency string
}

// ConversionResult - результат конвертации без округления.
// Rate равен T[target]/T[base], ConvertedValue = Amount * Rate.
type ConversionResult struct {
	ConvertedValue decimal.Decimal
	Rate           float64
	BaseCurrency   string
	TargetCurrency string
}
