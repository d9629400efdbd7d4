package service

import (
	"exchanger/exchange-service/internal/app/exchange/entity"

	"github.com/shopspring/decimal"
)

// RateConverter пересчитывает суммы по таблице курсов относительно USD. Без побочных эффектов.
type RateConverter struct {
	table *entity.RateTable
}

func NewRateConverter(table *entity.RateTable) *RateConverter {
	return &RateConverter{table: table}
}

// Convert возвращает курс T[target]/T[base] без округления и сумму amount*rate.
// Отсутствующий код даёт *UnknownCurrencyError, сначала проверяется base.
func (c *RateConverter) Convert(amount decimal.Decimal, base, target string) (*entity.ConversionResult, error) {
	baseCode := entity.NormalizeCode(base)
	targetCode := entity.NormalizeCode(target)

	baseRate, ok := c.table.Rate(baseCode)
	if !ok {
		return nil, &UnknownCurrencyError{Side: SideBase, Code: baseCode}
	}
	targetRate, ok := c.table.Rate(targetCode)
	if !ok {
		return nil, &UnknownCurrencyError{Side: SideTarget, Code: targetCode}
	}

	rate := targetRate / baseRate

	return &entity.ConversionResult{
		ConvertedValue: amount.Mul(decimal.NewFromFloat(rate)),
		Rate:           rate,
		BaseCurrency:   baseCode,
		TargetCurrency: targetCode,
	}, nil
}
