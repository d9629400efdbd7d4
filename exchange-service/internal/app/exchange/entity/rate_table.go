package entity

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var ErrInvalidRateTable = errors.New("invalid rate table")

// RateTable - неизменяемая таблица курсов относительно USD.
// Коды хранятся в верхнем регистре, все значения положительные и конечные.
type RateTable struct {
	rates map[string]float64
}

// NewRateTable проверяет и нормализует курсы.
// Возвращает ErrInvalidRateTable для неположительных значений и дублей после нормализации.
func NewRateTable(rates map[string]float64) (*RateTable, error) {
	normalized := make(map[string]float64, len(rates))
	for code, value := range rates {
		key := NormalizeCode(code)
		if key == "" {
			return nil, fmt.Errorf("%w: empty currency code", ErrInvalidRateTable)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
			return nil, fmt.Errorf("%w: rate for %s must be a positive number, got %v", ErrInvalidRateTable, key, value)
		}
		if _, dup := normalized[key]; dup {
			return nil, fmt.Errorf("%w: duplicate currency code %s", ErrInvalidRateTable, key)
		}
		normalized[key] = value
	}
	return &RateTable{rates: normalized}, nil
}

// NormalizeCode приводит код валюты к каноничному виду
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Rate возвращает курс валюты, регистр кода не важен
func (t *RateTable) Rate(code string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t.rates[NormalizeCode(code)]
	return v, ok
}

func (t *RateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rates)
}

// Codes возвращает отсортированный список кодов
func (t *RateTable) Codes() []string {
	if t == nil {
		return nil
	}
	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Rates возвращает копию курсов
func (t *RateTable) Rates() map[string]float64 {
	out := make(map[string]float64, t.Len())
	if t == nil {
		return out
	}
	for code, v := range t.rates {
		out[code] = v
	}
	return out
}
