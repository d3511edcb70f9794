// Package domain содержит бизнес-сущности и доменные ошибки сервиса.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money — денежная сумма с валютой.
// Хранит сумму в минимальных единицах (центы) для избежания
// накопления ошибок плавающей точки: вся арифметика рассрочки целочисленная,
// округление происходит только на границе с платформой (Decimal).
type Money struct {
	Currency string // ISO 4217 код валюты (USD, EUR)
	Amount   int64  // Сумма в минимальных единицах (центы)
}

// IsZero возвращает true для нулевой суммы.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Sub возвращает разность сумм. Валюта берётся из приёмника.
func (m Money) Sub(other Money) Money {
	return Money{Currency: m.Currency, Amount: m.Amount - other.Amount}
}

// Add возвращает сумму. Валюта берётся из приёмника.
func (m Money) Add(other Money) Money {
	return Money{Currency: m.Currency, Amount: m.Amount + other.Amount}
}

// Decimal возвращает десятичное строковое представление ("1234.50")
// для передачи во внешние API платформы. Предполагаются валюты
// с двумя знаками после запятой.
func (m Money) Decimal() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// ParseMoney разбирает десятичную строку платформы ("1234.5", "1234.50")
// в Money. Более двух знаков после запятой считается ошибкой данных.
func ParseMoney(decimal, currency string) (Money, error) {
	s := strings.TrimSpace(decimal)
	if s == "" {
		return Money{}, fmt.Errorf("пустая денежная сумма")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i+1:]
	}
	if len(fracPart) > 2 {
		return Money{}, fmt.Errorf("некорректная денежная сумма %q", decimal)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	if intPart == "" {
		intPart = "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("некорректная денежная сумма %q: %w", decimal, err)
	}
	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("некорректная денежная сумма %q: %w", decimal, err)
	}

	amount := units*100 + cents
	if negative {
		amount = -amount
	}

	return Money{Currency: currency, Amount: amount}, nil
}
