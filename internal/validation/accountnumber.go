// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"
	"unicode"

	"github.com/mmeshcher/bank-backoffice/internal/apperr"
)

// Номер счёта в формате BEkk gggg gggg gggg.
const (
	accountNumberLength = 19
	countryCodeValue    = 111400 // B=11, E=14, сдвинутые на два разряда под контрольные цифры
	checksumModulus     = 97
)

var groupSeparators = [...]int{4, 9, 14}

// AccountNumber содержит проверенный бельгийский номер счёта. Хранит исходную строку без нормализации.
// Нулевое значение означает отсутствие номера.
type AccountNumber struct {
	raw string
}

// ParseAccountNumber проверяет формат и контрольную сумму номера счёта по правилам IBAN.
//
// Группы gggg переставляются перед кодом страны: g2·10^14 + g3·10^10 + g4·10^6 + 1114kk,
// номер корректен, если остаток от деления на 97 равен 1.
func ParseAccountNumber(raw string) (AccountNumber, error) {
	if strings.TrimSpace(raw) == "" {
		return AccountNumber{}, apperr.ErrAccountNumberEmpty
	}

	if len(raw) != accountNumberLength || !hasSeparatorsOnly(raw) {
		return AccountNumber{}, apperr.ErrAccountNumberBadFormat
	}

	if !strings.EqualFold(raw[:2], "BE") {
		return AccountNumber{}, apperr.ErrAccountNumberBadFormat
	}

	check, ok := parseDigits(raw[2:4])
	if !ok {
		return AccountNumber{}, apperr.ErrAccountNumberBadFormat
	}

	var groups [3]int64
	for i, start := range groupSeparators {
		g, ok := parseDigits(raw[start+1 : start+5])
		if !ok {
			return AccountNumber{}, apperr.ErrAccountNumberBadFormat
		}
		groups[i] = g
	}

	total := groups[0]*100_000_000_000_000 +
		groups[1]*10_000_000_000 +
		groups[2]*1_000_000 +
		countryCodeValue + check

	if total%checksumModulus != 1 {
		return AccountNumber{}, apperr.ErrAccountNumberInvalidChecksum
	}

	return AccountNumber{raw: raw}, nil
}

func hasSeparatorsOnly(raw string) bool {
	for i := 0; i < len(raw); i++ {
		isSeparator := i == groupSeparators[0] || i == groupSeparators[1] || i == groupSeparators[2]
		if (raw[i] == ' ') != isSeparator {
			return false
		}
	}
	return true
}

func parseDigits(s string) (int64, bool) {
	var n int64
	for i := 0; i < len(s); i++ {
		ch := rune(s[i])
		if !unicode.IsDigit(ch) {
			return 0, false
		}
		n = n*10 + int64(ch-'0')
	}
	return n, true
}

// String возвращает номер в том виде, в котором он был передан в ParseAccountNumber.
func (n AccountNumber) String() string {
	return n.raw
}

// IsZero сообщает, что номер не задан.
func (n AccountNumber) IsZero() bool {
	return n.raw == ""
}

// Compact возвращает номер без пробелов в верхнем регистре.
func (n AccountNumber) Compact() string {
	return strings.ToUpper(strings.ReplaceAll(n.raw, " ", ""))
}
