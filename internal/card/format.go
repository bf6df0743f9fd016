// Package card форматирует и проверяет данные банковской карты.
package card

import (
	"strings"
	"unicode"
)

const (
	// MaxPANDigits максимальная длина номера карты
	MaxPANDigits = 19
	panGroupSize = 4
	expireDigits = 4
)

// Digits оставляет в строке только ASCII-цифры
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// FormatPAN приводит ввод номера карты к виду "0000 0000 0000 0000".
// Лишние цифры после девятнадцатой отбрасываются.
func FormatPAN(raw string) string {
	digits := Digits(raw)
	if len(digits) > MaxPANDigits {
		digits = digits[:MaxPANDigits]
	}

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/panGroupSize)
	for i := 0; i < len(digits); i++ {
		if i > 0 && i%panGroupSize == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(digits[i])
	}
	return b.String()
}

// FormatExpire приводит ввод срока действия к виду "MM/YY".
// Разделитель появляется, когда введена третья цифра.
func FormatExpire(raw string) string {
	digits := Digits(raw)
	if len(digits) <= 2 {
		return digits
	}
	if len(digits) > expireDigits {
		digits = digits[:expireDigits]
	}
	return digits[:2] + "/" + digits[2:]
}

// NormalizePAN убирает пробельные символы из отформатированного номера
func NormalizePAN(pan string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, pan)
}
