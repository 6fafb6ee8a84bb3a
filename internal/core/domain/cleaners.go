package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Очистка сырых значений со страницы объявления. Каждая функция чистая и
// тотальная: на мусорном входе возвращает нулевое значение, не ошибку.
// Сопоставление поле-функция живет в таблице сеттеров экстрактора.

var (
	numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	yearPattern   = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// CleanPrice извлекает число из строки вида "€ 3,250 /maand" или
// "€ 450.000 k.k.". Разделители тысяч убираются, 0 на мусорном входе.
func CleanPrice(raw string) float64 {
	m := numberPattern.FindString(raw)
	if m == "" {
		return 0
	}
	m = strings.ReplaceAll(m, ",", "")
	m = strings.ReplaceAll(m, ".", "")
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// CleanArea извлекает целую площадь из строки вида "118 m²".
func CleanArea(raw string) int {
	m := numberPattern.FindString(raw)
	if m == "" {
		return 0
	}
	// дробная часть площади отбрасывается
	if i := strings.IndexAny(m, ".,"); i >= 0 {
		m = m[:i]
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return v
}

// CleanCount извлекает первое целое: "4 rooms (3 bedrooms)" -> 4.
func CleanCount(raw string) int {
	return CleanArea(raw)
}

// CleanYear извлекает год постройки, 0 если года в строке нет.
func CleanYear(raw string) int {
	m := yearPattern.FindString(raw)
	if m == "" {
		return 0
	}
	v, _ := strconv.Atoi(m)
	return v
}

// CleanText нормализует пробелы и обрезает края.
func CleanText(raw string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(raw, " "))
}

// CleanPostCode приводит почтовый индекс к виду "1234 AB".
func CleanPostCode(raw string) string {
	s := strings.ToUpper(CleanText(raw))
	s = strings.ReplaceAll(s, " ", "")
	if len(s) == 6 {
		return s[:4] + " " + s[4:]
	}
	return s
}
