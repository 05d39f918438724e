package helper

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount — терпимый разбор числа из поля ввода; пустая строка и мусор
// дают ok=false, а не ошибку.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func Round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// FormatAmount — без хвостовых нулей, максимум 8 знаков после точки.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(Round8(v), 'f', -1, 64)
}

func PnlPercent(pnl, entry, qty float64) float64 {
	notional := entry * qty
	if notional == 0 {
		return 0
	}
	return pnl / notional * 100
}
