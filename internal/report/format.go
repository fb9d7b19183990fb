package report

import (
	"math"
	"strconv"
	"strings"
)

// Precision is the number of decimals worth showing for a run stepped at dt:
// floor(log10(1/dt)), never negative.
func Precision(dt float64) int {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return 0
	}
	p := int(math.Floor(math.Log10(1/dt) + 1e-9))
	if p < 0 {
		return 0
	}
	return p
}

// Decimal rounds value to precision decimals, half away from zero, and
// formats it without trailing zeros. Rounding is done on the shortest
// decimal form of value so 1.005 becomes 1.01 rather than 1.
func Decimal(value float64, precision int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	if precision < 0 {
		precision = 0
	}

	s := strconv.FormatFloat(math.Abs(value), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")

	if len(frac) > precision {
		digits := []byte(whole + frac[:precision])
		if frac[precision] >= '5' {
			digits = increment(digits)
		}
		cut := len(digits) - precision
		whole, frac = string(digits[:cut]), string(digits[cut:])
	}

	frac = strings.TrimRight(frac, "0")
	out := whole
	if frac != "" {
		out += "." + frac
	}
	if value < 0 && strings.Trim(out, "0.") != "" {
		out = "-" + out
	}
	return out
}

// increment adds one to a string of decimal digits.
func increment(digits []byte) []byte {
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] != '9' {
			digits[i]++
			return digits
		}
		digits[i] = '0'
	}
	return append([]byte{'1'}, digits...)
}
