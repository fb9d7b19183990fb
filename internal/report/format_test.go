package report

import (
	"math"
	"testing"
)

func TestPrecision(t *testing.T) {
	tests := []struct {
		dt   float64
		want int
	}{
		{0.001, 3},
		{0.01, 2},
		{0.1, 1},
		{0.05, 1},
		{1, 0},
		{2, 0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Precision(tt.dt); got != tt.want {
			t.Errorf("Precision(%v) = %d, want %d", tt.dt, got, tt.want)
		}
	}
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		value     float64
		precision int
		want      string
	}{
		{38.85889178687201, 2, "38.86"},
		{-0.054157415984581736, 2, "-0.05"},
		{57.38850000000042, 2, "57.39"},
		{5.8500000000000005, 2, "5.85"},
		{0.1 + 0.2, 2, "0.3"},
		{1.005, 2, "1.01"},
		{-1.005, 2, "-1.01"},
		{9.999, 2, "10"},
		{0.09999, 2, "0.1"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{-0.001, 2, "0"},
		{167.64, 3, "167.64"},
		{42, 2, "42"},
		{0, 2, "0"},
		{12.345, -1, "12"},
		{math.Inf(1), 2, "+Inf"},
	}
	for _, tt := range tests {
		if got := Decimal(tt.value, tt.precision); got != tt.want {
			t.Errorf("Decimal(%v, %d) = %q, want %q", tt.value, tt.precision, got, tt.want)
		}
	}
}
