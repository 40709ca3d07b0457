package money

import (
	"math"
	"testing"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{27.986, 27.99},
		{7.035, 7.04},
		{-1.005, -1.01},
		{199.9, 199.9},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrice_RejectsNegative(t *testing.T) {
	if got := Price(-3); got != 0 {
		t.Fatalf("Price(-3) = %v, want 0", got)
	}
	if got := Price(12.345); got != 12.35 {
		t.Fatalf("Price(12.345) = %v, want 12.35", got)
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{199.9, "R$ 199,90"},
		{0, "R$ 0,00"},
		{1234.5, "R$ 1234,50"},
		{-12.5, "R$ -12,50"},
	}
	for _, tt := range tests {
		if got := FormatBRL(tt.in); got != tt.want {
			t.Errorf("FormatBRL(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(25.584); got != "25,6%" {
		t.Fatalf("FormatPercent = %q, want %q", got, "25,6%")
	}
	if got := FormatPercent(0); got != "0,0%" {
		t.Fatalf("FormatPercent(0) = %q, want %q", got, "0,0%")
	}
}
