package validate

import (
	"errors"
	"math"
	"testing"
)

func TestSymbol_RejectsShortOrEmpty(t *testing.T) {
	cases := []string{"", "   ", "btc", "BTCUS", "eth/u"}
	for _, input := range cases {
		if _, err := Symbol(input); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Symbol(%q): expected ErrInvalidInput, got %v", input, err)
		}
	}
}

func TestSymbol_NormalizesToUppercase(t *testing.T) {
	got, err := Symbol("  btcusdt ")
	if err != nil {
		t.Fatalf("Symbol returned error: %v", err)
	}
	if got != "BTCUSDT" {
		t.Errorf("expected BTCUSDT, got %q", got)
	}
}

func TestQuantity_RejectsNonPositive(t *testing.T) {
	cases := []float64{0, -1, -0.001, math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, q := range cases {
		if err := Quantity(q); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Quantity(%v): expected ErrInvalidInput, got %v", q, err)
		}
	}
	if err := Quantity(0.001); err != nil {
		t.Errorf("Quantity(0.001): unexpected error %v", err)
	}
}

func TestPrice_RejectsNonPositive(t *testing.T) {
	cases := []float64{0, -50000, math.NaN(), math.Inf(1)}
	for _, p := range cases {
		if err := Price(p); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Price(%v): expected ErrInvalidInput, got %v", p, err)
		}
	}
	if err := Price(50000); err != nil {
		t.Errorf("Price(50000): unexpected error %v", err)
	}
}

func TestSide_Normalizes(t *testing.T) {
	got, err := Side(" buy ")
	if err != nil {
		t.Fatalf("Side returned error: %v", err)
	}
	if got != "BUY" {
		t.Errorf("expected BUY, got %q", got)
	}

	if _, err := Side("HOLD"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Side(HOLD): expected ErrInvalidInput, got %v", err)
	}
}
