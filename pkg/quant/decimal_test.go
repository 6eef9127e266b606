package quant

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c string
		want    string
	}{
		{"exact", "2", "1000", "1000", "2"},
		{"truncates", "1", "1", "3", "0.333333333333333333"},
		{"ratio", "2", "2000", "1800", "2.222222222222222222"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MulDiv(MustParse(tt.a), MustParse(tt.b), MustParse(tt.c))
			if !got.Equal(MustParse(tt.want)) {
				t.Errorf("MulDiv(%s, %s, %s) = %s, want %s", tt.a, tt.b, tt.c, got, tt.want)
			}
		})
	}

	t.Run("zero divisor", func(t *testing.T) {
		if got := MulDiv(One, One, decimal.Zero); !IsInfinite(got) {
			t.Errorf("expected Infinity, got %s", got)
		}
	})
}

func TestDivCeil(t *testing.T) {
	got := DivCeil(One, decimal.NewFromInt(3))
	if !got.Equal(MustParse("0.333333333333333334")) {
		t.Errorf("DivCeil(1, 3) = %s", got)
	}

	got = DivCeil(decimal.NewFromInt(10), decimal.NewFromInt(2))
	if !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("DivCeil(10, 2) = %s", got)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("-1"); err == nil {
		t.Error("expected error for negative amount")
	}
	if _, err := Parse("abc"); err == nil {
		t.Error("expected error for garbage")
	}

	d, err := Parse(" 1.0000000000000000019 ")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !d.Equal(MustParse("1.000000000000000001")) {
		t.Errorf("expected truncation to 18 places, got %s", d)
	}
}

func TestSubFloor(t *testing.T) {
	if got := SubFloor(One, decimal.NewFromInt(2)); !got.IsZero() {
		t.Errorf("expected zero, got %s", got)
	}
	if got := SubFloor(decimal.NewFromInt(5), decimal.NewFromInt(2)); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3, got %s", got)
	}
}

func TestPrettify(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"200", 2, "200"},
		{"1800.5", 2, "1,800.5"},
		{"1234567.891", 2, "1,234,567.89"},
		{"0.12345", 4, "0.1234"},
		{"12345.678", 2, "12,345.67"},
		{"-0.999", 2, "-0.99"},
	}

	for _, tt := range tests {
		if got := Prettify(MustParse(tt.in), tt.places); got != tt.want {
			t.Errorf("Prettify(%s, %d) = %q, want %q", tt.in, tt.places, got, tt.want)
		}
	}

	if got := Prettify(Infinity, 2); got != "∞" {
		t.Errorf("Prettify(Infinity) = %q", got)
	}
}
