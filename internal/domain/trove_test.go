package domain

import (
	"testing"

	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return quant.MustParse(s) }

func TestTrove_CollateralRatio(t *testing.T) {
	t.Run("priced ratio", func(t *testing.T) {
		trove := NewTrove(d("2"), d("2000"))
		if got := trove.CollateralRatio(d("1000")); !got.Equal(d("1")) {
			t.Errorf("Expected ratio 1, got %s", got)
		}
	})

	t.Run("zero debt is infinite", func(t *testing.T) {
		trove := NewTrove(d("2"), decimal.Zero)
		if !quant.IsInfinite(trove.CollateralRatio(d("1000"))) {
			t.Error("Expected infinite ratio for debt-free trove")
		}
	})

	t.Run("below threshold", func(t *testing.T) {
		trove := NewTrove(d("2"), d("2000"))
		if !trove.CollateralRatioIsBelow(d("1000"), d("1.1")) {
			t.Error("Ratio 1 should be below 1.1")
		}
		if trove.CollateralRatioIsBelow(d("1100"), d("1.1")) {
			t.Error("Ratio 1.1 should not be below 1.1")
		}
		if !trove.IsOpenableInRecoveryMode(d("1500"), d("1.5")) {
			t.Error("Ratio exactly at CCR should be openable in recovery mode")
		}
	})
}

func TestTrove_Arithmetic(t *testing.T) {
	a := NewTrove(d("3"), d("3000"))
	b := NewTrove(d("1"), d("5000"))

	if got := a.Add(b); !got.Equal(NewTrove(d("4"), d("8000"))) {
		t.Errorf("Add = %s", got)
	}
	if got := a.Subtract(b); !got.Equal(NewTrove(d("2"), decimal.Zero)) {
		t.Errorf("Subtract should floor at zero, got %s", got)
	}
	if got := a.SubtractCollateral(d("5")); !got.Collateral.IsZero() {
		t.Errorf("SubtractCollateral should floor at zero, got %s", got)
	}
}

func TestTrove_NetDebt(t *testing.T) {
	reserve := d("200")
	if got := NewTrove(d("1"), d("2000")).NetDebt(reserve); !got.Equal(d("1800")) {
		t.Errorf("Expected 1800, got %s", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("NetDebt should panic when debt is below the reserve")
		}
	}()
	NewTrove(d("1"), d("100")).NetDebt(reserve)
}

func TestFee(t *testing.T) {
	rate := d("0.005")
	if got := ApplyFee(rate, d("1800")); !got.Equal(d("1809")) {
		t.Errorf("ApplyFee = %s, want 1809", got)
	}
	if got := UnapplyFee(rate, d("1809")); !got.Equal(d("1800")) {
		t.Errorf("UnapplyFee = %s, want 1800", got)
	}
}

func TestTroveStatus_Valid(t *testing.T) {
	if !TroveStatusClosedByRedemption.Valid() {
		t.Error("closedByRedemption should be valid")
	}
	if TroveStatus("frozen").Valid() {
		t.Error("unknown status should be invalid")
	}
}
