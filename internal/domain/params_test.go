package domain

import (
	"errors"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("default params should be valid: %v", err)
	}
	if !p.MinimumDebt().Equal(d("2000")) {
		t.Errorf("Expected minimum debt 2000, got %s", p.MinimumDebt())
	}
}

func TestParams_Validate(t *testing.T) {
	t.Run("ccr below mcr", func(t *testing.T) {
		p := DefaultParams()
		p.CriticalCollateralRatio = d("1")

		err := p.Validate()
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("Expected ConfigError, got %v", err)
		}
		if cfgErr.Field != "critical_collateral_ratio" {
			t.Errorf("Unexpected field %s", cfgErr.Field)
		}
	})

	t.Run("negative reserve", func(t *testing.T) {
		p := DefaultParams()
		p.LiquidationReserve = d("1").Neg()
		if err := p.Validate(); err == nil {
			t.Error("Expected error for negative reserve")
		}
	})

	t.Run("inverted borrowing rates", func(t *testing.T) {
		p := DefaultParams()
		p.MaximumBorrowingRate = d("0.001")
		if err := p.Validate(); err == nil {
			t.Error("Expected error when max rate is below min rate")
		}
	})
}
