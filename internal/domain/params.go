package domain

import (
	"errors"
	"fmt"

	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
)

// Params are the protocol constants the trove rules are checked against.
// They are read-only for the lifetime of a validator.
type Params struct {
	LiquidationReserve      decimal.Decimal `yaml:"liquidation_reserve" json:"liquidation_reserve"`
	MinimumNetDebt          decimal.Decimal `yaml:"minimum_net_debt" json:"minimum_net_debt"`
	MinimumCollateralRatio  decimal.Decimal `yaml:"minimum_collateral_ratio" json:"minimum_collateral_ratio"`
	CriticalCollateralRatio decimal.Decimal `yaml:"critical_collateral_ratio" json:"critical_collateral_ratio"`
	MinimumBorrowingRate    decimal.Decimal `yaml:"minimum_borrowing_rate" json:"minimum_borrowing_rate"`
	MaximumBorrowingRate    decimal.Decimal `yaml:"maximum_borrowing_rate" json:"maximum_borrowing_rate"`
}

// DefaultParams returns the mainnet deployment values.
func DefaultParams() Params {
	return Params{
		LiquidationReserve:      decimal.NewFromInt(200),
		MinimumNetDebt:          decimal.NewFromInt(1800),
		MinimumCollateralRatio:  quant.MustParse("1.1"),
		CriticalCollateralRatio: quant.MustParse("1.5"),
		MinimumBorrowingRate:    quant.MustParse("0.005"),
		MaximumBorrowingRate:    quant.MustParse("0.05"),
	}
}

// MinimumDebt is the smallest total debt an open trove may carry.
func (p Params) MinimumDebt() decimal.Decimal {
	return p.LiquidationReserve.Add(p.MinimumNetDebt)
}

// Validate checks that the constants are internally consistent.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"liquidation_reserve", p.LiquidationReserve},
		{"minimum_net_debt", p.MinimumNetDebt},
		{"minimum_collateral_ratio", p.MinimumCollateralRatio},
		{"critical_collateral_ratio", p.CriticalCollateralRatio},
		{"minimum_borrowing_rate", p.MinimumBorrowingRate},
		{"maximum_borrowing_rate", p.MaximumBorrowingRate},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return &ConfigError{Field: f.name, Err: quant.ErrNegative}
		}
	}

	if !p.MinimumCollateralRatio.IsPositive() {
		return &ConfigError{Field: "minimum_collateral_ratio", Err: errors.New("must be positive")}
	}
	if p.CriticalCollateralRatio.LessThan(p.MinimumCollateralRatio) {
		return &ConfigError{
			Field: "critical_collateral_ratio",
			Err:   fmt.Errorf("%s is below minimum collateral ratio %s", p.CriticalCollateralRatio, p.MinimumCollateralRatio),
		}
	}
	if p.MaximumBorrowingRate.LessThan(p.MinimumBorrowingRate) {
		return &ConfigError{Field: "maximum_borrowing_rate", Err: errors.New("below minimum borrowing rate")}
	}
	return nil
}
