package domain

import (
	"fmt"

	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
)

// TroveStatus is the lifecycle state of a user's trove.
type TroveStatus string

const (
	TroveStatusNonExistent         TroveStatus = "nonExistent"
	TroveStatusOpen                TroveStatus = "open"
	TroveStatusClosedByOwner       TroveStatus = "closedByOwner"
	TroveStatusClosedByLiquidation TroveStatus = "closedByLiquidation"
	TroveStatusClosedByRedemption  TroveStatus = "closedByRedemption"
)

// Valid reports whether s is one of the known statuses.
func (s TroveStatus) Valid() bool {
	switch s {
	case TroveStatusNonExistent, TroveStatusOpen, TroveStatusClosedByOwner,
		TroveStatusClosedByLiquidation, TroveStatusClosedByRedemption:
		return true
	}
	return false
}

// Trove is a collateralized debt position: collateral (ETH) locked against
// debt (LUSD). Both amounts are non-negative. Trove is a value type; every
// operation returns a new Trove.
//
// The same type doubles as the system-wide total, where Collateral and Debt
// are the sums over all open troves.
type Trove struct {
	Collateral decimal.Decimal `json:"collateral" yaml:"collateral"`
	Debt       decimal.Decimal `json:"debt" yaml:"debt"`
}

// NewTrove builds a trove, truncating both amounts to protocol precision.
func NewTrove(collateral, debt decimal.Decimal) Trove {
	return Trove{Collateral: quant.Truncate(collateral), Debt: quant.Truncate(debt)}
}

// EmptyTrove holds nothing.
var EmptyTrove = Trove{Collateral: decimal.Zero, Debt: decimal.Zero}

// Check returns ErrInvalidAmount when either side is negative.
func (t Trove) Check() error {
	if t.Collateral.IsNegative() {
		return fmt.Errorf("%w: collateral %s", ErrInvalidAmount, t.Collateral)
	}
	if t.Debt.IsNegative() {
		return fmt.Errorf("%w: debt %s", ErrInvalidAmount, t.Debt)
	}
	return nil
}

// IsEmpty reports whether the trove holds neither collateral nor debt.
func (t Trove) IsEmpty() bool {
	return t.Collateral.IsZero() && t.Debt.IsZero()
}

// Equal compares amounts, not representations.
func (t Trove) Equal(o Trove) bool {
	return t.Collateral.Equal(o.Collateral) && t.Debt.Equal(o.Debt)
}

// NetDebt is the debt minus the liquidation reserve. Panics when the trove
// carries less debt than the reserve; callers check first.
func (t Trove) NetDebt(reserve decimal.Decimal) decimal.Decimal {
	if t.Debt.LessThan(reserve) {
		panic(fmt.Sprintf("TROVE_NET_DEBT_BELOW_RESERVE: debt %s, reserve %s", t.Debt, reserve))
	}
	return t.Debt.Sub(reserve)
}

// CollateralRatio is collateral value at price divided by debt.
// A trove without debt has an infinite ratio.
func (t Trove) CollateralRatio(price decimal.Decimal) decimal.Decimal {
	return quant.MulDiv(t.Collateral, price, t.Debt)
}

// CollateralRatioIsBelow reports whether the ratio at price is strictly
// below threshold.
func (t Trove) CollateralRatioIsBelow(price, threshold decimal.Decimal) bool {
	return t.CollateralRatio(price).LessThan(threshold)
}

// IsOpenableInRecoveryMode reports whether a new trove meets the critical
// ratio, the bar for opening while the system is in recovery mode.
func (t Trove) IsOpenableInRecoveryMode(price, ccr decimal.Decimal) bool {
	return t.CollateralRatio(price).GreaterThanOrEqual(ccr)
}

// Add sums two troves.
func (t Trove) Add(o Trove) Trove {
	return Trove{Collateral: t.Collateral.Add(o.Collateral), Debt: t.Debt.Add(o.Debt)}
}

// Subtract removes o from t component-wise, flooring each side at zero.
func (t Trove) Subtract(o Trove) Trove {
	return Trove{
		Collateral: quant.SubFloor(t.Collateral, o.Collateral),
		Debt:       quant.SubFloor(t.Debt, o.Debt),
	}
}

func (t Trove) AddCollateral(d decimal.Decimal) Trove {
	return Trove{Collateral: t.Collateral.Add(d), Debt: t.Debt}
}

func (t Trove) SubtractCollateral(d decimal.Decimal) Trove {
	return Trove{Collateral: quant.SubFloor(t.Collateral, d), Debt: t.Debt}
}

func (t Trove) AddDebt(d decimal.Decimal) Trove {
	return Trove{Collateral: t.Collateral, Debt: t.Debt.Add(d)}
}

func (t Trove) SubtractDebt(d decimal.Decimal) Trove {
	return Trove{Collateral: t.Collateral, Debt: quant.SubFloor(t.Debt, d)}
}

func (t Trove) SetCollateral(d decimal.Decimal) Trove {
	return Trove{Collateral: d, Debt: t.Debt}
}

func (t Trove) SetDebt(d decimal.Decimal) Trove {
	return Trove{Collateral: t.Collateral, Debt: d}
}

// String is used in logs.
func (t Trove) String() string {
	return fmt.Sprintf("{collateral: %s, debt: %s}", t.Collateral, t.Debt)
}

// UserTrove is a trove owned by an account.
type UserTrove struct {
	Owner  string      `json:"owner" yaml:"owner"`
	Trove  Trove       `json:"trove" yaml:"trove"`
	Status TroveStatus `json:"status" yaml:"status"`
}

// IsOpen reports whether the trove is active.
func (u UserTrove) IsOpen() bool {
	return u.Status == TroveStatusOpen
}

// ApplyFee returns the debt increase after the borrowing fee is added.
func ApplyFee(borrowingRate, amount decimal.Decimal) decimal.Decimal {
	return quant.Mul(amount, quant.One.Add(borrowingRate))
}

// UnapplyFee recovers the borrowed amount from a fee-inclusive debt
// increase, rounding up.
func UnapplyFee(borrowingRate, debtIncrease decimal.Decimal) decimal.Decimal {
	return quant.DivCeil(debtIncrease, quant.One.Add(borrowingRate))
}
