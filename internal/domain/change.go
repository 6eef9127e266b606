package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ChangeKind classifies a TroveChange.
type ChangeKind int

const (
	ChangeCreation ChangeKind = iota + 1
	ChangeAdjustment
	ChangeClosure
	ChangeInvalidCreation
)

// String returns the string representation of ChangeKind
func (k ChangeKind) String() string {
	switch k {
	case ChangeCreation:
		return "creation"
	case ChangeAdjustment:
		return "adjustment"
	case ChangeClosure:
		return "closure"
	case ChangeInvalidCreation:
		return "invalidCreation"
	default:
		return "unknown"
	}
}

// TroveChange is the closed set of changes WhatChanged can produce:
// Creation, Adjustment, Closure and InvalidCreation.
type TroveChange interface {
	Kind() ChangeKind
	troveChange()
}

// ValidTroveChange is a TroveChange that can be submitted, i.e. anything but
// InvalidCreation.
type ValidTroveChange interface {
	TroveChange
	// Amounts views the change as the four optional adjustment amounts.
	Amounts() AdjustmentParams
	validChange()
}

// AdjustmentParams are the optional amounts of a change. At most one of each
// pair is set, at least one field is set, and every set amount is positive.
type AdjustmentParams struct {
	DepositCollateral  *decimal.Decimal `json:"deposit_collateral,omitempty" yaml:"deposit_collateral,omitempty"`
	WithdrawCollateral *decimal.Decimal `json:"withdraw_collateral,omitempty" yaml:"withdraw_collateral,omitempty"`
	BorrowLUSD         *decimal.Decimal `json:"borrow_lusd,omitempty" yaml:"borrow_lusd,omitempty"`
	RepayLUSD          *decimal.Decimal `json:"repay_lusd,omitempty" yaml:"repay_lusd,omitempty"`
}

// Validate enforces the shape rules of AdjustmentParams.
func (p AdjustmentParams) Validate() error {
	if p.DepositCollateral == nil && p.WithdrawCollateral == nil && p.BorrowLUSD == nil && p.RepayLUSD == nil {
		return fmt.Errorf("%w: no amounts", ErrInvalidChange)
	}
	if p.DepositCollateral != nil && p.WithdrawCollateral != nil {
		return fmt.Errorf("%w: both deposit and withdraw collateral", ErrInvalidChange)
	}
	if p.BorrowLUSD != nil && p.RepayLUSD != nil {
		return fmt.Errorf("%w: both borrow and repay", ErrInvalidChange)
	}
	for name, v := range map[string]*decimal.Decimal{
		"deposit_collateral":  p.DepositCollateral,
		"withdraw_collateral": p.WithdrawCollateral,
		"borrow_lusd":         p.BorrowLUSD,
		"repay_lusd":          p.RepayLUSD,
	} {
		if v != nil && !v.IsPositive() {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidChange, name, v)
		}
	}
	return nil
}

// ZeroField names the side an adjustment drives to exactly zero.
type ZeroField string

const (
	ZeroNone       ZeroField = ""
	ZeroCollateral ZeroField = "collateral"
	ZeroDebt       ZeroField = "debt"
)

// Creation opens a trove. BorrowLUSD excludes the borrowing fee and the
// liquidation reserve.
type Creation struct {
	DepositCollateral decimal.Decimal `json:"deposit_collateral"`
	BorrowLUSD        decimal.Decimal `json:"borrow_lusd"`
}

func (Creation) Kind() ChangeKind { return ChangeCreation }
func (Creation) troveChange()     {}
func (Creation) validChange()     {}

// Amounts implements ValidTroveChange.
func (c Creation) Amounts() AdjustmentParams {
	return AdjustmentParams{DepositCollateral: amount(c.DepositCollateral), BorrowLUSD: amount(c.BorrowLUSD)}
}

// Adjustment modifies an open trove.
type Adjustment struct {
	AdjustmentParams
	SetToZero ZeroField `json:"set_to_zero,omitempty"`
}

func (Adjustment) Kind() ChangeKind { return ChangeAdjustment }
func (Adjustment) troveChange()     {}
func (Adjustment) validChange()     {}

// Amounts implements ValidTroveChange.
func (a Adjustment) Amounts() AdjustmentParams { return a.AdjustmentParams }

// Closure repays a trove in full and returns its collateral.
type Closure struct {
	WithdrawCollateral decimal.Decimal  `json:"withdraw_collateral"`
	RepayLUSD          *decimal.Decimal `json:"repay_lusd,omitempty"`
}

func (Closure) Kind() ChangeKind { return ChangeClosure }
func (Closure) troveChange()     {}
func (Closure) validChange()     {}

// Amounts implements ValidTroveChange.
func (c Closure) Amounts() AdjustmentParams {
	return AdjustmentParams{WithdrawCollateral: amount(c.WithdrawCollateral), RepayLUSD: c.RepayLUSD}
}

// InvalidCreationReason explains an InvalidCreation.
type InvalidCreationReason string

// ReasonMissingLiquidationReserve: the new trove's debt does not even cover
// the liquidation reserve, so its net debt would be negative.
const ReasonMissingLiquidationReserve InvalidCreationReason = "missingLiquidationReserve"

// InvalidCreation is an attempted creation that can never be submitted.
type InvalidCreation struct {
	InvalidTrove Trove                 `json:"invalid_trove"`
	Reason       InvalidCreationReason `json:"reason"`
}

func (InvalidCreation) Kind() ChangeKind { return ChangeInvalidCreation }
func (InvalidCreation) troveChange()     {}

func amount(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// WhatChanged classifies the difference between t and edited. The second
// return value is false when the two troves are equal.
//
// Debt increases are converted back to borrow amounts by unapplying the fee
// at borrowingRate, so re-applying the change may differ from edited in the
// last decimal place.
func (t Trove) WhatChanged(edited Trove, borrowingRate, reserve decimal.Decimal) (TroveChange, bool) {
	if t.Equal(edited) {
		return nil, false
	}

	if t.IsEmpty() {
		if edited.Debt.LessThan(reserve) {
			return InvalidCreation{InvalidTrove: edited, Reason: ReasonMissingLiquidationReserve}, true
		}
		return Creation{
			DepositCollateral: edited.Collateral,
			BorrowLUSD:        UnapplyFee(borrowingRate, edited.NetDebt(reserve)),
		}, true
	}

	if edited.IsEmpty() {
		closure := Closure{WithdrawCollateral: t.Collateral}
		if t.Debt.GreaterThan(reserve) {
			closure.RepayLUSD = amount(t.NetDebt(reserve))
		}
		return closure, true
	}

	var adj Adjustment
	if !t.Debt.Equal(edited.Debt) {
		t.debtChange(edited, borrowingRate, &adj.AdjustmentParams)
		if edited.Debt.IsZero() {
			adj.SetToZero = ZeroDebt
		}
	}
	if !t.Collateral.Equal(edited.Collateral) {
		t.collateralChange(edited, &adj.AdjustmentParams)
		if edited.Collateral.IsZero() && adj.SetToZero == ZeroNone {
			adj.SetToZero = ZeroCollateral
		}
	}
	return adj, true
}

func (t Trove) debtChange(edited Trove, borrowingRate decimal.Decimal, p *AdjustmentParams) {
	if edited.Debt.GreaterThan(t.Debt) {
		p.BorrowLUSD = amount(UnapplyFee(borrowingRate, edited.Debt.Sub(t.Debt)))
		return
	}
	p.RepayLUSD = amount(t.Debt.Sub(edited.Debt))
}

func (t Trove) collateralChange(edited Trove, p *AdjustmentParams) {
	if edited.Collateral.GreaterThan(t.Collateral) {
		p.DepositCollateral = amount(edited.Collateral.Sub(t.Collateral))
		return
	}
	p.WithdrawCollateral = amount(t.Collateral.Sub(edited.Collateral))
}

// Apply returns the trove that results from executing change against t.
// A nil change returns t unchanged.
func (t Trove) Apply(change TroveChange, borrowingRate, reserve decimal.Decimal) (Trove, error) {
	switch c := change.(type) {
	case nil:
		return t, nil

	case InvalidCreation:
		if !t.IsEmpty() {
			return Trove{}, ErrTroveExists
		}
		return c.InvalidTrove, nil

	case Creation:
		if !t.IsEmpty() {
			return Trove{}, ErrTroveExists
		}
		return Trove{
			Collateral: c.DepositCollateral,
			Debt:       reserve.Add(ApplyFee(borrowingRate, c.BorrowLUSD)),
		}, nil

	case Closure:
		if t.IsEmpty() {
			return Trove{}, ErrTroveEmpty
		}
		return EmptyTrove, nil

	case Adjustment:
		if err := c.AdjustmentParams.Validate(); err != nil {
			return Trove{}, err
		}
		collateralIncrease := valueOrZero(c.DepositCollateral)
		collateralDecrease := valueOrZero(c.WithdrawCollateral)
		debtDecrease := valueOrZero(c.RepayLUSD)
		debtIncrease := decimal.Zero
		if c.BorrowLUSD != nil {
			debtIncrease = ApplyFee(borrowingRate, *c.BorrowLUSD)
		}

		switch c.SetToZero {
		case ZeroCollateral:
			return t.SetCollateral(decimal.Zero).AddDebt(debtIncrease).SubtractDebt(debtDecrease), nil
		case ZeroDebt:
			return t.SetDebt(decimal.Zero).AddCollateral(collateralIncrease).SubtractCollateral(collateralDecrease), nil
		default:
			return t.Add(Trove{Collateral: collateralIncrease, Debt: debtIncrease}).
				Subtract(Trove{Collateral: collateralDecrease, Debt: debtDecrease}), nil
		}

	default:
		return Trove{}, fmt.Errorf("%w: unknown change %T", ErrInvalidChange, change)
	}
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
