// Package editor tracks an in-progress edit of a trove: the collateral and
// net debt the user has typed, the fee and total debt they imply, and how the
// edit survives the on-chain trove changing underneath it.
package editor

import (
	"trove_go/internal/domain"
	"trove_go/internal/validation"
	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
)

var (
	// GasRoom is collateral kept back from the max so the account can still
	// pay for the transaction.
	GasRoom = quant.MustParse("0.1")

	// BorrowingRateSlippage is added to the current rate to form the max
	// rate submitted with a change.
	BorrowingRateSlippage = quant.MustParse("0.005")
)

// Editor holds the edited amounts for one trove. Not safe for concurrent use.
type Editor struct {
	params     domain.Params
	trove      domain.Trove
	collateral decimal.Decimal
	netDebt    decimal.Decimal
}

// New starts an edit of trove with nothing changed.
func New(trove domain.Trove, params domain.Params) *Editor {
	e := &Editor{params: params, trove: trove}
	e.Reset()
	return e
}

// Trove is the on-chain trove the edit is based on.
func (e *Editor) Trove() domain.Trove { return e.trove }

func (e *Editor) Collateral() decimal.Decimal { return e.collateral }

func (e *Editor) NetDebt() decimal.Decimal { return e.netDebt }

// SetCollateral replaces the edited collateral.
func (e *Editor) SetCollateral(d decimal.Decimal) error {
	if d.IsNegative() {
		return quant.ErrNegative
	}
	e.collateral = quant.Truncate(d)
	return nil
}

// SetNetDebt replaces the edited net debt.
func (e *Editor) SetNetDebt(d decimal.Decimal) error {
	if d.IsNegative() {
		return quant.ErrNegative
	}
	e.netDebt = quant.Truncate(d)
	return nil
}

// Reset discards the edit.
func (e *Editor) Reset() {
	e.collateral = e.trove.Collateral
	e.netDebt = e.baseNetDebt(e.trove)
}

// IsDirty reports whether either amount differs from the trove.
func (e *Editor) IsDirty() bool {
	return !e.collateral.Equal(e.trove.Collateral) || !e.netDebt.Equal(e.baseNetDebt(e.trove))
}

// DebtIncrease is the net debt added by the edit, or zero.
func (e *Editor) DebtIncrease() decimal.Decimal {
	return quant.SubFloor(e.netDebt, e.baseNetDebt(e.trove))
}

// Fee is the borrowing fee charged on the debt increase at borrowingRate.
func (e *Editor) Fee(borrowingRate decimal.Decimal) decimal.Decimal {
	increase := e.DebtIncrease()
	if increase.IsZero() {
		return decimal.Zero
	}
	return quant.Mul(domain.UnapplyFee(borrowingRate, increase), borrowingRate)
}

// TotalDebt is net debt plus liquidation reserve plus fee.
func (e *Editor) TotalDebt(borrowingRate decimal.Decimal) decimal.Decimal {
	return e.netDebt.Add(e.params.LiquidationReserve).Add(e.Fee(borrowingRate))
}

// Edited is the proposed trove, or the original trove when nothing changed.
func (e *Editor) Edited(borrowingRate decimal.Decimal) domain.Trove {
	if !e.IsDirty() {
		return e.trove
	}
	return domain.NewTrove(e.collateral, e.TotalDebt(borrowingRate))
}

// MaxCollateral is the most collateral the account can hold in the trove.
func (e *Editor) MaxCollateral(accountBalance decimal.Decimal) decimal.Decimal {
	return e.trove.Collateral.Add(quant.SubFloor(accountBalance, GasRoom))
}

// CollateralMaxedOut reports whether the edit already uses MaxCollateral.
func (e *Editor) CollateralMaxedOut(accountBalance decimal.Decimal) bool {
	return e.collateral.Equal(e.MaxCollateral(accountBalance))
}

// MaxBorrowingRate is the rate ceiling to submit alongside a change.
func MaxBorrowingRate(borrowingRate decimal.Decimal) decimal.Decimal {
	return borrowingRate.Add(BorrowingRateSlippage)
}

// CollateralRatio of the edited trove. ok is false while either edited
// amount is zero.
func (e *Editor) CollateralRatio(price, borrowingRate decimal.Decimal) (ratio decimal.Decimal, ok bool) {
	if e.collateral.IsZero() || e.netDebt.IsZero() {
		return decimal.Zero, false
	}
	return e.Edited(borrowingRate).CollateralRatio(price), true
}

// CollateralRatioChange is the signed change from the trove's current
// ratio. ok is false when either side is undefined or infinite.
func (e *Editor) CollateralRatioChange(price, borrowingRate decimal.Decimal) (delta decimal.Decimal, ok bool) {
	edited, ok := e.CollateralRatio(price, borrowingRate)
	if !ok {
		return decimal.Zero, false
	}
	current := e.trove.CollateralRatio(price)
	if quant.IsInfinite(edited) || quant.IsInfinite(current) {
		return decimal.Zero, false
	}
	return edited.Sub(current), true
}

// Rebase moves the edit onto an updated on-chain trove, carrying over the
// unsaved deltas. A decrease that no longer fits the new amount is dropped.
func (e *Editor) Rebase(updated domain.Trove) {
	prev := e.trove
	if !prev.Collateral.Equal(updated.Collateral) {
		e.collateral = carry(e.collateral.Sub(prev.Collateral), updated.Collateral)
	}
	if prevNet, nextNet := e.baseNetDebt(prev), e.baseNetDebt(updated); !prevNet.Equal(nextNet) {
		e.netDebt = carry(e.netDebt.Sub(prevNet), nextNet)
	}
	e.trove = updated
}

// Validate checks the edit as it stands.
func (e *Editor) Validate(v *validation.Validator, borrowingRate decimal.Decimal, state validation.State) (validation.Result, error) {
	return v.Validate(e.trove, e.Edited(borrowingRate), borrowingRate, state)
}

func (e *Editor) baseNetDebt(t domain.Trove) decimal.Decimal {
	if t.Debt.LessThan(e.params.LiquidationReserve) {
		return decimal.Zero
	}
	return t.NetDebt(e.params.LiquidationReserve)
}

func carry(delta, base decimal.Decimal) decimal.Decimal {
	switch delta.Sign() {
	case 1:
		return base.Add(delta)
	case -1:
		if delta.Abs().LessThan(base) {
			return base.Add(delta)
		}
	}
	return base
}
