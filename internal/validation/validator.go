// Package validation decides whether a proposed trove edit may be submitted.
//
// Validate is a pure function of its inputs: it performs no I/O, keeps no
// state between calls and may be called concurrently.
package validation

import (
	"fmt"

	"trove_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Validator checks trove changes against a fixed set of protocol params.
type Validator struct {
	params domain.Params
}

// NewValidator creates a validator. params must already be valid.
func NewValidator(params domain.Params) *Validator {
	return &Validator{params: params}
}

// Params returns the protocol constants in use.
func (v *Validator) Params() domain.Params {
	return v.params
}

// Validate classifies the edit from original to proposed and checks it.
//
// The Result is empty when the troves are equal, carries a Rejection when a
// rule fails (first failure wins), and otherwise carries the change with its
// Description. The error is reserved for malformed inputs.
func (v *Validator) Validate(original, proposed domain.Trove, borrowingRate decimal.Decimal, state State) (Result, error) {
	if err := original.Check(); err != nil {
		return Result{}, fmt.Errorf("original trove: %w", err)
	}
	if err := proposed.Check(); err != nil {
		return Result{}, fmt.Errorf("proposed trove: %w", err)
	}
	if borrowingRate.IsNegative() {
		return Result{}, fmt.Errorf("%w: borrowing rate %s", domain.ErrInvalidAmount, borrowingRate)
	}
	if err := state.check(); err != nil {
		return Result{}, err
	}

	reserve := v.params.LiquidationReserve
	change, ok := original.WhatChanged(proposed, borrowingRate, reserve)
	if !ok {
		return Result{}, nil
	}

	if _, invalid := change.(domain.InvalidCreation); invalid {
		return Result{Rejection: &Rejection{
			Kind:      DebtBelowMinimum,
			Change:    domain.ChangeInvalidCreation,
			Threshold: v.params.MinimumDebt(),
		}}, nil
	}

	// Reapply the change rather than trusting proposed: unapplying the fee
	// rounds, so the submitted change may land slightly off the edit.
	resulting, err := original.Apply(change, borrowingRate, reserve)
	if err != nil {
		return Result{}, fmt.Errorf("apply %s: %w", change.Kind(), err)
	}

	ccr := v.params.CriticalCollateralRatio
	ctx := Context{
		State:                    state,
		Original:                 original,
		Resulting:                resulting,
		RecoveryMode:             state.Total.CollateralRatioIsBelow(state.Price, ccr),
		WouldTriggerRecoveryMode: state.Total.Subtract(original).Add(resulting).CollateralRatioIsBelow(state.Price, ccr),
	}

	var rejection *Rejection
	switch c := change.(type) {
	case domain.Creation:
		rejection = v.validateCreation(c, &ctx)
	case domain.Adjustment:
		rejection = v.validateAdjustment(c, &ctx)
	case domain.Closure:
		rejection = v.validateClosure(c, &ctx)
	default:
		return Result{}, fmt.Errorf("%w: unexpected change %T", domain.ErrInvalidChange, change)
	}

	if rejection != nil {
		rejection.Change = change.Kind()
		return Result{Rejection: rejection, Context: &ctx}, nil
	}

	valid := change.(domain.ValidTroveChange)
	desc := Describe(valid.Amounts())
	return Result{Change: valid, Description: &desc, Context: &ctx}, nil
}

func (v *Validator) validateCreation(c domain.Creation, ctx *Context) *Rejection {
	p := v.params

	if c.BorrowLUSD.LessThan(p.MinimumNetDebt) {
		return &Rejection{Kind: NetDebtBelowMinimum, Threshold: p.MinimumNetDebt}
	}

	if ctx.RecoveryMode {
		if !ctx.Resulting.IsOpenableInRecoveryMode(ctx.Price, p.CriticalCollateralRatio) {
			return &Rejection{Kind: BelowCriticalRatioInRecovery, Threshold: p.CriticalCollateralRatio}
		}
	} else {
		if ctx.Resulting.CollateralRatioIsBelow(ctx.Price, p.MinimumCollateralRatio) {
			return &Rejection{Kind: BelowMinimumRatio, Threshold: p.MinimumCollateralRatio}
		}
		if ctx.WouldTriggerRecoveryMode {
			return &Rejection{Kind: WouldTriggerRecoveryMode, Threshold: p.CriticalCollateralRatio}
		}
	}

	if c.DepositCollateral.GreaterThan(ctx.AccountBalance) {
		return &Rejection{Kind: InsufficientBalance, Amount: c.DepositCollateral.Sub(ctx.AccountBalance)}
	}
	return nil
}

func (v *Validator) validateAdjustment(a domain.Adjustment, ctx *Context) *Rejection {
	p := v.params

	if ctx.RecoveryMode {
		if a.WithdrawCollateral != nil {
			return &Rejection{Kind: WithdrawalDuringRecovery}
		}
		if a.BorrowLUSD != nil {
			if ctx.Resulting.CollateralRatioIsBelow(ctx.Price, p.CriticalCollateralRatio) {
				return &Rejection{Kind: BelowCriticalRatioInRecovery, Threshold: p.CriticalCollateralRatio}
			}
			if ctx.Resulting.CollateralRatio(ctx.Price).LessThan(ctx.Original.CollateralRatio(ctx.Price)) {
				return &Rejection{Kind: RatioDecreaseDuringRecovery}
			}
		}
	} else {
		if ctx.Resulting.CollateralRatioIsBelow(ctx.Price, p.MinimumCollateralRatio) {
			return &Rejection{Kind: BelowMinimumRatio, Threshold: p.MinimumCollateralRatio}
		}
		if ctx.WouldTriggerRecoveryMode {
			return &Rejection{Kind: WouldTriggerRecoveryMode, Threshold: p.CriticalCollateralRatio}
		}
	}

	if a.RepayLUSD != nil {
		if ctx.Resulting.Debt.LessThan(p.MinimumDebt()) {
			return &Rejection{Kind: DebtBelowMinimum, Threshold: p.MinimumDebt()}
		}
		if a.RepayLUSD.GreaterThan(ctx.LUSDBalance) {
			return &Rejection{Kind: InsufficientStableBalance, Amount: a.RepayLUSD.Sub(ctx.LUSDBalance)}
		}
	}

	if a.DepositCollateral != nil && a.DepositCollateral.GreaterThan(ctx.AccountBalance) {
		return &Rejection{Kind: InsufficientBalance, Amount: a.DepositCollateral.Sub(ctx.AccountBalance)}
	}
	return nil
}

func (v *Validator) validateClosure(c domain.Closure, ctx *Context) *Rejection {
	if ctx.NumberOfTroves == 1 {
		return &Rejection{Kind: LastPositionCannotClose}
	}
	if ctx.RecoveryMode {
		return &Rejection{Kind: ClosureDuringRecovery}
	}
	if c.RepayLUSD != nil && c.RepayLUSD.GreaterThan(ctx.LUSDBalance) {
		return &Rejection{Kind: InsufficientStableBalance, Amount: c.RepayLUSD.Sub(ctx.LUSDBalance)}
	}
	if ctx.WouldTriggerRecoveryMode {
		return &Rejection{Kind: WouldTriggerRecoveryMode, Threshold: v.params.CriticalCollateralRatio}
	}
	return nil
}
