package validation

import (
	"fmt"

	"trove_go/internal/domain"

	"github.com/shopspring/decimal"
)

// State is the slice of external state a validation reads: the system
// snapshot plus the editing account's balances.
type State struct {
	Price          decimal.Decimal `json:"price" yaml:"price"`
	Total          domain.Trove    `json:"total" yaml:"total"`
	AccountBalance decimal.Decimal `json:"account_balance" yaml:"account_balance"`
	LUSDBalance    decimal.Decimal `json:"lusd_balance" yaml:"lusd_balance"`
	NumberOfTroves int             `json:"number_of_troves" yaml:"number_of_troves"`
}

// StateFrom assembles a State from a stored snapshot and balance.
func StateFrom(snap domain.SystemSnapshot, bal domain.AccountBalance) State {
	return State{
		Price:          snap.Price,
		Total:          snap.Total,
		AccountBalance: bal.Collateral,
		LUSDBalance:    bal.LUSD,
		NumberOfTroves: snap.NumberOfTroves,
	}
}

func (s State) check() error {
	if !s.Price.IsPositive() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPrice, s.Price)
	}
	if err := s.Total.Check(); err != nil {
		return fmt.Errorf("total: %w", err)
	}
	if s.AccountBalance.IsNegative() || s.LUSDBalance.IsNegative() {
		return fmt.Errorf("%w: negative balance", domain.ErrInvalidAmount)
	}
	if s.NumberOfTroves < 0 {
		return fmt.Errorf("%w: number of troves %d", domain.ErrInvalidAmount, s.NumberOfTroves)
	}
	return nil
}

// Context is derived once per validation and shared by the kind-specific
// checks.
type Context struct {
	State
	Original  domain.Trove `json:"original"`
	Resulting domain.Trove `json:"resulting"`
	// RecoveryMode: the total collateral ratio is already below critical.
	RecoveryMode bool `json:"recovery_mode"`
	// WouldTriggerRecoveryMode: replacing Original with Resulting in the
	// total pushes the total ratio below critical.
	WouldTriggerRecoveryMode bool `json:"would_trigger_recovery_mode"`
}
