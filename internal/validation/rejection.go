package validation

import (
	"fmt"

	"trove_go/internal/domain"
	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
)

// RejectionKind classifies why a change was refused.
type RejectionKind int

const (
	DebtBelowMinimum RejectionKind = iota + 1
	NetDebtBelowMinimum
	BelowMinimumRatio
	BelowCriticalRatioInRecovery
	WouldTriggerRecoveryMode
	WithdrawalDuringRecovery
	RatioDecreaseDuringRecovery
	InsufficientBalance
	InsufficientStableBalance
	LastPositionCannotClose
	ClosureDuringRecovery
)

var rejectionNames = map[RejectionKind]string{
	DebtBelowMinimum:             "debt_below_minimum",
	NetDebtBelowMinimum:          "net_debt_below_minimum",
	BelowMinimumRatio:            "below_minimum_ratio",
	BelowCriticalRatioInRecovery: "below_critical_ratio_in_recovery",
	WouldTriggerRecoveryMode:     "would_trigger_recovery_mode",
	WithdrawalDuringRecovery:     "withdrawal_during_recovery",
	RatioDecreaseDuringRecovery:  "ratio_decrease_during_recovery",
	InsufficientBalance:          "insufficient_balance",
	InsufficientStableBalance:    "insufficient_stable_balance",
	LastPositionCannotClose:      "last_position_cannot_close",
	ClosureDuringRecovery:        "closure_during_recovery",
}

// String returns the stable snake_case name used in logs and metrics.
func (k RejectionKind) String() string {
	if s, ok := rejectionNames[k]; ok {
		return s
	}
	return "unknown"
}

// Rejection is a refused change. It is an expected outcome, not an error.
type Rejection struct {
	Kind RejectionKind `json:"kind"`
	// Change is the kind of change that was refused; wording differs per kind.
	Change domain.ChangeKind `json:"change"`
	// Amount is the shortfall for the balance kinds.
	Amount decimal.Decimal `json:"amount"`
	// Threshold is the protocol constant that was violated, if any.
	Threshold decimal.Decimal `json:"threshold"`
}

// Message renders the rejection for a user.
func (r Rejection) Message() string {
	switch r.Kind {
	case DebtBelowMinimum:
		return fmt.Sprintf("Total debt must be at least %s LUSD", lusd(r.Threshold))
	case NetDebtBelowMinimum:
		return fmt.Sprintf("You must borrow at least %s LUSD", lusd(r.Threshold))
	case BelowMinimumRatio:
		return fmt.Sprintf("Collateral ratio must be at least %s", percent(r.Threshold))
	case BelowCriticalRatioInRecovery:
		if r.Change == domain.ChangeCreation {
			return fmt.Sprintf("You're not allowed to open a Trove with less than %s Collateral Ratio during recovery mode. Please increase your Trove's Collateral Ratio.", percent(r.Threshold))
		}
		return fmt.Sprintf("Your collateral ratio must be at least %s to borrow during recovery mode. Please improve your collateral ratio.", percent(r.Threshold))
	case WouldTriggerRecoveryMode:
		switch r.Change {
		case domain.ChangeCreation:
			return fmt.Sprintf("You're not allowed to open a Trove that would cause the Total Collateral Ratio to fall below %s. Please increase your Trove's Collateral Ratio.", percent(r.Threshold))
		case domain.ChangeClosure:
			return fmt.Sprintf("You're not allowed to close a Trove if it would cause the Total Collateralization Ratio to fall below %s. Please wait until the Total Collateral Ratio increases.", percent(r.Threshold))
		}
		return fmt.Sprintf("The adjustment you're trying to make would cause the Total Collateral Ratio to fall below %s. Please increase your Trove's Collateral Ratio.", percent(r.Threshold))
	case WithdrawalDuringRecovery:
		return "You're not allowed to withdraw collateral during recovery mode."
	case RatioDecreaseDuringRecovery:
		return "You're not allowed to decrease your collateral ratio during recovery mode."
	case InsufficientBalance:
		return fmt.Sprintf("The amount you're trying to deposit exceeds your balance by %s ETH", quant.Prettify(r.Amount, 2))
	case InsufficientStableBalance:
		if r.Change == domain.ChangeClosure {
			return fmt.Sprintf("You need %s LUSD more to close your Trove.", lusd(r.Amount))
		}
		return fmt.Sprintf("The amount you're trying to repay exceeds your balance by %s LUSD", lusd(r.Amount))
	case LastPositionCannotClose:
		return "You're not allowed to close your Trove when there are no other Troves in the system."
	case ClosureDuringRecovery:
		return "You're not allowed to close your Trove during recovery mode."
	}
	return r.Kind.String()
}

func (r Rejection) String() string {
	return r.Kind.String() + ": " + r.Message()
}

func lusd(d decimal.Decimal) string {
	return quant.Prettify(d, 2)
}

func percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}
