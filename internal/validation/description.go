package validation

import (
	"fmt"

	"trove_go/internal/domain"
	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
)

// Action is the combination of amounts an accepted change moves.
type Action int

const (
	ActionDepositAndBorrow Action = iota + 1
	ActionRepayAndWithdraw
	ActionDepositAndRepay
	ActionBorrowAndWithdraw
	ActionDeposit
	ActionWithdraw
	ActionBorrow
	ActionRepay
)

// String returns the string representation of Action
func (a Action) String() string {
	switch a {
	case ActionDepositAndBorrow:
		return "deposit_and_borrow"
	case ActionRepayAndWithdraw:
		return "repay_and_withdraw"
	case ActionDepositAndRepay:
		return "deposit_and_repay"
	case ActionBorrowAndWithdraw:
		return "borrow_and_withdraw"
	case ActionDeposit:
		return "deposit"
	case ActionWithdraw:
		return "withdraw"
	case ActionBorrow:
		return "borrow"
	case ActionRepay:
		return "repay"
	default:
		return "unknown"
	}
}

// Description is the structured effect of an accepted change. Amounts not
// involved in Action are zero.
type Description struct {
	Action             Action          `json:"action"`
	DepositCollateral  decimal.Decimal `json:"deposit_collateral"`
	WithdrawCollateral decimal.Decimal `json:"withdraw_collateral"`
	BorrowLUSD         decimal.Decimal `json:"borrow_lusd"`
	RepayLUSD          decimal.Decimal `json:"repay_lusd"`
}

// Describe picks the Action for p. Pairs are checked before single amounts,
// in the order deposit+borrow, repay+withdraw, deposit+repay,
// borrow+withdraw.
func Describe(p domain.AdjustmentParams) Description {
	desc := Description{
		DepositCollateral:  valueOf(p.DepositCollateral),
		WithdrawCollateral: valueOf(p.WithdrawCollateral),
		BorrowLUSD:         valueOf(p.BorrowLUSD),
		RepayLUSD:          valueOf(p.RepayLUSD),
	}

	deposit, withdraw := p.DepositCollateral != nil, p.WithdrawCollateral != nil
	borrow, repay := p.BorrowLUSD != nil, p.RepayLUSD != nil

	switch {
	case deposit && borrow:
		desc.Action = ActionDepositAndBorrow
	case repay && withdraw:
		desc.Action = ActionRepayAndWithdraw
	case deposit && repay:
		desc.Action = ActionDepositAndRepay
	case borrow && withdraw:
		desc.Action = ActionBorrowAndWithdraw
	case deposit:
		desc.Action = ActionDeposit
	case withdraw:
		desc.Action = ActionWithdraw
	case borrow:
		desc.Action = ActionBorrow
	default:
		desc.Action = ActionRepay
	}
	return desc
}

// String renders the description as a sentence.
func (d Description) String() string {
	eth := func(v decimal.Decimal) string { return quant.Prettify(v, 2) + " ETH" }
	lusd := func(v decimal.Decimal) string { return quant.Prettify(v, 2) + " LUSD" }

	switch d.Action {
	case ActionDepositAndBorrow:
		return fmt.Sprintf("You will deposit %s and receive %s", eth(d.DepositCollateral), lusd(d.BorrowLUSD))
	case ActionRepayAndWithdraw:
		return fmt.Sprintf("You will pay %s and receive %s", lusd(d.RepayLUSD), eth(d.WithdrawCollateral))
	case ActionDepositAndRepay:
		return fmt.Sprintf("You will deposit %s and pay %s", eth(d.DepositCollateral), lusd(d.RepayLUSD))
	case ActionBorrowAndWithdraw:
		return fmt.Sprintf("You will receive %s and %s", eth(d.WithdrawCollateral), lusd(d.BorrowLUSD))
	case ActionDeposit:
		return "You will deposit " + eth(d.DepositCollateral)
	case ActionWithdraw:
		return "You will receive " + eth(d.WithdrawCollateral)
	case ActionBorrow:
		return "You will receive " + lusd(d.BorrowLUSD)
	default:
		return "You will pay " + lusd(d.RepayLUSD)
	}
}

func valueOf(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return *p
}
