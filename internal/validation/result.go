package validation

import (
	"trove_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Result is the outcome of one validation. Exactly one of three shapes:
// no change (all fields nil), rejected (Rejection set) or accepted (Change
// and Description set). Context is set whenever the change was reapplied.
type Result struct {
	Change      domain.ValidTroveChange
	Description *Description
	Rejection   *Rejection
	Context     *Context
}

// NoChange reports whether the proposed trove equals the original.
func (r Result) NoChange() bool {
	return r.Change == nil && r.Rejection == nil
}

// Accepted reports whether the change may be submitted.
func (r Result) Accepted() bool {
	return r.Change != nil
}

// Rejected reports whether a rule refused the change.
func (r Result) Rejected() bool {
	return r.Rejection != nil
}

// Outcome is "accepted", "rejected" or "no_change".
func (r Result) Outcome() string {
	switch {
	case r.Accepted():
		return "accepted"
	case r.Rejected():
		return "rejected"
	default:
		return "no_change"
	}
}

// ChangeKind names the classified change, or "none".
func (r Result) ChangeKind() string {
	switch {
	case r.Change != nil:
		return r.Change.Kind().String()
	case r.Rejection != nil:
		return r.Rejection.Change.String()
	default:
		return "none"
	}
}

// Report is a flat, serialisable view of a Result.
type Report struct {
	Outcome      string                   `json:"outcome" yaml:"outcome"`
	ChangeKind   string                   `json:"change_kind" yaml:"change_kind"`
	Amounts      *domain.AdjustmentParams `json:"amounts,omitempty" yaml:"amounts,omitempty"`
	Action       string                   `json:"action,omitempty" yaml:"action,omitempty"`
	Description  string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Rejection    string                   `json:"rejection,omitempty" yaml:"rejection,omitempty"`
	Message      string                   `json:"message,omitempty" yaml:"message,omitempty"`
	Deficit      *decimal.Decimal         `json:"deficit,omitempty" yaml:"deficit,omitempty"`
	Resulting    *domain.Trove            `json:"resulting,omitempty" yaml:"resulting,omitempty"`
	RecoveryMode bool                     `json:"recovery_mode" yaml:"recovery_mode"`
}

// Report flattens r.
func (r Result) Report() Report {
	rep := Report{Outcome: r.Outcome(), ChangeKind: r.ChangeKind()}

	if r.Change != nil {
		amounts := r.Change.Amounts()
		rep.Amounts = &amounts
	}
	if r.Description != nil {
		rep.Action = r.Description.Action.String()
		rep.Description = r.Description.String()
	}
	if r.Rejection != nil {
		rep.Rejection = r.Rejection.Kind.String()
		rep.Message = r.Rejection.Message()
		if !r.Rejection.Amount.IsZero() {
			deficit := r.Rejection.Amount
			rep.Deficit = &deficit
		}
	}
	if r.Context != nil {
		resulting := r.Context.Resulting
		rep.Resulting = &resulting
		rep.RecoveryMode = r.Context.RecoveryMode
	}
	return rep
}
