package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceFeed defines the interface for price sources (streaming or polling)
type PriceFeed interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// SystemSnapshot is the system-wide state a validation runs against.
type SystemSnapshot struct {
	Price          decimal.Decimal `json:"price" yaml:"price"`
	Total          Trove           `json:"total" yaml:"total"`
	NumberOfTroves int             `json:"number_of_troves" yaml:"number_of_troves"`
	BorrowingRate  decimal.Decimal `json:"borrowing_rate" yaml:"borrowing_rate"`
	UpdatedAt      time.Time       `json:"updated_at" yaml:"-"`
}

// AccountBalance is an account's free collateral and LUSD.
type AccountBalance struct {
	Owner      string          `json:"owner" yaml:"owner"`
	Collateral decimal.Decimal `json:"collateral" yaml:"collateral"`
	LUSD       decimal.Decimal `json:"lusd" yaml:"lusd"`
}

// ValidationEntry is one audited validation outcome.
type ValidationEntry struct {
	Owner      string
	ChangeKind string
	Outcome    string // "accepted", "rejected" or "no_change"
	Rejection  string
	Detail     string
	CreatedAt  time.Time
}

// TroveRepository defines how user troves are persisted.
type TroveRepository interface {
	SaveTrove(ctx context.Context, t UserTrove) error
	GetTrove(ctx context.Context, owner string) (*UserTrove, error)
	ListTroves(ctx context.Context) ([]UserTrove, error)
	CountOpenTroves(ctx context.Context) (int64, error)
}

// SnapshotRepository defines how system state and balances are persisted.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, s SystemSnapshot) error
	LoadSnapshot(ctx context.Context) (*SystemSnapshot, error)
	SaveBalance(ctx context.Context, b AccountBalance) error
	GetBalance(ctx context.Context, owner string) (*AccountBalance, error)
	ListBalances(ctx context.Context) ([]AccountBalance, error)
}

// ValidationLog records validation outcomes.
type ValidationLog interface {
	RecordValidation(ctx context.Context, e ValidationEntry) error
}
