package storage

import (
	"fmt"
	"time"

	"trove_go/internal/domain"
	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
)

// Amounts are stored as decimal strings so no precision is lost in SQLite.

// TroveRecord is one owner's trove.
type TroveRecord struct {
	Owner      string `gorm:"primaryKey"`
	Collateral string `gorm:"type:text;not null"`
	Debt       string `gorm:"type:text;not null"`
	Status     string `gorm:"index;not null"`
	UpdatedAt  time.Time
}

// SnapshotRecord holds the single system snapshot row.
type SnapshotRecord struct {
	ID              uint   `gorm:"primaryKey"`
	Price           string `gorm:"type:text"`
	TotalCollateral string `gorm:"type:text"`
	TotalDebt       string `gorm:"type:text"`
	NumberOfTroves  int
	BorrowingRate   string `gorm:"type:text"`
	UpdatedAt       time.Time
}

// BalanceRecord is an account's free collateral and LUSD.
type BalanceRecord struct {
	Owner      string `gorm:"primaryKey"`
	Collateral string `gorm:"type:text"`
	LUSD       string `gorm:"type:text"`
	UpdatedAt  time.Time
}

// ValidationRecord is an audit row per validation.
type ValidationRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Owner      string `gorm:"index"`
	ChangeKind string
	Outcome    string `gorm:"index"`
	Rejection  string
	Detail     string
	CreatedAt  time.Time
}

const snapshotID = 1

func troveToRecord(t domain.UserTrove) TroveRecord {
	return TroveRecord{
		Owner:      t.Owner,
		Collateral: t.Trove.Collateral.String(),
		Debt:       t.Trove.Debt.String(),
		Status:     string(t.Status),
	}
}

func (r TroveRecord) toDomain() (domain.UserTrove, error) {
	coll, err := parseColumn("collateral", r.Collateral)
	if err != nil {
		return domain.UserTrove{}, err
	}
	debt, err := parseColumn("debt", r.Debt)
	if err != nil {
		return domain.UserTrove{}, err
	}
	status := domain.TroveStatus(r.Status)
	if !status.Valid() {
		return domain.UserTrove{}, fmt.Errorf("trove %s: unknown status %q", r.Owner, r.Status)
	}
	return domain.UserTrove{Owner: r.Owner, Trove: domain.NewTrove(coll, debt), Status: status}, nil
}

func (r SnapshotRecord) toDomain() (domain.SystemSnapshot, error) {
	var (
		snap domain.SystemSnapshot
		err  error
		coll decimal.Decimal
		debt decimal.Decimal
	)
	if snap.Price, err = parseColumn("price", r.Price); err != nil {
		return snap, err
	}
	if coll, err = parseColumn("total_collateral", r.TotalCollateral); err != nil {
		return snap, err
	}
	if debt, err = parseColumn("total_debt", r.TotalDebt); err != nil {
		return snap, err
	}
	if snap.BorrowingRate, err = parseColumn("borrowing_rate", r.BorrowingRate); err != nil {
		return snap, err
	}
	snap.Total = domain.NewTrove(coll, debt)
	snap.NumberOfTroves = r.NumberOfTroves
	snap.UpdatedAt = r.UpdatedAt
	return snap, nil
}

func (r BalanceRecord) toDomain() (domain.AccountBalance, error) {
	coll, err := parseColumn("collateral", r.Collateral)
	if err != nil {
		return domain.AccountBalance{}, err
	}
	lusd, err := parseColumn("lusd", r.LUSD)
	if err != nil {
		return domain.AccountBalance{}, err
	}
	return domain.AccountBalance{Owner: r.Owner, Collateral: coll, LUSD: lusd}, nil
}

func parseColumn(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := quant.Parse(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("column %s: %w", name, err)
	}
	return d, nil
}
