package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trove_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists troves, the system snapshot, balances and the
// validation audit log in SQLite.
type Storage struct {
	db *gorm.DB
}

var (
	_ domain.TroveRepository    = (*Storage)(nil)
	_ domain.SnapshotRepository = (*Storage)(nil)
	_ domain.ValidationLog      = (*Storage)(nil)
)

// NewStorage opens (creating if needed) the SQLite database at dbPath
func NewStorage(dbPath string) (*Storage, error) {
	// Ensure directory exists
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&TroveRecord{}, &SnapshotRecord{}, &BalanceRecord{}, &ValidationRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Trove Operations
// ======================================================================================

// SaveTrove creates or updates a user's trove
func (s *Storage) SaveTrove(ctx context.Context, t domain.UserTrove) error {
	if err := t.Trove.Check(); err != nil {
		return err
	}
	rec := troveToRecord(t)
	return s.db.WithContext(ctx).Save(&rec).Error
}

// GetTrove retrieves a trove by owner. Returns nil, nil when not found.
func (s *Storage) GetTrove(ctx context.Context, owner string) (*domain.UserTrove, error) {
	var rec TroveRecord
	err := s.db.WithContext(ctx).First(&rec, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	t, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTroves retrieves all troves ordered by owner
func (s *Storage) ListTroves(ctx context.Context) ([]domain.UserTrove, error) {
	var recs []TroveRecord
	if err := s.db.WithContext(ctx).Order("owner").Find(&recs).Error; err != nil {
		return nil, err
	}

	troves := make([]domain.UserTrove, 0, len(recs))
	for _, rec := range recs {
		t, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		troves = append(troves, t)
	}
	return troves, nil
}

// CountOpenTroves counts troves with status open
func (s *Storage) CountOpenTroves(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&TroveRecord{}).
		Where("status = ?", string(domain.TroveStatusOpen)).
		Count(&n).Error
	return n, err
}

// ======================================================================================
// Snapshot & Balance Operations
// ======================================================================================

// SaveSnapshot replaces the stored system snapshot
func (s *Storage) SaveSnapshot(ctx context.Context, snap domain.SystemSnapshot) error {
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	rec := SnapshotRecord{
		ID:              snapshotID,
		Price:           snap.Price.String(),
		TotalCollateral: snap.Total.Collateral.String(),
		TotalDebt:       snap.Total.Debt.String(),
		NumberOfTroves:  snap.NumberOfTroves,
		BorrowingRate:   snap.BorrowingRate.String(),
		UpdatedAt:       updatedAt,
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

// LoadSnapshot returns the stored snapshot, or nil, nil if none was saved
func (s *Storage) LoadSnapshot(ctx context.Context) (*domain.SystemSnapshot, error) {
	var rec SnapshotRecord
	err := s.db.WithContext(ctx).First(&rec, snapshotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveBalance creates or updates an account balance
func (s *Storage) SaveBalance(ctx context.Context, b domain.AccountBalance) error {
	if b.Collateral.IsNegative() || b.LUSD.IsNegative() {
		return fmt.Errorf("%w: negative balance for %s", domain.ErrInvalidAmount, b.Owner)
	}
	rec := BalanceRecord{
		Owner:      b.Owner,
		Collateral: b.Collateral.String(),
		LUSD:       b.LUSD.String(),
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

// ListBalances retrieves all stored balances
func (s *Storage) ListBalances(ctx context.Context) ([]domain.AccountBalance, error) {
	var recs []BalanceRecord
	if err := s.db.WithContext(ctx).Order("owner").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AccountBalance, 0, len(recs))
	for _, rec := range recs {
		b, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// GetBalance retrieves an account balance. Returns nil, nil when not found.
func (s *Storage) GetBalance(ctx context.Context, owner string) (*domain.AccountBalance, error) {
	var rec BalanceRecord
	err := s.db.WithContext(ctx).First(&rec, "owner = ?", owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ======================================================================================
// Validation Log Operations
// ======================================================================================

// RecordValidation appends an audit entry
func (s *Storage) RecordValidation(ctx context.Context, e domain.ValidationEntry) error {
	rec := ValidationRecord{
		Owner:      e.Owner,
		ChangeKind: e.ChangeKind,
		Outcome:    e.Outcome,
		Rejection:  e.Rejection,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// RecentValidations returns up to limit entries, newest first
func (s *Storage) RecentValidations(ctx context.Context, owner string, limit int) ([]domain.ValidationEntry, error) {
	q := s.db.WithContext(ctx).Order("id desc").Limit(limit)
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}

	var recs []ValidationRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}

	entries := make([]domain.ValidationEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, domain.ValidationEntry{
			Owner:      r.Owner,
			ChangeKind: r.ChangeKind,
			Outcome:    r.Outcome,
			Rejection:  r.Rejection,
			Detail:     r.Detail,
			CreatedAt:  r.CreatedAt,
		})
	}
	return entries, nil
}
