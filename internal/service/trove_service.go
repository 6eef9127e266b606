package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"trove_go/internal/domain"
	"trove_go/internal/infra"
	"trove_go/internal/validation"

	"github.com/shopspring/decimal"
)

// Repository is the persistence the service hydrates from and saves to.
type Repository interface {
	domain.TroveRepository
	domain.SnapshotRepository
}

// TroveService holds the latest system snapshot, account balances and
// troves, and validates edits against them on demand.
type TroveService struct {
	mu        sync.RWMutex
	validator *validation.Validator
	snapshot  domain.SystemSnapshot
	balances  map[string]domain.AccountBalance
	troves    map[string]domain.UserTrove
	priceChan chan decimal.Decimal

	metrics *infra.Metrics
	audit   domain.ValidationLog
}

// NewTroveService creates a service with an empty snapshot at borrowingRate.
func NewTroveService(validator *validation.Validator, borrowingRate decimal.Decimal) *TroveService {
	return &TroveService{
		validator: validator,
		snapshot: domain.SystemSnapshot{
			Total:         domain.EmptyTrove,
			BorrowingRate: borrowingRate,
		},
		balances:  make(map[string]domain.AccountBalance),
		troves:    make(map[string]domain.UserTrove),
		priceChan: make(chan decimal.Decimal, 64), // 버스트 대응을 위한 버퍼
	}
}

// SetMetrics attaches a metrics sink. Call before use.
func (s *TroveService) SetMetrics(m *infra.Metrics) {
	s.metrics = m
}

// SetValidationLog attaches an audit log. Call before use.
func (s *TroveService) SetValidationLog(log domain.ValidationLog) {
	s.audit = log
}

// UpdatePrice sets the collateral price
func (s *TroveService) UpdatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPrice, price)
	}

	s.mu.Lock()
	s.snapshot.Price = price
	s.snapshot.UpdatedAt = time.Now()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetPrice(price.InexactFloat64())
	}
	return nil
}

// UpdateTotal sets the system-wide totals
func (s *TroveService) UpdateTotal(total domain.Trove, numberOfTroves int) error {
	if err := total.Check(); err != nil {
		return fmt.Errorf("total: %w", err)
	}
	if numberOfTroves < 0 {
		return fmt.Errorf("%w: number of troves %d", domain.ErrInvalidAmount, numberOfTroves)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Total = total
	s.snapshot.NumberOfTroves = numberOfTroves
	s.snapshot.UpdatedAt = time.Now()
	return nil
}

// UpdateBalances sets an account's free collateral and LUSD
func (s *TroveService) UpdateBalances(owner string, collateral, lusd decimal.Decimal) error {
	if collateral.IsNegative() || lusd.IsNegative() {
		return fmt.Errorf("%w: negative balance for %s", domain.ErrInvalidAmount, owner)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[owner] = domain.AccountBalance{Owner: owner, Collateral: collateral, LUSD: lusd}
	return nil
}

// SetBorrowingRate sets the current borrowing rate
func (s *TroveService) SetBorrowingRate(rate decimal.Decimal) error {
	p := s.validator.Params()
	if rate.LessThan(p.MinimumBorrowingRate) || rate.GreaterThan(p.MaximumBorrowingRate) {
		return fmt.Errorf("%w: borrowing rate %s outside [%s, %s]",
			domain.ErrInvalidAmount, rate, p.MinimumBorrowingRate, p.MaximumBorrowingRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.BorrowingRate = rate
	return nil
}

// PutTrove stores an owner's on-chain trove
func (s *TroveService) PutTrove(t domain.UserTrove) error {
	if err := t.Trove.Check(); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidChange, t.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.troves[t.Owner] = t
	return nil
}

// Trove returns the owner's trove. Unknown owners get an empty,
// non-existent trove.
func (s *TroveService) Trove(owner string) domain.UserTrove {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.troveLocked(owner)
}

func (s *TroveService) troveLocked(owner string) domain.UserTrove {
	t, ok := s.troves[owner]
	if !ok {
		return domain.UserTrove{Owner: owner, Trove: domain.EmptyTrove, Status: domain.TroveStatusNonExistent}
	}
	return t
}

// Troves returns all known troves sorted by owner
func (s *TroveService) Troves() []domain.UserTrove {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UserTrove, 0, len(s.troves))
	for _, t := range s.troves {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Owner < result[j].Owner
	})
	return result
}

// Snapshot returns the current system snapshot
func (s *TroveService) Snapshot() domain.SystemSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// State returns the validation state seen by owner
func (s *TroveService) State(owner string) validation.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return validation.StateFrom(s.snapshot, s.balances[owner])
}

// ValidateEdit validates replacing owner's trove with proposed against the
// current snapshot. A trove that is not open counts as empty.
func (s *TroveService) ValidateEdit(ctx context.Context, owner string, proposed domain.Trove) (validation.Result, error) {
	s.mu.RLock()
	ut := s.troveLocked(owner)
	state := validation.StateFrom(s.snapshot, s.balances[owner])
	rate := s.snapshot.BorrowingRate
	s.mu.RUnlock()

	original := ut.Trove
	if !ut.IsOpen() {
		original = domain.EmptyTrove
	}

	start := time.Now()
	res, err := s.validator.Validate(original, proposed, rate, state)
	elapsed := time.Since(start)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("validation")
		}
		return validation.Result{}, fmt.Errorf("validate %s: %w", owner, err)
	}

	rejection := ""
	detail := ""
	if res.Rejection != nil {
		rejection = res.Rejection.Kind.String()
		detail = res.Rejection.Message()
	} else if res.Description != nil {
		detail = res.Description.String()
	}

	if s.metrics != nil {
		s.metrics.RecordValidation(res.ChangeKind(), res.Outcome(), rejection, elapsed)
	}

	slog.Debug("Trove edit validated",
		slog.String("owner", owner),
		slog.String("change", res.ChangeKind()),
		slog.String("outcome", res.Outcome()),
		slog.String("rejection", rejection),
	)

	if s.audit != nil {
		entry := domain.ValidationEntry{
			Owner:      owner,
			ChangeKind: res.ChangeKind(),
			Outcome:    res.Outcome(),
			Rejection:  rejection,
			Detail:     detail,
			CreatedAt:  time.Now(),
		}
		if err := s.audit.RecordValidation(ctx, entry); err != nil {
			// The result stands even if auditing fails
			slog.Warn("Failed to record validation", slog.String("owner", owner), slog.Any("error", err))
			if s.metrics != nil {
				s.metrics.RecordError("audit")
			}
		}
	}

	return res, nil
}

// LoadFrom replaces the in-memory state with what repo holds
func (s *TroveService) LoadFrom(ctx context.Context, repo Repository) error {
	troves, err := repo.ListTroves(ctx)
	if err != nil {
		return fmt.Errorf("load troves: %w", err)
	}
	balances, err := repo.ListBalances(ctx)
	if err != nil {
		return fmt.Errorf("load balances: %w", err)
	}
	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.troves = make(map[string]domain.UserTrove, len(troves))
	for _, t := range troves {
		s.troves[t.Owner] = t
	}
	s.balances = make(map[string]domain.AccountBalance, len(balances))
	for _, b := range balances {
		s.balances[b.Owner] = b
	}
	if snap != nil {
		rate := s.snapshot.BorrowingRate
		s.snapshot = *snap
		if s.snapshot.BorrowingRate.IsZero() {
			s.snapshot.BorrowingRate = rate
		}
	}

	slog.Info("Trove state loaded",
		slog.Int("troves", len(troves)),
		slog.Int("balances", len(balances)),
		slog.Bool("snapshot", snap != nil),
	)
	return nil
}

// Persist writes the in-memory state to repo
func (s *TroveService) Persist(ctx context.Context, repo Repository) error {
	s.mu.RLock()
	snap := s.snapshot
	troves := make([]domain.UserTrove, 0, len(s.troves))
	for _, t := range s.troves {
		troves = append(troves, t)
	}
	balances := make([]domain.AccountBalance, 0, len(s.balances))
	for _, b := range s.balances {
		balances = append(balances, b)
	}
	s.mu.RUnlock()

	for _, t := range troves {
		if err := repo.SaveTrove(ctx, t); err != nil {
			return fmt.Errorf("save trove %s: %w", t.Owner, err)
		}
	}
	for _, b := range balances {
		if err := repo.SaveBalance(ctx, b); err != nil {
			return fmt.Errorf("save balance %s: %w", b.Owner, err)
		}
	}
	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// PriceChan returns the channel feeds push prices into
func (s *TroveService) PriceChan() chan<- decimal.Decimal {
	return s.priceChan
}

// PublishPrice hands a price to the processor without blocking. Returns
// false if the buffer is full and the price was dropped.
func (s *TroveService) PublishPrice(price decimal.Decimal) bool {
	select {
	case s.priceChan <- price:
		return true
	default:
		return false
	}
}

// StartPriceProcessor starts a background goroutine applying prices from
// the channel until ctx is done
func (s *TroveService) StartPriceProcessor(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case price := <-s.priceChan:
				if err := s.UpdatePrice(price); err != nil {
					slog.Warn("Dropping price update", slog.Any("error", err))
				}
			}
		}
	}()
}
