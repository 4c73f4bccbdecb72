package services

import (
	"context"
	"errors"
	"sync"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Aggregation errors
var (
	ErrCustomerNotFound = errors.New("customer not found")
)

// AggregationService keeps the derived aggregate fields on a customer
// consistent with that customer's loan set. It is the only writer of those
// fields; everything else treats them as a read-only cache.
type AggregationService struct {
	customerRepo repositories.CustomerRepository
	loanRepo     repositories.LoanRepository
	log          *zap.Logger

	// Per-customer recompute lock. Serializing recomputes for a customer
	// closes the stale-write race: each mutation's own recompute runs after
	// the mutation committed, and the last one to run reads the full loan
	// set and overwrites whatever an earlier racer wrote. Entries are
	// refcounted and evicted once the last holder releases.
	mu    sync.Mutex
	locks map[string]*customerLock
}

type customerLock struct {
	mu   sync.Mutex
	refs int
}

// NewAggregationService creates a new aggregation service
func NewAggregationService(
	customerRepo repositories.CustomerRepository,
	loanRepo repositories.LoanRepository,
	log *zap.Logger,
) *AggregationService {
	return &AggregationService{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		log:          log,
		locks:        make(map[string]*customerLock),
	}
}

// Recompute rebuilds the aggregate fields for one customer from its loans
// and persists them as a partial update. A missing customer is an error;
// aggregates are never upserted onto a customer that does not exist.
func (s *AggregationService) Recompute(ctx context.Context, customerID string) error {
	lock := s.lockFor(customerID)
	lock.mu.Lock()
	defer func() {
		lock.mu.Unlock()
		s.release(customerID, lock)
	}()

	// 1. Read the full loan set for the customer
	loans, err := s.loanRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}

	// 2. Fold the loan set into the aggregate fields
	agg := ComputeAggregates(loans)

	// 3. Persist as a partial update, untouched fields stay as they are
	if err := s.customerRepo.UpdateAggregates(ctx, customerID, agg); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}

	s.log.Debug("✅ customer aggregates recomputed",
		zap.String("customerId", customerID),
		zap.Int("activeLoansCount", agg.ActiveLoansCount))

	return nil
}

// ComputeAggregates folds a loan set into the derived customer fields.
// Active and defaulted loans drive the principal, outstanding and disbursed
// sums and the active count; the lifetime paid total spans every loan
// regardless of status.
func ComputeAggregates(loans []*models.Loan) *models.Aggregates {
	agg := &models.Aggregates{}

	for _, loan := range loans {
		agg.TotalPaidAmount += loan.PaidAmount

		if !loan.CountsTowardDue() {
			continue
		}
		agg.TotalLoanAmount += loan.Amount
		agg.CurrentDueAmount += loan.OutstandingAmount
		agg.TotalDisbursedAmount += loan.DisbursedAmount
		agg.ActiveLoansCount++
	}

	return agg
}

func (s *AggregationService) lockFor(customerID string) *customerLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[customerID]
	if !ok {
		lock = &customerLock{}
		s.locks[customerID] = lock
	}
	lock.refs++
	return lock
}

func (s *AggregationService) release(customerID string, lock *customerLock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, customerID)
	}
}
