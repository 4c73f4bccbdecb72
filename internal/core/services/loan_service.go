package services

import (
	"context"
	"errors"
	"fmt"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Loan errors
var (
	ErrLoanNotFound      = errors.New("loan not found")
	ErrInvalidLoanStatus = errors.New("invalid loan status")
)

// LoanService manages loans. Every mutation ends by re-triggering the
// aggregate recompute on the owning customer; a failed recompute is logged
// and never fails the mutation, the nightly reconcile repairs the drift.
type LoanService struct {
	loanRepo     repositories.LoanRepository
	customerRepo repositories.CustomerRepository
	activityRepo repositories.ActivityRepository
	aggregation  *AggregationService
	log          *zap.Logger
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	customerRepo repositories.CustomerRepository,
	activityRepo repositories.ActivityRepository,
	aggregation *AggregationService,
	log *zap.Logger,
) *LoanService {
	return &LoanService{
		loanRepo:     loanRepo,
		customerRepo: customerRepo,
		activityRepo: activityRepo,
		aggregation:  aggregation,
		log:          log,
	}
}

// LoanInput represents loan creation input
type LoanInput struct {
	CustomerID      string  `json:"customerId" validate:"required"`
	AgentID         string  `json:"agentId" validate:"required"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	DisbursedAmount float64 `json:"disbursedAmount"`
	InterestRate    float64 `json:"interestRate"`
	Tenure          int     `json:"tenure"`
	StartDate       int64   `json:"startDate"`
}

// Create issues a loan to a customer. The loan starts ACTIVE with the full
// principal outstanding.
func (s *LoanService) Create(ctx context.Context, input *LoanInput) (*models.Loan, error) {
	// 1. The owning customer must exist
	customer, err := s.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	// 2. Create the loan
	startDate := input.StartDate
	if startDate == 0 {
		startDate = models.NowMillis()
	}
	disbursed := input.DisbursedAmount
	if disbursed == 0 {
		disbursed = input.Amount
	}

	loan := &models.Loan{
		ID:                models.NewID(),
		CustomerID:        input.CustomerID,
		AgentID:           input.AgentID,
		Amount:            input.Amount,
		DisbursedAmount:   disbursed,
		InterestRate:      input.InterestRate,
		RepaymentType:     models.RepaymentWeekly,
		Tenure:            input.Tenure,
		OutstandingAmount: input.Amount,
		Status:            models.LoanStatusActive,
		StartDate:         startDate,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}

	// 3. Audit trail, best effort
	s.recordLoanActivity(ctx, customer, loan,
		fmt.Sprintf("Loan of %.2f issued to %s", loan.Amount, customer.Name))

	// 4. Recompute the customer's aggregates
	s.triggerAggregation(ctx, loan.CustomerID)

	s.log.Info("✅ loan created",
		zap.String("loanId", loan.ID),
		zap.String("customerId", loan.CustomerID),
		zap.Float64("amount", loan.Amount))

	return loan, nil
}

// GetByID returns one loan
func (s *LoanService) GetByID(ctx context.Context, id string) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetByCustomerID returns every loan of a customer
func (s *LoanService) GetByCustomerID(ctx context.Context, customerID string) ([]*models.Loan, error) {
	return s.loanRepo.GetByCustomerID(ctx, customerID)
}

// GetByAgentID returns every loan issued by an agent
func (s *LoanService) GetByAgentID(ctx context.Context, agentID string) ([]*models.Loan, error) {
	return s.loanRepo.GetByAgentID(ctx, agentID)
}

// List returns a page of loans
func (s *LoanService) List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	return s.loanRepo.List(ctx, offset, limit)
}

// UpdateStatus moves a loan through its lifecycle and recomputes the
// owner's aggregates
func (s *LoanService) UpdateStatus(ctx context.Context, id, status string) (*models.Loan, error) {
	switch status {
	case models.LoanStatusActive, models.LoanStatusClosed, models.LoanStatusDefaulted, models.LoanStatusSettled:
	default:
		return nil, ErrInvalidLoanStatus
	}

	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"status": status}
	if status == models.LoanStatusClosed || status == models.LoanStatusSettled {
		fields["end_date"] = models.NowMillis()
	}
	if err := s.loanRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	s.triggerAggregation(ctx, loan.CustomerID)

	s.log.Info("loan status changed",
		zap.String("loanId", id),
		zap.String("from", loan.Status),
		zap.String("to", status))

	return s.GetByID(ctx, id)
}

// ApplyPayment credits an amount against a loan: paid goes up, outstanding
// goes down, and a loan paid off in full closes. Returns the updated loan.
func (s *LoanService) ApplyPayment(ctx context.Context, id string, amount float64) (*models.Loan, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	paid := loan.PaidAmount + amount
	outstanding := loan.OutstandingAmount - amount
	if outstanding < 0 {
		outstanding = 0
	}

	fields := map[string]interface{}{
		"paid_amount":        paid,
		"outstanding_amount": outstanding,
	}
	if outstanding == 0 && loan.CountsTowardDue() {
		fields["status"] = models.LoanStatusClosed
		fields["end_date"] = models.NowMillis()
	}

	if err := s.loanRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	s.triggerAggregation(ctx, loan.CustomerID)

	return s.GetByID(ctx, id)
}

// Delete removes a loan and recomputes the owner's aggregates
func (s *LoanService) Delete(ctx context.Context, id string) error {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.loanRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.triggerAggregation(ctx, loan.CustomerID)

	s.log.Info("🗑️ loan deleted", zap.String("loanId", id))
	return nil
}

// triggerAggregation recomputes the customer's derived fields. Failures are
// logged and swallowed: the loan mutation already happened and must not be
// reported as failed because the cache refresh broke.
func (s *LoanService) triggerAggregation(ctx context.Context, customerID string) {
	if err := s.aggregation.Recompute(ctx, customerID); err != nil {
		s.log.Error("❌ aggregate recompute failed",
			zap.String("customerId", customerID),
			zap.Error(err))
	}
}

func (s *LoanService) recordLoanActivity(ctx context.Context, customer *models.Customer, loan *models.Loan, description string) {
	activity := &models.Activity{
		ID:           models.NewID(),
		Type:         models.ActivityLoanCreated,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		AgentID:      loan.AgentID,
		Description:  description,
		Timestamp:    models.NowMillis(),
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.log.Error("audit write failed",
			zap.String("type", models.ActivityLoanCreated),
			zap.String("loanId", loan.ID),
			zap.Error(err))
	}
}
