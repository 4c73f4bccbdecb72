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

// Payment errors
var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
)

// PaymentService records repayments. A payment fans out: an immutable
// ledger entry, the loan balance, the per-agent collection tracker, the
// customer's last-paid marker and the audit trail.
type PaymentService struct {
	paymentRepo    repositories.PaymentRepository
	collectionRepo repositories.CollectionRepository
	customerRepo   repositories.CustomerRepository
	activityRepo   repositories.ActivityRepository
	loanService    *LoanService
	log            *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	collectionRepo repositories.CollectionRepository,
	customerRepo repositories.CustomerRepository,
	activityRepo repositories.ActivityRepository,
	loanService *LoanService,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:    paymentRepo,
		collectionRepo: collectionRepo,
		customerRepo:   customerRepo,
		activityRepo:   activityRepo,
		loanService:    loanService,
		log:            log,
	}
}

// PaymentInput represents a repayment being recorded
type PaymentInput struct {
	CustomerID  string  `json:"customerId" validate:"required"`
	LoanID      string  `json:"loanId" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	CollectedBy string  `json:"collectedBy" validate:"required"`
	Description string  `json:"description"`
}

// Record registers a repayment against a loan
func (s *PaymentService) Record(ctx context.Context, input *PaymentInput) (*models.Payment, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	// 1. The customer and loan must exist
	customer, err := s.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	loan, err := s.loanService.GetByID(ctx, input.LoanID)
	if err != nil {
		return nil, err
	}

	// 2. Append the ledger entry
	payment := &models.Payment{
		ID:          models.NewID(),
		CustomerID:  input.CustomerID,
		LoanID:      input.LoanID,
		Amount:      input.Amount,
		Date:        models.NowMillis(),
		Type:        models.PaymentCredit,
		CollectedBy: input.CollectedBy,
		Description: input.Description,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	// 3. Credit the loan; this closes it when fully paid and recomputes
	// the customer's aggregates
	updated, err := s.loanService.ApplyPayment(ctx, input.LoanID, input.Amount)
	if err != nil {
		return nil, err
	}

	// 4. Roll the payment into the collection tracker
	s.updateCollection(ctx, loan, updated, input)

	// 5. Move the customer's last-paid marker
	if err := s.customerRepo.UpdateFields(ctx, input.CustomerID, map[string]interface{}{
		"last_paid_date": payment.Date,
	}); err != nil {
		s.log.Error("last paid date update failed",
			zap.String("customerId", input.CustomerID), zap.Error(err))
	}

	// 6. Audit trail, best effort
	s.recordPaymentActivity(ctx, customer, payment)

	s.log.Info("✅ payment recorded",
		zap.String("paymentId", payment.ID),
		zap.String("loanId", input.LoanID),
		zap.Float64("amount", input.Amount))

	return payment, nil
}

// updateCollection lazily creates the (agent, customer, loan) tracker on
// the first payment and keeps its running totals current afterwards.
// Tracker failures are logged, never propagated: the ledger entry is
// already the source of truth.
func (s *PaymentService) updateCollection(ctx context.Context, before, after *models.Loan, input *PaymentInput) {
	record, err := s.collectionRepo.Find(ctx, input.CollectedBy, input.CustomerID, input.LoanID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("collection lookup failed", zap.String("loanId", input.LoanID), zap.Error(err))
			return
		}

		record = &models.CollectionRecord{
			ID:          models.NewID(),
			AgentID:     input.CollectedBy,
			CustomerID:  input.CustomerID,
			LoanID:      input.LoanID,
			TotalDue:    before.OutstandingAmount,
			Paid:        input.Amount,
			Outstanding: after.OutstandingAmount,
			Status:      models.CollectionPending,
		}
		if err := s.collectionRepo.Create(ctx, record); err != nil {
			s.log.Error("collection create failed", zap.String("loanId", input.LoanID), zap.Error(err))
		}
		return
	}

	if err := s.collectionRepo.UpdateOutstanding(ctx, record.ID, after.OutstandingAmount); err != nil {
		s.log.Error("collection update failed", zap.String("collectionId", record.ID), zap.Error(err))
	}
}

// GetByCustomerID returns a customer's payment history
func (s *PaymentService) GetByCustomerID(ctx context.Context, customerID string) ([]*models.Payment, error) {
	return s.paymentRepo.GetByCustomerID(ctx, customerID)
}

// GetByCollector returns every payment an agent collected
func (s *PaymentService) GetByCollector(ctx context.Context, agentID string) ([]*models.Payment, error) {
	return s.paymentRepo.GetByCollector(ctx, agentID)
}

// GetAll returns the full ledger
func (s *PaymentService) GetAll(ctx context.Context) ([]*models.Payment, error) {
	return s.paymentRepo.GetAll(ctx)
}

// GetRecent returns the most recent ledger entries
func (s *PaymentService) GetRecent(ctx context.Context, limit int) ([]*models.Payment, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.paymentRepo.GetRecent(ctx, limit)
}

// Delete removes a ledger entry. No balances roll back; correcting a
// mis-keyed payment means recording a compensating entry.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	s.log.Info("🗑️ payment deleted", zap.String("paymentId", id))
	return nil
}

func (s *PaymentService) recordPaymentActivity(ctx context.Context, customer *models.Customer, payment *models.Payment) {
	activity := &models.Activity{
		ID:           models.NewID(),
		Type:         models.ActivityPayment,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		AgentID:      payment.CollectedBy,
		Description:  fmt.Sprintf("Payment of %.2f received from %s", payment.Amount, customer.Name),
		Timestamp:    payment.Date,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.log.Error("audit write failed",
			zap.String("type", models.ActivityPayment),
			zap.String("paymentId", payment.ID),
			zap.Error(err))
	}
}
