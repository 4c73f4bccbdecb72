package services

import (
	"context"
	"errors"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvestorNotFound = errors.New("investor not found")

// InvestorService manages investor records and their expected returns
type InvestorService struct {
	investorRepo repositories.InvestorRepository
	log          *zap.Logger
}

// NewInvestorService creates a new investor service
func NewInvestorService(investorRepo repositories.InvestorRepository, log *zap.Logger) *InvestorService {
	return &InvestorService{
		investorRepo: investorRepo,
		log:          log,
	}
}

// InvestorInput represents investor create input
type InvestorInput struct {
	Name                   string  `json:"name" validate:"required"`
	Amount                 float64 `json:"amount" validate:"required,gt=0"`
	MonthlyInterestPercent float64 `json:"monthlyInterestPercent"`
	JoinedAt               int64   `json:"joinedAt"`
}

// Create registers an investor. The expected monthly return is derived
// from the principal and the agreed interest.
func (s *InvestorService) Create(ctx context.Context, input *InvestorInput) (*models.Investor, error) {
	joined := input.JoinedAt
	if joined == 0 {
		joined = models.NowMillis()
	}

	investor := &models.Investor{
		ID:                     models.NewID(),
		Name:                   input.Name,
		Amount:                 input.Amount,
		MonthlyInterestPercent: input.MonthlyInterestPercent,
		ExpectedReturn:         input.Amount * input.MonthlyInterestPercent / 100,
		JoinedAt:               joined,
		Status:                 models.StatusActive,
	}

	if err := s.investorRepo.Create(ctx, investor); err != nil {
		return nil, err
	}

	s.log.Info("✅ investor created", zap.String("investorId", investor.ID))
	return investor, nil
}

// GetAll returns every investor
func (s *InvestorService) GetAll(ctx context.Context) ([]*models.Investor, error) {
	return s.investorRepo.GetAll(ctx)
}

// GetByID returns one investor
func (s *InvestorService) GetByID(ctx context.Context, id string) (*models.Investor, error) {
	investor, err := s.investorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvestorNotFound
		}
		return nil, err
	}
	return investor, nil
}

// UpdateInvestorInput represents a partial investor update
type UpdateInvestorInput struct {
	Name                   *string  `json:"name"`
	Amount                 *float64 `json:"amount"`
	MonthlyInterestPercent *float64 `json:"monthlyInterestPercent"`
	Status                 *string  `json:"status"`
}

// Update applies a partial update, recomputing the expected return when
// either input of the derivation changes
func (s *InvestorService) Update(ctx context.Context, id string, input *UpdateInvestorInput) (*models.Investor, error) {
	investor, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	amount := investor.Amount
	interest := investor.MonthlyInterestPercent

	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Amount != nil {
		amount = *input.Amount
		fields["amount"] = amount
	}
	if input.MonthlyInterestPercent != nil {
		interest = *input.MonthlyInterestPercent
		fields["monthly_interest_percent"] = interest
	}
	if input.Amount != nil || input.MonthlyInterestPercent != nil {
		fields["expected_return"] = amount * interest / 100
	}
	if input.Status != nil {
		fields["status"] = *input.Status
	}

	if len(fields) > 0 {
		if err := s.investorRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}

	return s.GetByID(ctx, id)
}

// Delete removes an investor record
func (s *InvestorService) Delete(ctx context.Context, id string) error {
	if err := s.investorRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvestorNotFound
		}
		return err
	}

	s.log.Info("🗑️ investor deleted", zap.String("investorId", id))
	return nil
}
