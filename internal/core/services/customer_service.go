package services

import (
	"context"
	"errors"
	"fmt"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"
	"chitfund-backoffice/internal/config"
	"chitfund-backoffice/internal/pkg/crypto"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Customer errors
var (
	ErrUploadTimeout = errors.New("image upload timed out, please try again")
)

// CustomerService manages customer records and their encrypted KYC images.
// The aggregate fields on a customer are read-only here; only the
// aggregation service writes them.
type CustomerService struct {
	customerRepo repositories.CustomerRepository
	activityRepo repositories.ActivityRepository
	userRepo     repositories.UserRepository
	codec        *crypto.Codec
	cfg          *config.Config
	log          *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo repositories.CustomerRepository,
	activityRepo repositories.ActivityRepository,
	userRepo repositories.UserRepository,
	codec *crypto.Codec,
	cfg *config.Config,
	log *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		codec:        codec,
		cfg:          cfg,
		log:          log,
	}
}

// CustomerInput represents customer create/update input
type CustomerInput struct {
	AgentID       string `json:"agentId" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	RepaymentType string `json:"repaymentType"`
	Tenure        int    `json:"tenure"`
	AadhaarImage  string `json:"aadhaarImage"`
	PanImage      string `json:"panImage"`
	Photo         string `json:"photo"`
}

// Create registers a customer under an agent. KYC images are encrypted
// before they are stored; the write runs under the upload timeout because
// image payloads dominate the request.
func (s *CustomerService) Create(ctx context.Context, input *CustomerInput) (*models.Customer, error) {
	customer := &models.Customer{
		ID:            models.NewID(),
		AgentID:       input.AgentID,
		Name:          input.Name,
		Phone:         input.Phone,
		Email:         normalizeEmail(input.Email),
		Address:       input.Address,
		RepaymentType: models.RepaymentWeekly,
		Tenure:        input.Tenure,
		KYCStatus:     models.KYCPending,
		Status:        models.StatusActive,
		CreatedAt:     models.NowMillis(),
	}

	var err error
	if customer.AadhaarImage, err = s.codec.Encrypt(input.AadhaarImage); err != nil {
		return nil, err
	}
	if customer.PanImage, err = s.codec.Encrypt(input.PanImage); err != nil {
		return nil, err
	}
	if customer.Photo, err = s.codec.Encrypt(input.Photo); err != nil {
		return nil, err
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	if err := s.customerRepo.Create(writeCtx, customer); err != nil {
		if errors.Is(writeCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrUploadTimeout
		}
		return nil, err
	}

	s.recordAssignment(ctx, customer, input.AgentID)

	s.log.Info("✅ customer created",
		zap.String("customerId", customer.ID),
		zap.String("agentId", customer.AgentID))

	return customer, nil
}

// GetByID returns a customer with its KYC images decrypted
func (s *CustomerService) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	if err := s.decryptImages(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// List returns a page of customers. Images stay encrypted in list views.
func (s *CustomerService) List(ctx context.Context, offset, limit int) ([]*models.Customer, int64, error) {
	customers, total, err := s.customerRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	stripImages(customers)
	return customers, total, nil
}

// GetByAgentID returns an agent's assigned customers
func (s *CustomerService) GetByAgentID(ctx context.Context, agentID string) ([]*models.Customer, error) {
	customers, err := s.customerRepo.GetByAgentID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	stripImages(customers)
	return customers, nil
}

// UpdateCustomerInput represents a partial customer update. Aggregate
// fields are not accepted here.
type UpdateCustomerInput struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Address      *string `json:"address"`
	Tenure       *int    `json:"tenure"`
	KYCStatus    *string `json:"kycStatus"`
	Status       *string `json:"status"`
	AadhaarImage *string `json:"aadhaarImage"`
	PanImage     *string `json:"panImage"`
	Photo        *string `json:"photo"`
}

// Update applies a partial update. Image fields are re-encrypted; the
// write runs under the upload timeout when any image is present.
func (s *CustomerService) Update(ctx context.Context, id string, input *UpdateCustomerInput) (*models.Customer, error) {
	fields := map[string]interface{}{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Phone != nil {
		fields["phone"] = *input.Phone
	}
	if input.Email != nil {
		fields["email"] = normalizeEmail(*input.Email)
	}
	if input.Address != nil {
		fields["address"] = *input.Address
	}
	if input.Tenure != nil {
		fields["tenure"] = *input.Tenure
	}
	if input.KYCStatus != nil {
		fields["kyc_status"] = *input.KYCStatus
	}
	if input.Status != nil {
		fields["status"] = *input.Status
	}

	hasImages := false
	for col, img := range map[string]*string{
		"aadhaar_image": input.AadhaarImage,
		"pan_image":     input.PanImage,
		"photo":         input.Photo,
	} {
		if img == nil {
			continue
		}
		sealed, err := s.codec.Encrypt(*img)
		if err != nil {
			return nil, err
		}
		fields[col] = sealed
		hasImages = true
	}

	if len(fields) == 0 {
		return s.GetByID(ctx, id)
	}

	writeCtx := ctx
	if hasImages {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()
	}

	if err := s.customerRepo.UpdateFields(writeCtx, id, fields); err != nil {
		if hasImages && errors.Is(writeCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrUploadTimeout
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// Reassign moves a customer to another agent and logs both sides of the
// move in the audit trail
func (s *CustomerService) Reassign(ctx context.Context, id, newAgentID string) error {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}

	if customer.AgentID == newAgentID {
		return nil
	}

	if err := s.customerRepo.UpdateFields(ctx, id, map[string]interface{}{"agent_id": newAgentID}); err != nil {
		return err
	}

	s.recordActivity(ctx, models.ActivityUnassignment, customer, customer.AgentID,
		fmt.Sprintf("Customer %s unassigned from agent", customer.Name))
	s.recordAssignment(ctx, customer, newAgentID)

	s.log.Info("customer reassigned",
		zap.String("customerId", id),
		zap.String("from", customer.AgentID),
		zap.String("to", newAgentID))
	return nil
}

// Delete removes a customer record
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCustomerNotFound
		}
		return err
	}

	s.log.Info("🗑️ customer deleted", zap.String("customerId", id))
	return nil
}

func (s *CustomerService) decryptImages(customer *models.Customer) error {
	var err error
	if customer.AadhaarImage, err = s.codec.Decrypt(customer.AadhaarImage); err != nil {
		return err
	}
	if customer.PanImage, err = s.codec.Decrypt(customer.PanImage); err != nil {
		return err
	}
	if customer.Photo, err = s.codec.Decrypt(customer.Photo); err != nil {
		return err
	}
	return nil
}

func stripImages(customers []*models.Customer) {
	for _, c := range customers {
		c.AadhaarImage = ""
		c.PanImage = ""
		c.Photo = ""
	}
}

func (s *CustomerService) recordAssignment(ctx context.Context, customer *models.Customer, agentID string) {
	s.recordActivity(ctx, models.ActivityAssignment, customer, agentID,
		fmt.Sprintf("Customer %s assigned to agent", customer.Name))
}

// recordActivity appends to the audit log, best effort: a failed audit
// write never fails the mutation it describes
func (s *CustomerService) recordActivity(ctx context.Context, activityType string, customer *models.Customer, agentID, description string) {
	agentName := ""
	if agent, err := s.userRepo.GetByUID(ctx, agentID); err == nil {
		agentName = agent.DisplayName
	}

	activity := &models.Activity{
		ID:           models.NewID(),
		Type:         activityType,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		AgentID:      agentID,
		AgentName:    agentName,
		Description:  description,
		Timestamp:    models.NowMillis(),
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.log.Error("audit write failed",
			zap.String("type", activityType),
			zap.String("customerId", customer.ID),
			zap.Error(err))
	}
}
