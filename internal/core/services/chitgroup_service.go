package services

import (
	"context"
	"errors"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Chit group errors
var (
	ErrChitGroupNotFound = errors.New("chit group not found")
	ErrChitGroupFull     = errors.New("chit group is full")
	ErrAlreadyMember     = errors.New("customer already in chit group")
)

// ChitGroupService manages chit groups and their membership rolls
type ChitGroupService struct {
	chitGroupRepo repositories.ChitGroupRepository
	customerRepo  repositories.CustomerRepository
	log           *zap.Logger
}

// NewChitGroupService creates a new chit group service
func NewChitGroupService(
	chitGroupRepo repositories.ChitGroupRepository,
	customerRepo repositories.CustomerRepository,
	log *zap.Logger,
) *ChitGroupService {
	return &ChitGroupService{
		chitGroupRepo: chitGroupRepo,
		customerRepo:  customerRepo,
		log:           log,
	}
}

// ChitGroupInput represents chit group creation input
type ChitGroupInput struct {
	Name                     string  `json:"name" validate:"required"`
	Value                    float64 `json:"value" validate:"required,gt=0"`
	DurationWeeks            int     `json:"durationWeeks" validate:"required,gt=0"`
	MembersCount             int     `json:"membersCount" validate:"required,gt=0"`
	ForemanCommissionPercent float64 `json:"foremanCommissionPercent"`
	StartDate                string  `json:"startDate"`
	EndDate                  string  `json:"endDate"`
}

// Create registers a chit group. The weekly installment is the group value
// spread over its duration.
func (s *ChitGroupService) Create(ctx context.Context, input *ChitGroupInput) (*models.ChitGroup, error) {
	group := &models.ChitGroup{
		ID:                       models.NewID(),
		Name:                     input.Name,
		Value:                    input.Value,
		WeeklyInstallment:        input.Value / float64(input.DurationWeeks),
		DurationWeeks:            input.DurationWeeks,
		MembersCount:             input.MembersCount,
		ForemanCommissionPercent: input.ForemanCommissionPercent,
		StartDate:                input.StartDate,
		EndDate:                  input.EndDate,
		Status:                   models.ChitUpcoming,
		Members:                  models.StringList{},
	}

	if err := s.chitGroupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.log.Info("✅ chit group created", zap.String("groupId", group.ID), zap.String("name", group.Name))
	return group, nil
}

// GetAll returns chit groups, optionally filtered by status
func (s *ChitGroupService) GetAll(ctx context.Context, status string) ([]*models.ChitGroup, error) {
	return s.chitGroupRepo.GetAll(ctx, status)
}

// GetByID returns one chit group
func (s *ChitGroupService) GetByID(ctx context.Context, id string) (*models.ChitGroup, error) {
	group, err := s.chitGroupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChitGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// AddMember enrolls a customer into a chit group
func (s *ChitGroupService) AddMember(ctx context.Context, groupID, customerID string) (*models.ChitGroup, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	for _, member := range group.Members {
		if member == customerID {
			return nil, ErrAlreadyMember
		}
	}
	if len(group.Members) >= group.MembersCount {
		return nil, ErrChitGroupFull
	}

	members := append(group.Members, customerID)
	if err := s.chitGroupRepo.UpdateFields(ctx, groupID, map[string]interface{}{"members": members}); err != nil {
		return nil, err
	}

	s.log.Info("chit group member added",
		zap.String("groupId", groupID),
		zap.String("customerId", customerID))

	return s.GetByID(ctx, groupID)
}

// RemoveMember drops a customer from a chit group's roll
func (s *ChitGroupService) RemoveMember(ctx context.Context, groupID, customerID string) (*models.ChitGroup, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members := make(models.StringList, 0, len(group.Members))
	for _, member := range group.Members {
		if member != customerID {
			members = append(members, member)
		}
	}
	if len(members) == len(group.Members) {
		return group, nil
	}

	if err := s.chitGroupRepo.UpdateFields(ctx, groupID, map[string]interface{}{"members": members}); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, groupID)
}

// UpdateStatus moves a chit group through its lifecycle
func (s *ChitGroupService) UpdateStatus(ctx context.Context, id, status string) (*models.ChitGroup, error) {
	switch status {
	case models.ChitUpcoming, models.ChitActive, models.ChitCompleted:
	default:
		return nil, errors.New("invalid chit group status")
	}

	if err := s.chitGroupRepo.UpdateFields(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}
