package services

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"
)

// ActivityService reads the append-only audit trail. Writes happen inline
// in the services that own the mutations being audited.
type ActivityService struct {
	activityRepo repositories.ActivityRepository
}

// NewActivityService creates a new activity service
func NewActivityService(activityRepo repositories.ActivityRepository) *ActivityService {
	return &ActivityService{activityRepo: activityRepo}
}

// GetAll returns the full audit trail, newest first
func (s *ActivityService) GetAll(ctx context.Context) ([]*models.Activity, error) {
	return s.activityRepo.GetAll(ctx)
}

// GetByCustomerID returns a customer's audit trail
func (s *ActivityService) GetByCustomerID(ctx context.Context, customerID string) ([]*models.Activity, error) {
	return s.activityRepo.GetByCustomerID(ctx, customerID)
}

// GetByAgentID returns the audit entries attributed to an agent
func (s *ActivityService) GetByAgentID(ctx context.Context, agentID string) ([]*models.Activity, error) {
	return s.activityRepo.GetByAgentID(ctx, agentID)
}
