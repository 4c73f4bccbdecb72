package services

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"

	"go.uber.org/zap"
)

// CollectionService exposes the per-agent collection trackers
type CollectionService struct {
	collectionRepo repositories.CollectionRepository
	log            *zap.Logger
}

// NewCollectionService creates a new collection service
func NewCollectionService(collectionRepo repositories.CollectionRepository, log *zap.Logger) *CollectionService {
	return &CollectionService{
		collectionRepo: collectionRepo,
		log:            log,
	}
}

// GetAll returns every collection record
func (s *CollectionService) GetAll(ctx context.Context) ([]*models.CollectionRecord, error) {
	return s.collectionRepo.GetAll(ctx)
}

// GetByAgentID returns an agent's collection records
func (s *CollectionService) GetByAgentID(ctx context.Context, agentID string) ([]*models.CollectionRecord, error) {
	return s.collectionRepo.GetByAgentID(ctx, agentID)
}

// GetByCustomerID returns the collection records tracking one customer
func (s *CollectionService) GetByCustomerID(ctx context.Context, customerID string) ([]*models.CollectionRecord, error) {
	return s.collectionRepo.GetByCustomerID(ctx, customerID)
}
