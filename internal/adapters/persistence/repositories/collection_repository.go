package repositories

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// collectionRepository implements CollectionRepository interface
type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// Create creates a new collection tracker
func (r *collectionRepository) Create(ctx context.Context, record *models.CollectionRecord) error {
	if record.ID == "" {
		record.ID = models.NewID()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// GetAll gets every collection tracker
func (r *collectionRepository) GetAll(ctx context.Context) ([]*models.CollectionRecord, error) {
	var records []*models.CollectionRecord
	err := r.db.WithContext(ctx).Find(&records).Error
	return records, err
}

// GetByAgentID gets trackers for an agent
func (r *collectionRepository) GetByAgentID(ctx context.Context, agentID string) ([]*models.CollectionRecord, error) {
	var records []*models.CollectionRecord
	err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&records).Error
	return records, err
}

// GetByCustomerID gets trackers for a customer
func (r *collectionRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*models.CollectionRecord, error) {
	var records []*models.CollectionRecord
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Find(&records).Error
	return records, err
}

// Find looks up the tracker for an (agent, customer, loan) triple
func (r *collectionRepository) Find(ctx context.Context, agentID, customerID, loanID string) (*models.CollectionRecord, error) {
	var record models.CollectionRecord
	err := r.db.WithContext(ctx).
		Where("agent_id = ? AND customer_id = ? AND loan_id = ?", agentID, customerID, loanID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateOutstanding updates the tracked outstanding balance
func (r *collectionRepository) UpdateOutstanding(ctx context.Context, id string, outstanding float64) error {
	return r.db.WithContext(ctx).Model(&models.CollectionRecord{}).
		Where("id = ?", id).
		Update("outstanding", outstanding).Error
}
