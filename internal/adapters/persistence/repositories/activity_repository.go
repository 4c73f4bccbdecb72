package repositories

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// activityRepository implements ActivityRepository interface
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Create appends an audit log entry
func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = models.NewID()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

// GetByCustomerID gets activities for a customer
func (r *activityRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*models.Activity, error) {
	var activities []*models.Activity
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("timestamp DESC").Find(&activities).Error
	return activities, err
}

// GetByAgentID gets activities for an agent
func (r *activityRepository) GetByAgentID(ctx context.Context, agentID string) ([]*models.Activity, error) {
	var activities []*models.Activity
	err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("timestamp DESC").Find(&activities).Error
	return activities, err
}

// GetAll gets every activity, newest first
func (r *activityRepository) GetAll(ctx context.Context) ([]*models.Activity, error) {
	var activities []*models.Activity
	err := r.db.WithContext(ctx).Order("timestamp DESC").Find(&activities).Error
	return activities, err
}
