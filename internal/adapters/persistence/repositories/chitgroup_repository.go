package repositories

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// chitGroupRepository implements ChitGroupRepository interface
type chitGroupRepository struct {
	db *gorm.DB
}

// NewChitGroupRepository creates a new chit group repository
func NewChitGroupRepository(db *gorm.DB) ChitGroupRepository {
	return &chitGroupRepository{db: db}
}

// Create creates a new chit group
func (r *chitGroupRepository) Create(ctx context.Context, group *models.ChitGroup) error {
	if group.ID == "" {
		group.ID = models.NewID()
	}
	return r.db.WithContext(ctx).Create(group).Error
}

// GetByID gets a chit group by id
func (r *chitGroupRepository) GetByID(ctx context.Context, id string) (*models.ChitGroup, error) {
	var group models.ChitGroup
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetAll gets chit groups, optionally filtered by status
func (r *chitGroupRepository) GetAll(ctx context.Context, status string) ([]*models.ChitGroup, error) {
	var groups []*models.ChitGroup
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&groups).Error
	return groups, err
}

// UpdateFields applies a partial merge to a chit group
func (r *chitGroupRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.ChitGroup{}).Where("id = ?", id).Updates(fields).Error
}
