package repositories

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// investorRepository implements InvestorRepository interface
type investorRepository struct {
	db *gorm.DB
}

// NewInvestorRepository creates a new investor repository
func NewInvestorRepository(db *gorm.DB) InvestorRepository {
	return &investorRepository{db: db}
}

// Create creates a new investor
func (r *investorRepository) Create(ctx context.Context, investor *models.Investor) error {
	if investor.ID == "" {
		investor.ID = models.NewID()
	}
	return r.db.WithContext(ctx).Create(investor).Error
}

// GetByID gets an investor by id
func (r *investorRepository) GetByID(ctx context.Context, id string) (*models.Investor, error) {
	var investor models.Investor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&investor).Error
	if err != nil {
		return nil, err
	}
	return &investor, nil
}

// GetAll gets every investor
func (r *investorRepository) GetAll(ctx context.Context) ([]*models.Investor, error) {
	var investors []*models.Investor
	err := r.db.WithContext(ctx).Find(&investors).Error
	return investors, err
}

// UpdateFields applies a partial merge to an investor
func (r *investorRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Investor{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes an investor
func (r *investorRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Investor{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
