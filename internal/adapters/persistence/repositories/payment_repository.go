package repositories

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create appends a ledger entry
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = models.NewID()
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByCustomerID gets payments of a customer, newest first
func (r *paymentRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("date DESC").Find(&payments).Error
	return payments, err
}

// GetByCollector gets payments recorded by an agent, newest first
func (r *paymentRepository) GetByCollector(ctx context.Context, agentID string) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).Where("collected_by = ?", agentID).Order("date DESC").Find(&payments).Error
	return payments, err
}

// GetAll gets every payment, newest first
func (r *paymentRepository) GetAll(ctx context.Context) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).Order("date DESC").Find(&payments).Error
	return payments, err
}

// GetRecent gets the most recent payments
func (r *paymentRepository) GetRecent(ctx context.Context, limit int) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).Order("date DESC").Limit(limit).Find(&payments).Error
	return payments, err
}

// Delete removes a ledger entry
func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Payment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
