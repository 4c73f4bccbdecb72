package repositories

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// customerRepository implements CustomerRepository interface
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// Create creates a new customer
func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		customer.ID = models.NewID()
	}
	return r.db.WithContext(ctx).Create(customer).Error
}

// GetByID gets a customer by id
func (r *customerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByAgentID gets customers assigned to an agent
func (r *customerRepository) GetByAgentID(ctx context.Context, agentID string) ([]*models.Customer, error) {
	var customers []*models.Customer
	err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&customers).Error
	return customers, err
}

// List lists customers with pagination
func (r *customerRepository) List(ctx context.Context, offset, limit int) ([]*models.Customer, int64, error) {
	var customers []*models.Customer
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

// ListAll gets every customer (reconcile sweep)
func (r *customerRepository) ListAll(ctx context.Context) ([]*models.Customer, error) {
	var customers []*models.Customer
	err := r.db.WithContext(ctx).Find(&customers).Error
	return customers, err
}

// Update saves a full customer record
func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// UpdateFields applies a partial merge to a customer record
func (r *customerRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateAggregates persists the five derived fields. Zero rows affected
// means the customer is gone; report it instead of creating one.
func (r *customerRepository) UpdateAggregates(ctx context.Context, id string, agg *models.Aggregates) error {
	result := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_loan_amount":      agg.TotalLoanAmount,
		"current_due_amount":     agg.CurrentDueAmount,
		"total_disbursed_amount": agg.TotalDisbursedAmount,
		"total_paid_amount":      agg.TotalPaidAmount,
		"active_loans_count":     agg.ActiveLoansCount,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a customer
func (r *customerRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Customer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
