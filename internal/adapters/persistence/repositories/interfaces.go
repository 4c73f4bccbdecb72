package repositories

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"
)

// UserRepository defines role-record repository interface (users collection)
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAgents(ctx context.Context) ([]*models.User, error)
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, uid string, fields map[string]interface{}) error
	Delete(ctx context.Context, uid string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUser(ctx context.Context, uid string) error
	DeleteExpired(ctx context.Context) error
}

// CustomerRepository defines customer repository interface
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	GetByAgentID(ctx context.Context, agentID string) ([]*models.Customer, error)
	List(ctx context.Context, offset, limit int) ([]*models.Customer, int64, error)
	ListAll(ctx context.Context) ([]*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	// UpdateAggregates persists the derived fields as a partial update.
	// A missing customer is an error, never an upsert.
	UpdateAggregates(ctx context.Context, id string, agg *models.Aggregates) error
	Delete(ctx context.Context, id string) error
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id string) (*models.Loan, error)
	GetByCustomerID(ctx context.Context, customerID string) ([]*models.Loan, error)
	GetByAgentID(ctx context.Context, agentID string) ([]*models.Loan, error)
	List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// PaymentRepository defines payment ledger repository interface
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByCustomerID(ctx context.Context, customerID string) ([]*models.Payment, error)
	GetByCollector(ctx context.Context, agentID string) ([]*models.Payment, error)
	GetAll(ctx context.Context) ([]*models.Payment, error)
	GetRecent(ctx context.Context, limit int) ([]*models.Payment, error)
	Delete(ctx context.Context, id string) error
}

// CollectionRepository defines collection tracker repository interface
type CollectionRepository interface {
	Create(ctx context.Context, record *models.CollectionRecord) error
	GetAll(ctx context.Context) ([]*models.CollectionRecord, error)
	GetByAgentID(ctx context.Context, agentID string) ([]*models.CollectionRecord, error)
	GetByCustomerID(ctx context.Context, customerID string) ([]*models.CollectionRecord, error)
	Find(ctx context.Context, agentID, customerID, loanID string) (*models.CollectionRecord, error)
	UpdateOutstanding(ctx context.Context, id string, outstanding float64) error
}

// ActivityRepository defines audit log repository interface (append-only)
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByCustomerID(ctx context.Context, customerID string) ([]*models.Activity, error)
	GetByAgentID(ctx context.Context, agentID string) ([]*models.Activity, error)
	GetAll(ctx context.Context) ([]*models.Activity, error)
}

// InvestorRepository defines investor repository interface
type InvestorRepository interface {
	Create(ctx context.Context, investor *models.Investor) error
	GetByID(ctx context.Context, id string) (*models.Investor, error)
	GetAll(ctx context.Context) ([]*models.Investor, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// ChitGroupRepository defines chit group repository interface
type ChitGroupRepository interface {
	Create(ctx context.Context, group *models.ChitGroup) error
	GetByID(ctx context.Context, id string) (*models.ChitGroup, error)
	GetAll(ctx context.Context, status string) ([]*models.ChitGroup, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}
