package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles
const (
	RoleAdmin = "ADMIN"
	RoleAgent = "AGENT"
)

// Record statuses (users, customers, investors)
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Loan statuses
const (
	LoanStatusActive    = "ACTIVE"
	LoanStatusClosed    = "CLOSED"
	LoanStatusDefaulted = "DEFAULTED"
	LoanStatusSettled   = "SETTLED"
)

// Repayment types (only weekly is supported)
const (
	RepaymentWeekly = "WEEKLY"
)

// KYC statuses
const (
	KYCPending  = "PENDING"
	KYCVerified = "VERIFIED"
	KYCRejected = "REJECTED"
)

// Collection record statuses
const (
	CollectionPending  = "PENDING"
	CollectionApproved = "APPROVED"
	CollectionRejected = "REJECTED"
)

// Activity types
const (
	ActivityAssignment   = "ASSIGNMENT"
	ActivityUnassignment = "UNASSIGNMENT"
	ActivityLoanCreated  = "LOAN_CREATED"
	ActivityPayment      = "PAYMENT"
	ActivityStatusChange = "STATUS_CHANGE"
)

// Chit group statuses
const (
	ChitActive    = "ACTIVE"
	ChitCompleted = "COMPLETED"
	ChitUpcoming  = "UPCOMING"
)

// NowMillis returns the current time in unix milliseconds, the timestamp
// representation used across all documents.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// NewID generates a document id
func NewID() string {
	return uuid.New().String()
}

// ============================================================
// Auth & Role Records
// ============================================================

// User represents a role record in the users collection. A record carrying
// an InitialPassword is an unclaimed invite: a role provisioned by an
// administrator before the person has ever authenticated.
type User struct {
	UID                  string   `gorm:"primaryKey;size:64;column:uid" json:"uid"`
	Email                string   `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Role                 string   `gorm:"size:20;not null" json:"role"`
	DisplayName          string   `gorm:"size:120" json:"displayName"`
	Phone                string   `gorm:"size:30" json:"phone,omitempty"`
	Address              string   `gorm:"type:text" json:"address,omitempty"`
	Status               string   `gorm:"size:20;default:'ACTIVE'" json:"status"`
	InitialPassword      *string  `gorm:"size:120" json:"initialPassword,omitempty"`
	ThemePreference      string   `gorm:"size:10" json:"themePreference,omitempty"`
	CommissionPercentage *float64 `gorm:"type:decimal(5,2)" json:"commissionPercentage,omitempty"`
	Photo                string   `gorm:"type:mediumtext" json:"photo,omitempty"`
	CreatedAt            int64    `gorm:"not null" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

// IsUnclaimedInvite reports whether this record is an invite awaiting
// its first login.
func (u *User) IsUnclaimedInvite() bool {
	return u.InitialPassword != nil && *u.InitialPassword != ""
}

// CloneForClaim copies the invite data onto a role record keyed by the
// claimer's real identity id. InitialPassword is dropped and the record is
// forced ACTIVE.
func (u *User) CloneForClaim(uid, email string) *User {
	claimed := *u
	claimed.UID = uid
	claimed.Email = email
	claimed.Status = StatusActive
	claimed.InitialPassword = nil
	return &claimed
}

// UserResponse DTO - never carries InitialPassword or the encrypted photo
type UserResponse struct {
	UID                  string   `json:"uid"`
	Email                string   `json:"email"`
	Role                 string   `json:"role"`
	DisplayName          string   `json:"displayName"`
	Phone                string   `json:"phone,omitempty"`
	Status               string   `json:"status"`
	ThemePreference      string   `json:"themePreference,omitempty"`
	CommissionPercentage *float64 `json:"commissionPercentage,omitempty"`
	CreatedAt            int64    `json:"createdAt"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		UID:                  u.UID,
		Email:                u.Email,
		Role:                 u.Role,
		DisplayName:          u.DisplayName,
		Phone:                u.Phone,
		Status:               u.Status,
		ThemePreference:      u.ThemePreference,
		CommissionPercentage: u.CommissionPercentage,
		CreatedAt:            u.CreatedAt,
	}
}

// Identity represents a credential record of the local identity provider.
// Internal to the identity package; never exposed through the API.
type Identity struct {
	UID          string `gorm:"primaryKey;size:64;column:uid" json:"uid"`
	Email        string `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	CreatedAt    int64  `gorm:"not null" json:"createdAt"`
}

func (Identity) TableName() string {
	return "identities"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserUID   string     `gorm:"index;size:64;not null" json:"user_uid"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Customers & Loans
// ============================================================

// Customer represents the customers collection. The five aggregate fields
// are a cache over the customer's loan set: derived, never authoritative,
// and written only by the aggregation service.
type Customer struct {
	ID            string `gorm:"primaryKey;size:64" json:"id"`
	AgentID       string `gorm:"index;size:64;not null" json:"agentId"`
	Name          string `gorm:"size:120;not null" json:"name"`
	Phone         string `gorm:"size:30" json:"phone"`
	Email         string `gorm:"size:120" json:"email,omitempty"`
	Address       string `gorm:"type:text" json:"address,omitempty"`
	RepaymentType string `gorm:"size:20;default:'WEEKLY'" json:"repaymentType"`
	Tenure        int    `gorm:"default:0" json:"tenure,omitempty"`
	KYCStatus     string `gorm:"size:20;default:'PENDING';column:kyc_status" json:"kycStatus"`
	Status        string `gorm:"size:20;default:'ACTIVE'" json:"status"`

	// Encrypted KYC blobs (AES ciphertext, opaque)
	AadhaarImage string `gorm:"type:mediumtext" json:"aadhaarImage,omitempty"`
	PanImage     string `gorm:"type:mediumtext" json:"panImage,omitempty"`
	Photo        string `gorm:"type:mediumtext" json:"photo,omitempty"`

	// Aggregates - maintained by the aggregation service only
	TotalLoanAmount      float64 `gorm:"type:decimal(15,2);default:0" json:"totalLoanAmount"`
	CurrentDueAmount     float64 `gorm:"type:decimal(15,2);default:0" json:"currentDueAmount"`
	TotalDisbursedAmount float64 `gorm:"type:decimal(15,2);default:0" json:"totalDisbursedAmount"`
	TotalPaidAmount      float64 `gorm:"type:decimal(15,2);default:0" json:"totalPaidAmount"`
	ActiveLoansCount     int     `gorm:"default:0" json:"activeLoansCount"`

	LastPaidDate int64 `json:"lastPaidDate,omitempty"`
	CreatedAt    int64 `gorm:"not null" json:"createdAt"`
}

func (Customer) TableName() string {
	return "customers"
}

// Aggregates is the set of derived customer fields recomputed from the
// loan set after every loan mutation.
type Aggregates struct {
	TotalLoanAmount      float64 `json:"totalLoanAmount"`
	CurrentDueAmount     float64 `json:"currentDueAmount"`
	TotalDisbursedAmount float64 `json:"totalDisbursedAmount"`
	TotalPaidAmount      float64 `json:"totalPaidAmount"`
	ActiveLoansCount     int     `json:"activeLoansCount"`
}

// Loan represents the loans collection. Owned by Customer (many per
// customer); every mutation re-triggers aggregation on the owner.
type Loan struct {
	ID                string  `gorm:"primaryKey;size:64" json:"id"`
	CustomerID        string  `gorm:"index;size:64;not null" json:"customerId"`
	AgentID           string  `gorm:"index;size:64;not null" json:"agentId"`
	Amount            float64 `gorm:"type:decimal(15,2);not null" json:"amount"`
	DisbursedAmount   float64 `gorm:"type:decimal(15,2);default:0" json:"disbursedAmount"`
	InterestRate      float64 `gorm:"type:decimal(5,2);default:0" json:"interestRate,omitempty"`
	RepaymentType     string  `gorm:"size:20;default:'WEEKLY'" json:"repaymentType"`
	Tenure            int     `gorm:"default:0" json:"tenure"`
	PaidAmount        float64 `gorm:"type:decimal(15,2);default:0" json:"paidAmount"`
	OutstandingAmount float64 `gorm:"type:decimal(15,2);default:0" json:"outstandingAmount"`
	Status            string  `gorm:"size:20;default:'ACTIVE';index" json:"status"`
	StartDate         int64   `gorm:"not null" json:"startDate"`
	EndDate           *int64  `json:"endDate,omitempty"`
	NextDueDate       *int64  `json:"nextDueDate,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// CountsTowardDue reports whether the loan participates in the principal,
// outstanding and disbursed aggregate sums. Closed and settled loans keep
// contributing to the lifetime paid total only.
func (l *Loan) CountsTowardDue() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusDefaulted
}

// ============================================================
// Payments, Collections, Activities
// ============================================================

// Payment types
const (
	PaymentCredit = "CREDIT"
	PaymentDebit  = "DEBIT"
)

// Payment represents the payments collection: an append-only ledger entry,
// immutable once created except for deletion.
type Payment struct {
	ID          string  `gorm:"primaryKey;size:64" json:"id"`
	CustomerID  string  `gorm:"index;size:64;not null" json:"customerId"`
	LoanID      string  `gorm:"index;size:64" json:"loanId,omitempty"`
	Amount      float64 `gorm:"type:decimal(15,2);not null" json:"amount"`
	Date        int64   `gorm:"index;not null" json:"date"`
	Type        string  `gorm:"size:10;default:'CREDIT'" json:"type"`
	CollectedBy string  `gorm:"index;size:64;not null" json:"collectedBy"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// CollectionRecord represents the collections collection: a per
// (agent, customer, loan) outstanding-balance tracker, lazily created on
// the first payment and reused afterwards.
type CollectionRecord struct {
	ID          string  `gorm:"primaryKey;size:64" json:"id"`
	AgentID     string  `gorm:"index;size:64;not null" json:"agentId"`
	CustomerID  string  `gorm:"index;size:64;not null" json:"customerId"`
	LoanID      string  `gorm:"index;size:64;not null" json:"loanId"`
	TotalDue    float64 `gorm:"type:decimal(15,2);default:0" json:"totalDue"`
	Paid        float64 `gorm:"type:decimal(15,2);default:0" json:"paid"`
	Outstanding float64 `gorm:"type:decimal(15,2);default:0" json:"outstanding"`
	Status      string  `gorm:"size:20;default:'PENDING'" json:"status"`
	DueDate     int64   `json:"dueDate,omitempty"`
}

func (CollectionRecord) TableName() string {
	return "collections"
}

// Activity represents the activities collection: an append-only audit log,
// never mutated.
type Activity struct {
	ID           string `gorm:"primaryKey;size:64" json:"id"`
	Type         string `gorm:"size:30;not null" json:"type"`
	CustomerID   string `gorm:"index;size:64;not null" json:"customerId"`
	CustomerName string `gorm:"size:120" json:"customerName,omitempty"`
	AgentID      string `gorm:"index;size:64" json:"agentId,omitempty"`
	AgentName    string `gorm:"size:120" json:"agentName,omitempty"`
	Description  string `gorm:"type:text" json:"description"`
	Timestamp    int64  `gorm:"index;not null" json:"timestamp"`
}

func (Activity) TableName() string {
	return "activities"
}

// ============================================================
// Investors & Chit Groups
// ============================================================

// Investor represents the investors collection
type Investor struct {
	ID                     string  `gorm:"primaryKey;size:64" json:"id"`
	Name                   string  `gorm:"size:120;not null" json:"name"`
	Amount                 float64 `gorm:"type:decimal(15,2);not null" json:"amount"`
	MonthlyInterestPercent float64 `gorm:"type:decimal(5,2);default:0" json:"monthlyInterestPercent"`
	ExpectedReturn         float64 `gorm:"type:decimal(15,2);default:0" json:"expectedReturn"`
	JoinedAt               int64   `gorm:"not null" json:"joinedAt"`
	Status                 string  `gorm:"size:20;default:'ACTIVE'" json:"status"`
}

func (Investor) TableName() string {
	return "investors"
}

// StringList stores a JSON-encoded list of ids in a text column
type StringList []string

// Value implements driver.Valuer
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported StringList source type")
	}
}

// ChitGroup represents the chit_groups collection
type ChitGroup struct {
	ID                       string     `gorm:"primaryKey;size:64" json:"id"`
	Name                     string     `gorm:"size:120;not null" json:"name"`
	Value                    float64    `gorm:"type:decimal(15,2);not null" json:"value"`
	WeeklyInstallment        float64    `gorm:"type:decimal(15,2);default:0" json:"weeklyInstallment"`
	DurationWeeks            int        `gorm:"default:0" json:"durationWeeks"`
	MembersCount             int        `gorm:"default:0" json:"membersCount"`
	ForemanCommissionPercent float64    `gorm:"type:decimal(5,2);default:0" json:"foremanCommissionPercent"`
	StartDate                string     `gorm:"size:30" json:"startDate"`
	EndDate                  string     `gorm:"size:30" json:"endDate"`
	Status                   string     `gorm:"size:20;default:'UPCOMING'" json:"status"`
	Members                  StringList `gorm:"type:text" json:"members"`
}

func (ChitGroup) TableName() string {
	return "chit_groups"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates the collections if they do not exist
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Identity{},
		&RefreshToken{},
		&Customer{},
		&Loan{},
		&Payment{},
		&CollectionRecord{},
		&Activity{},
		&Investor{},
		&ChitGroup{},
	)
}
