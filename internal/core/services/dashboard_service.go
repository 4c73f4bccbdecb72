package services

import (
	"context"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DashboardStats is the admin console overview
type DashboardStats struct {
	TotalCustomers   int     `json:"totalCustomers"`
	ActiveLoansCount int     `json:"activeLoansCount"`
	TotalPortfolio   float64 `json:"totalPortfolio"`
	TotalOutstanding float64 `json:"totalOutstanding"`
	TotalCollected   float64 `json:"totalCollected"`
	TotalInvested    float64 `json:"totalInvested"`
	AgentsCount      int     `json:"agentsCount"`

	RecentPayments   []*models.Payment  `json:"recentPayments"`
	RecentActivities []*models.Activity `json:"recentActivities"`
}

// DashboardService computes the console overview by folding the customer
// aggregate caches. Concurrent requests for the stats coalesce into one
// computation; the result of an in-flight fold is safe to share because
// reads have no ordering to preserve.
type DashboardService struct {
	customerRepo repositories.CustomerRepository
	userRepo     repositories.UserRepository
	paymentRepo  repositories.PaymentRepository
	activityRepo repositories.ActivityRepository
	investorRepo repositories.InvestorRepository
	log          *zap.Logger

	group singleflight.Group
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	customerRepo repositories.CustomerRepository,
	userRepo repositories.UserRepository,
	paymentRepo repositories.PaymentRepository,
	activityRepo repositories.ActivityRepository,
	investorRepo repositories.InvestorRepository,
	log *zap.Logger,
) *DashboardService {
	return &DashboardService{
		customerRepo: customerRepo,
		userRepo:     userRepo,
		paymentRepo:  paymentRepo,
		activityRepo: activityRepo,
		investorRepo: investorRepo,
		log:          log,
	}
}

// GetStats returns the console overview
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	result, err, _ := s.group.Do("stats", func() (interface{}, error) {
		return s.computeStats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*DashboardStats), nil
}

func (s *DashboardService) computeStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	// 1. Fold the customer aggregate caches
	customers, err := s.customerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalCustomers = len(customers)
	for _, c := range customers {
		stats.ActiveLoansCount += c.ActiveLoansCount
		stats.TotalPortfolio += c.TotalLoanAmount
		stats.TotalOutstanding += c.CurrentDueAmount
		stats.TotalCollected += c.TotalPaidAmount
	}

	// 2. Headcounts and capital
	agents, err := s.userRepo.GetAgents(ctx)
	if err != nil {
		return nil, err
	}
	stats.AgentsCount = len(agents)

	investors, err := s.investorRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, inv := range investors {
		if inv.Status == models.StatusActive {
			stats.TotalInvested += inv.Amount
		}
	}

	// 3. Recent movement
	if stats.RecentPayments, err = s.paymentRepo.GetRecent(ctx, 10); err != nil {
		return nil, err
	}
	if stats.RecentActivities, err = s.activityRepo.GetAll(ctx); err != nil {
		return nil, err
	}
	if len(stats.RecentActivities) > 10 {
		stats.RecentActivities = stats.RecentActivities[:10]
	}

	return stats, nil
}
