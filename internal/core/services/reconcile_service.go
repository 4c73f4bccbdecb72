package services

import (
	"context"
	"errors"
	"time"

	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/adapters/persistence/repositories"
	"chitfund-backoffice/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IdentityDirectory is the sweep's view of the identity provider:
// enumerate identities and remove the ones nothing references.
type IdentityDirectory interface {
	List(ctx context.Context) ([]*models.Identity, error)
	DeleteIdentity(ctx context.Context, uid string) error
}

// ReconcileService runs the nightly consistency sweep: recompute every
// customer's aggregates from the loan sets, drop identities that lost
// their role record, and purge expired refresh tokens.
type ReconcileService struct {
	customerRepo     repositories.CustomerRepository
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	aggregation      *AggregationService
	directory        IdentityDirectory
	cfg              *config.Config
	log              *zap.Logger

	cron *cron.Cron
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(
	customerRepo repositories.CustomerRepository,
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	aggregation *AggregationService,
	directory IdentityDirectory,
	cfg *config.Config,
	log *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		customerRepo:     customerRepo,
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		aggregation:      aggregation,
		directory:        directory,
		cfg:              cfg,
		log:              log,
	}
}

// Start schedules the nightly sweep
func (s *ReconcileService) Start() error {
	s.cron = cron.New()

	// Nightly, after the day's collections have settled
	if _, err := s.cron.AddFunc("30 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.Run(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("⏰ nightly reconcile scheduled", zap.String("schedule", "30 2 * * *"))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (s *ReconcileService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Run executes one full sweep
func (s *ReconcileService) Run(ctx context.Context) {
	s.log.Info("🔄 reconcile sweep starting")

	repaired := s.recomputeAllAggregates(ctx)
	orphans := s.sweepOrphanedIdentities(ctx)

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		s.log.Error("expired token purge failed", zap.Error(err))
	}

	s.log.Info("✅ reconcile sweep finished",
		zap.Int("customersRecomputed", repaired),
		zap.Int("orphanedIdentitiesRemoved", orphans))
}

// recomputeAllAggregates rebuilds every customer's derived fields. Loan
// mutations whose inline recompute failed are repaired here.
func (s *ReconcileService) recomputeAllAggregates(ctx context.Context) int {
	customers, err := s.customerRepo.ListAll(ctx)
	if err != nil {
		s.log.Error("reconcile: customer listing failed", zap.Error(err))
		return 0
	}

	count := 0
	for _, customer := range customers {
		if err := s.aggregation.Recompute(ctx, customer.ID); err != nil {
			s.log.Error("reconcile: recompute failed",
				zap.String("customerId", customer.ID), zap.Error(err))
			continue
		}
		count++
	}
	return count
}

// sweepOrphanedIdentities removes identities whose role record is gone,
// the debris of deleted users and interrupted claim rollbacks. The root
// admin is exempt: its record is recreated on next login.
func (s *ReconcileService) sweepOrphanedIdentities(ctx context.Context) int {
	identities, err := s.directory.List(ctx)
	if err != nil {
		s.log.Error("reconcile: identity listing failed", zap.Error(err))
		return 0
	}

	count := 0
	for _, ident := range identities {
		if ident.Email == s.cfg.Auth.RootAdminEmail {
			continue
		}

		_, err := s.userRepo.GetByUID(ctx, ident.UID)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("reconcile: role record lookup failed",
				zap.String("uid", ident.UID), zap.Error(err))
			continue
		}

		if err := s.directory.DeleteIdentity(ctx, ident.UID); err != nil {
			s.log.Error("reconcile: orphan removal failed",
				zap.String("uid", ident.UID), zap.Error(err))
			continue
		}
		s.log.Warn("🧹 orphaned identity removed",
			zap.String("uid", ident.UID), zap.String("email", ident.Email))
		count++
	}
	return count
}
