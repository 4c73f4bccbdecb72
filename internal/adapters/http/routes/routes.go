package routes

import (
	"chitfund-backoffice/internal/adapters/http/handlers"
	"chitfund-backoffice/internal/adapters/http/middleware"
	"chitfund-backoffice/internal/adapters/persistence/repositories"
	"chitfund-backoffice/internal/config"
	"chitfund-backoffice/internal/core/services"
	"chitfund-backoffice/internal/identity"
	"chitfund-backoffice/internal/pkg/crypto"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup wires repositories, services, handlers and routes, and returns the
// reconcile service for the caller to schedule.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, log *zap.Logger) *services.ReconcileService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	collectionRepo := repositories.NewCollectionRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	investorRepo := repositories.NewInvestorRepository(db)
	chitGroupRepo := repositories.NewChitGroupRepository(db)

	// Identity provider and field codec
	provider := identity.NewLocalProvider(db, cfg.Auth.PasswordLoginEnabled)
	codec := crypto.NewCodec(cfg.Auth.EncryptionKey)

	// Initialize services
	authService := services.NewAuthService(provider, userRepo, refreshTokenRepo, cfg, log)
	userService := services.NewUserService(userRepo, codec, log)
	aggregationService := services.NewAggregationService(customerRepo, loanRepo, log)
	customerService := services.NewCustomerService(customerRepo, activityRepo, userRepo, codec, cfg, log)
	loanService := services.NewLoanService(loanRepo, customerRepo, activityRepo, aggregationService, log)
	paymentService := services.NewPaymentService(paymentRepo, collectionRepo, customerRepo, activityRepo, loanService, log)
	collectionService := services.NewCollectionService(collectionRepo, log)
	activityService := services.NewActivityService(activityRepo)
	investorService := services.NewInvestorService(investorRepo, log)
	chitGroupService := services.NewChitGroupService(chitGroupRepo, customerRepo, log)
	dashboardService := services.NewDashboardService(customerRepo, userRepo, paymentRepo, activityRepo, investorRepo, log)
	reconcileService := services.NewReconcileService(customerRepo, userRepo, refreshTokenRepo, aggregationService, provider, cfg, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	loanHandler := handlers.NewLoanHandler(loanService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	collectionHandler := handlers.NewCollectionHandler(collectionService)
	activityHandler := handlers.NewActivityHandler(activityService)
	investorHandler := handlers.NewInvestorHandler(investorService)
	chitGroupHandler := handlers.NewChitGroupHandler(chitGroupService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public, tighter rate limit)
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", middleware.AuthMiddleware(authService), authHandler.Me)
	authRoutes.Post("/logout-all", middleware.AuthMiddleware(authService), authHandler.LogoutAll)

	// Everything below requires a session
	authed := middleware.AuthMiddleware(authService)

	// User management (admin only except self-service profile updates)
	userRoutes := apiV1.Group("/users", authed)
	userRoutes.Post("/", middleware.AdminOnly(), userHandler.Invite)
	userRoutes.Get("/", middleware.AdminOnly(), userHandler.List)
	userRoutes.Get("/agents", middleware.AdminOnly(), userHandler.GetAgents)
	userRoutes.Get("/:uid", userHandler.Get)
	userRoutes.Patch("/:uid", userHandler.Update)
	userRoutes.Put("/:uid/photo", middleware.UploadRateLimiter(), userHandler.UpdatePhoto)
	userRoutes.Get("/:uid/photo", userHandler.GetPhoto)
	userRoutes.Delete("/:uid", middleware.AdminOnly(), userHandler.Delete)

	// Customers
	customerRoutes := apiV1.Group("/customers", authed)
	customerRoutes.Post("/", middleware.UploadRateLimiter(), customerHandler.Create)
	customerRoutes.Get("/", customerHandler.List)
	customerRoutes.Get("/:id", customerHandler.Get)
	customerRoutes.Patch("/:id", middleware.UploadRateLimiter(), customerHandler.Update)
	customerRoutes.Post("/:id/reassign", middleware.AdminOnly(), customerHandler.Reassign)
	customerRoutes.Delete("/:id", middleware.AdminOnly(), customerHandler.Delete)
	customerRoutes.Get("/:id/loans", loanHandler.GetByCustomer)
	customerRoutes.Get("/:id/payments", paymentHandler.GetByCustomer)
	customerRoutes.Get("/:id/collections", collectionHandler.GetByCustomer)
	customerRoutes.Get("/:id/activities", activityHandler.GetByCustomer)

	// Loans
	loanRoutes := apiV1.Group("/loans", authed)
	loanRoutes.Post("/", middleware.AgentOrAdmin(), loanHandler.Create)
	loanRoutes.Get("/", loanHandler.List)
	loanRoutes.Get("/:id", loanHandler.Get)
	loanRoutes.Patch("/:id/status", loanHandler.UpdateStatus)
	loanRoutes.Delete("/:id", middleware.AdminOnly(), loanHandler.Delete)

	// Payments
	paymentRoutes := apiV1.Group("/payments", authed)
	paymentRoutes.Post("/", middleware.AgentOrAdmin(), paymentHandler.Record)
	paymentRoutes.Get("/", paymentHandler.List)
	paymentRoutes.Get("/recent", paymentHandler.Recent)
	paymentRoutes.Delete("/:id", middleware.AdminOnly(), paymentHandler.Delete)

	// Collections
	collectionRoutes := apiV1.Group("/collections", authed)
	collectionRoutes.Get("/", collectionHandler.List)

	// Activities
	activityRoutes := apiV1.Group("/activities", authed)
	activityRoutes.Get("/", activityHandler.List)

	// Investors (admin only)
	investorRoutes := apiV1.Group("/investors", authed, middleware.AdminOnly())
	investorRoutes.Post("/", investorHandler.Create)
	investorRoutes.Get("/", investorHandler.List)
	investorRoutes.Get("/:id", investorHandler.Get)
	investorRoutes.Patch("/:id", investorHandler.Update)
	investorRoutes.Delete("/:id", investorHandler.Delete)

	// Chit groups (admin manages, agents read)
	chitGroupRoutes := apiV1.Group("/chit-groups", authed)
	chitGroupRoutes.Post("/", middleware.AdminOnly(), chitGroupHandler.Create)
	chitGroupRoutes.Get("/", chitGroupHandler.List)
	chitGroupRoutes.Get("/:id", chitGroupHandler.Get)
	chitGroupRoutes.Post("/:id/members", middleware.AdminOnly(), chitGroupHandler.AddMember)
	chitGroupRoutes.Delete("/:id/members/:customerId", middleware.AdminOnly(), chitGroupHandler.RemoveMember)
	chitGroupRoutes.Patch("/:id/status", middleware.AdminOnly(), chitGroupHandler.UpdateStatus)

	// Dashboard (admin only)
	dashboardRoutes := apiV1.Group("/dashboard", authed, middleware.AdminOnly())
	dashboardRoutes.Get("/", dashboardHandler.Stats)

	return reconcileService
}
