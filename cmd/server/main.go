package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"chitfund-backoffice/internal/adapters/http/middleware"
	"chitfund-backoffice/internal/adapters/http/routes"
	"chitfund-backoffice/internal/adapters/persistence/models"
	"chitfund-backoffice/internal/config"
	"chitfund-backoffice/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// @title Chitfund Backoffice API
// @version 1.0
// @description Back-office API for chit fund and micro-loan operations
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@chitfund.example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host console.chitfund.example.com
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Structured logger
	zlog, err := logger.New(cfg.AppMode)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to database
	db, err := config.ConnectDatabase(cfg, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to connect to database", zap.Error(err))
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		zlog.Fatal("❌ Failed to auto migrate", zap.Error(err))
	}
	zlog.Info("✅ Database migration completed")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Chitfund Backoffice API v1.0",
		BodyLimit:    25 * 1024 * 1024, // KYC images arrive base64-encoded
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes; wiring hands back the reconcile service
	reconcileService := routes.Setup(app, db, cfg, zlog)

	// Nightly consistency sweep
	if err := reconcileService.Start(); err != nil {
		zlog.Fatal("❌ Failed to schedule reconcile sweep", zap.Error(err))
	}
	defer reconcileService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app, zlog)

	// Start server
	zlog.Info("🚀 Server starting",
		zap.String("port", cfg.Port),
		zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, zlog *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		zlog.Error("❌ Error during shutdown", zap.Error(err))
	}
	zlog.Info("✅ Server stopped gracefully")
}
