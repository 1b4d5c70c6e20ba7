package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"dial2tech_backend/database"
	"dial2tech_backend/internal/auth"
	"dial2tech_backend/internal/config"
	"dial2tech_backend/internal/email"
	"dial2tech_backend/internal/handlers"
	"dial2tech_backend/internal/logger"
	"dial2tech_backend/internal/middleware"
	"dial2tech_backend/internal/models"
	"dial2tech_backend/internal/payments"
	"dial2tech_backend/internal/push"
	"dial2tech_backend/internal/repositories"
	"dial2tech_backend/internal/routes"
	"dial2tech_backend/internal/services"
	"dial2tech_backend/internal/validator"
	"dial2tech_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not found, relying on environment")
	}

	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter, startWorkers := SetupRouter(cfg, gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWorkers(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter builds the full dependency graph and returns the router plus
// a function that starts the background workers.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, func(context.Context)) {
	// Repositories
	userRepo := repositories.NewUserRepository(gormDB)
	enquiryRepo := repositories.NewEnquiryRepository(gormDB)
	quoteRepo := repositories.NewQuoteRepository(gormDB)
	paymentRepo := repositories.NewPaymentRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	outboxRepo := repositories.NewOutboxRepository(gormDB)

	// Outbound channels
	emailProvider, emailRenderer := buildEmailProvider(cfg)
	pushSender := push.NewHTTPSender(cfg.Push.Endpoint, cfg.Push.ServerKey)
	gateway := payments.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.Secret)

	// Services
	emailService := services.NewEmailService(emailProvider, cfg.Server.PublicURL)
	authService := services.NewAuthService(userRepo, emailService)
	userService := services.NewUserService(userRepo)
	enquiryService := services.NewEnquiryService(enquiryRepo, quoteRepo, userRepo, notificationRepo, emailRenderer)
	paymentService := services.NewPaymentService(paymentRepo, quoteRepo, enquiryRepo,
		userRepo, notificationRepo, gateway, cfg.Gateway.Currency)
	notificationService := services.NewNotificationService(notificationRepo)

	// Handlers
	baseHandler := handlers.NewBaseHandler(validator.New())
	appHandlers := &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, authService, userService),
		UserHandler:         handlers.NewUserHandler(baseHandler, userService),
		EnquiryHandler:      handlers.NewEnquiryHandler(baseHandler, enquiryService),
		PaymentHandler:      handlers.NewPaymentHandler(baseHandler, paymentService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, notificationService),
	}

	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers)

	dispatchWorker := workers.NewDispatchWorker(
		outboxRepo,
		pushSender,
		emailService,
		time.Duration(cfg.Dispatch.IntervalSeconds)*time.Second,
		cfg.Dispatch.BatchSize,
		cfg.Dispatch.MaxAttempts,
	)
	cleanupWorker := workers.NewCleanupWorker(notificationRepo)

	startWorkers := func(ctx context.Context) {
		dispatchWorker.Start(ctx)
		cleanupWorker.Start(ctx)
		logger.Info("Background workers started")
	}

	return ginRouter, startWorkers
}

// buildEmailProvider builds the SMTP provider and the template renderer it
// shares with the enquiry service's outbox dispatches.
func buildEmailProvider(cfg *config.Config) (email.Provider, email.TemplateRenderer) {
	renderer := email.NewTemplateManager()
	if cfg.Email.TemplatesDir != "" {
		if _, err := os.Stat(cfg.Email.TemplatesDir); err == nil {
			if err := renderer.LoadTemplates(cfg.Email.TemplatesDir); err != nil {
				logger.Warn("Failed to load email templates, using built-ins", "error", err)
			}
		}
	}

	provider := email.NewSMTPProvider(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		UseTLS:    cfg.Email.UseTLS,
		Timeout:   30 * time.Second,
	}, renderer)

	if err := provider.Validate(); err != nil {
		logger.Warn("Email provider configuration incomplete, sends will fail", "error", err)
	}
	return provider, renderer
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		logger.Warn("Admin email or password not configured, skipping admin seeding")
		return nil
	}

	var admin models.User
	result := db.Where("email = ?", cfg.Admin.Email).First(&admin)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        cfg.Admin.Email,
		PasswordHash: hash,
		Name:         cfg.Admin.Name,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusApproved,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("First admin user created", "email", cfg.Admin.Email)
	return nil
}
