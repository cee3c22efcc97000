package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/projectboard/backend/internal/config"
	"github.com/projectboard/backend/internal/handlers"
	"github.com/projectboard/backend/internal/logger"
	"github.com/projectboard/backend/internal/middleware"
	"github.com/projectboard/backend/internal/models"
	"github.com/projectboard/backend/internal/repositories"
	"github.com/projectboard/backend/internal/services"
	"github.com/projectboard/backend/internal/storage"
	"github.com/projectboard/backend/internal/token"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting ProjectBoard API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := token.NewGenerator(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Asynq client for the notification queue
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Attachment storage on local disk
	fileStore := storage.NewLocalStore(cfg.UploadDir)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	sessionRepo := repositories.NewSessionRepository(db)
	projectRepo := repositories.NewProjectRepository(db, logger.Logger)
	membershipRepo := repositories.NewMembershipRepository(db)
	taskRepo := repositories.NewTaskRepository(db, logger.Logger)
	attachmentRepo := repositories.NewAttachmentRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, sessionRepo, tokenGenerator, cfg.Session.TTL, logger.Logger)
	authzService := services.NewAuthzService(projectRepo, membershipRepo, logger.Logger)
	notificationService := services.NewNotificationService(notificationRepo, asynqClient, logger.Logger)
	projectService := services.NewProjectService(projectRepo, membershipRepo, userRepo, activityRepo, authzService, logger.Logger)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, attachmentRepo, activityRepo, auditRepo, notificationService, fileStore, logger.Logger)
	paymentService := services.NewPaymentService(paymentRepo, cfg.Payments.ProjectID, cfg.Payments.Password, cfg.APIBase, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger.Logger)
	projectHandler := handlers.NewProjectHandler(projectService, logger.Logger)
	taskHandler := handlers.NewTaskHandler(taskService, logger.Logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger.Logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger.Logger)

	// Auth middleware and per-project role guard
	authMiddleware := middleware.AuthMiddleware(authService, logger.Logger)
	guard := handlers.RoleGuard(func(required ...models.ProjectRole) func(http.Handler) http.Handler {
		return middleware.RequireProjectRoles(authzService, logger.Logger, required...)
	})

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(10 * 1024 * 1024)) // 10MB

	// Public routes
	authHandler.RegisterRoutes(r)
	paymentHandler.RegisterWebhookRoutes(r)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		authHandler.RegisterProtectedRoutes(r)
		projectHandler.RegisterRoutes(r, guard)
		taskHandler.RegisterRoutes(r, guard)
		notificationHandler.RegisterRoutes(r)
		paymentHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
