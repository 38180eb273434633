package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/yowaacademy/backend/docs"
	"github.com/yowaacademy/backend/internal/auth/service"
	"github.com/yowaacademy/backend/internal/config"
	"github.com/yowaacademy/backend/internal/handlers"
	"github.com/yowaacademy/backend/internal/logger"
	loggerMiddleware "github.com/yowaacademy/backend/internal/logger/middleware"
	"github.com/yowaacademy/backend/internal/middlewares"
	"github.com/yowaacademy/backend/internal/notifications"
	"github.com/yowaacademy/backend/internal/payment"
	"github.com/yowaacademy/backend/internal/repositories"
	"github.com/yowaacademy/backend/internal/services"
	"github.com/yowaacademy/backend/internal/storage"
	"go.uber.org/zap"
)

const version = "1.0.0"

// routeRegistrar is implemented by every guarded API handler
type routeRegistrar interface {
	RegisterRoutes(r chi.Router, guards handlers.Guards)
	SetShowErrorDetail(show bool)
}

// @title YowaAcademy API
// @version 1.0
// @description Course marketplace API: catalogue, enrollment, payments, promotions and lead intake

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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

	logger.Logger.Info("Starting YowaAcademy API", zap.String("env", cfg.Env))

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

	// Redis is only probed by the detailed health check, the API keeps serving without it
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	notifier := notifications.NewNotifier(asynqClient, logger.Logger)

	// Initialize JWT token generator
	tokenGenerator := service.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Media storage
	images := storage.NewImageProcessor(storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.BaseURL), logger.Logger)

	gateway := newPaymentGateway(cfg)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db, logger.Logger)
	courseRepo := repositories.NewCourseRepository(db, logger.Logger)
	enrollmentRepo := repositories.NewEnrollmentRepository(db, logger.Logger)
	paymentIntentRepo := repositories.NewPaymentIntentRepository(db)
	couponRepo := repositories.NewCouponRepository(db, logger.Logger)
	campaignRepo := repositories.NewCampaignRepository(db, logger.Logger)
	instructorRepo := repositories.NewInstructorRepository(db, logger.Logger)
	leadRepo := repositories.NewLeadRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db, logger.Logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, userTokenRepo, tokenGenerator, images, notifier, logger.Logger)
	userService := services.NewUserService(userRepo, images, logger.Logger)
	courseService := services.NewCourseService(courseRepo, categoryRepo, images, logger.Logger)
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, notifier, logger.Logger)
	paymentService := services.NewPaymentService(gateway, paymentIntentRepo, enrollmentRepo, userRepo, courseRepo, notifier, logger.Logger)
	categoryService := services.NewCategoryService(categoryRepo, courseRepo, logger.Logger)
	couponService := services.NewCouponService(couponRepo, logger.Logger)
	campaignService := services.NewCampaignService(campaignRepo, courseRepo, logger.Logger)
	instructorService := services.NewInstructorService(instructorRepo, notifier, logger.Logger)
	applicationService := services.NewApplicationService(leadRepo, applicationRepo, courseRepo, notifier, logger.Logger)

	// Initialize handlers
	showErrorDetail := !cfg.IsProduction()
	routeHandlers := []routeRegistrar{
		handlers.NewAuthHandler(authService, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry, logger.Logger),
		handlers.NewUserHandler(userService, logger.Logger),
		handlers.NewCourseHandler(courseService, enrollmentService, logger.Logger),
		handlers.NewEnrollmentHandler(enrollmentService, logger.Logger),
		handlers.NewPaymentHandler(paymentService, logger.Logger),
		handlers.NewCategoryHandler(categoryService, logger.Logger),
		handlers.NewCouponHandler(couponService, logger.Logger),
		handlers.NewCampaignHandler(campaignService, logger.Logger),
		handlers.NewInstructorHandler(instructorService, logger.Logger),
		handlers.NewApplicationHandler(applicationService, logger.Logger),
	}
	for _, h := range routeHandlers {
		h.SetShowErrorDetail(showErrorDetail)
	}

	healthHandler := handlers.NewHealthHandler(cfg.Env, version, map[string]handlers.HealthCheck{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}, logger.Logger)

	// Initialize auth guards
	guards := handlers.NewGuards(tokenGenerator, userRepo)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middlewares.NewHTTPMetrics(prometheus.DefaultRegisterer).Middleware)
	}
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(20 * 1024 * 1024)) // 20MB, covers cover uploads

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Uploaded media is served locally unless it lives on an external host
	if strings.HasPrefix(cfg.Upload.BaseURL, "/") {
		r.Handle(cfg.Upload.BaseURL+"/*", http.StripPrefix(cfg.Upload.BaseURL, http.FileServer(http.Dir(cfg.Upload.Dir))))
	}

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		for _, h := range routeHandlers {
			h.RegisterRoutes(r, guards)
		}
		healthHandler.RegisterRoutes(r)
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// newPaymentGateway selects the checkout provider
func newPaymentGateway(cfg *config.Config) payment.Gateway {
	if cfg.Payment.Provider == config.PaymentProviderMidtrans {
		logger.Logger.Info("Using Midtrans payment gateway", zap.Bool("production", cfg.Payment.MidtransUseProd))
		return payment.NewMidtransGateway(cfg.Payment.MidtransServerKey, cfg.Payment.MidtransUseProd, logger.Logger)
	}
	logger.Logger.Warn("Using test payment gateway, payments are confirmed without a provider")
	return payment.NewTestGateway()
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

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directories if running from cmd/api
		if _, err := os.Stat("../../migrations"); err == nil {
			migrationPath = "file://../../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
