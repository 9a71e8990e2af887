package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/internal/handler"
	"github.com/cchoiyon/PUBLISHTHIS/internal/jobs"
	mid "github.com/cchoiyon/PUBLISHTHIS/internal/middleware"
	"github.com/cchoiyon/PUBLISHTHIS/internal/repository"
	"github.com/cchoiyon/PUBLISHTHIS/internal/service"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/cache"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/config"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/database"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/events"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/jwtutil"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/logger"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/mailer"
	"github.com/cchoiyon/PUBLISHTHIS/pkg/storage"
	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	if err := appConfig.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	log.Info("Starting restaurant-api", appConfig.LogFields()...)

	// Initialize database
	db, err := database.InitDB(appConfig, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx := context.Background()

	cuisineCache := newCache(ctx, appConfig, log)
	fileStore := newFileStore(ctx, appConfig, log)

	var outbound mailer.Mailer = mailer.NewLogMailer(log)
	if appConfig.SMTP.Enabled {
		outbound = mailer.NewSMTPMailer(appConfig.SMTP)
	}
	mail := mailer.NewAsyncSender(outbound, log, 30*time.Second)

	var publisher events.Publisher = events.NopPublisher{}
	if appConfig.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(appConfig.Kafka)
		log.Info("Kafka publisher enabled",
			zap.Strings("brokers", appConfig.Kafka.Brokers),
			zap.String("topic", appConfig.Kafka.Topic))
	}
	notifier := events.NewNotifier(publisher, log, 5*time.Second)

	// Repositories and services
	users := repository.NewUserRepository(db)
	restaurants := repository.NewRestaurantRepository(db)
	reviews := repository.NewReviewRepository(db)
	reservations := repository.NewReservationRepository(db)
	images := repository.NewImageRepository(db)

	jwt := jwtutil.NewJWTUtil(&appConfig.JWT)
	accountService := service.NewAccountService(users, jwt, mail, service.AccountConfig{
		WebAppURL:       appConfig.WebAppURL(),
		TwoFactorTTL:    appConfig.Security.TwoFactorTTL,
		VerificationTTL: appConfig.Security.VerificationTTL,
		ResetTTL:        appConfig.Security.ResetTTL,
	}, log)
	restaurantService := service.NewRestaurantService(restaurants, reviews, images, fileStore, cuisineCache,
		appConfig.FileStorage.MaxUploadBytes, log)
	reviewService := service.NewReviewService(reviews, restaurants, notifier, log)
	reservationService := service.NewReservationService(reservations, restaurants, notifier, mail, log)
	insightService := service.NewInsightService(restaurants, reviews, reservations)

	limiter := mid.NewRateLimiter(appConfig.RateLimit.RPS, appConfig.RateLimit.Burst)
	sweeper := jobs.NewSweeper(users, limiter, log)
	if err := sweeper.Start(appConfig.Security.SweepSchedule); err != nil {
		log.Fatal("Failed to start token sweeper", zap.Error(err))
	}

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(bodyLimit(appConfig.FileStorage.MaxUploadBytes)))

	// Routes
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.GET("/health", handler.Health(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}))
	if appConfig.FileStorage.Backend == "local" {
		e.Static(appConfig.FileStorage.WebPath, appConfig.FileStorage.Root)
	}

	handler.RegisterRoutes(e, handler.Handlers{
		Account:      handler.NewAccountHandler(accountService),
		Restaurants:  handler.NewRestaurantHandler(restaurantService),
		Reviews:      handler.NewReviewHandler(reviewService),
		Reservations: handler.NewReservationHandler(reservationService),
		Charts:       handler.NewChartHandler(insightService),
		Dashboard:    handler.NewDashboardHandler(insightService),
	}, mid.NewAuth(jwt), limiter)

	// Start server
	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	sweeper.Stop(shutdownCtx)
	mail.Wait()
	closeAll(log, db, publisher, cuisineCache)
	log.Info("Server stopped")
}

func newCache(ctx context.Context, cfg *config.Config, log *zap.Logger) cache.Cache {
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err == nil {
			log.Info("Using Redis cache", zap.String("addr", cfg.Redis.Addr))
			return redisCache
		}
		log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
	}
	return cache.NewMemoryCache(256, time.Hour)
}

func newFileStore(ctx context.Context, cfg *config.Config, log *zap.Logger) storage.Store {
	if cfg.FileStorage.Backend == "s3" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		log.Info("Using S3 storage", zap.String("bucket", cfg.S3.Bucket))
		return s3Store
	}
	log.Info("Using local storage", zap.String("root", cfg.FileStorage.Root))
	return storage.NewLocalStore(cfg.FileStorage.Root, cfg.FileStorage.WebPath)
}

// bodyLimit leaves room for multipart overhead above the upload limit
func bodyLimit(maxUpload int64) string {
	mb := maxUpload/(1024*1024) + 1
	if mb < 2 {
		mb = 2
	}
	return strconv.FormatInt(mb, 10) + "M"
}

func closeAll(log *zap.Logger, db *gorm.DB, publisher events.Publisher, c cache.Cache) {
	if err := publisher.Close(); err != nil {
		log.Error("Failed to close event publisher", zap.Error(err))
	}
	if err := c.Close(); err != nil {
		log.Error("Failed to close cache", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}
}
