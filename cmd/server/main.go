package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/cache"
	"github.com/smarttransit/bus-booking-backend/internal/config"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/smarttransit/bus-booking-backend/internal/events"
	"github.com/smarttransit/bus-booking-backend/internal/handlers"
	"github.com/smarttransit/bus-booking-backend/internal/middleware"
	"github.com/smarttransit/bus-booking-backend/internal/services"
	"github.com/smarttransit/bus-booking-backend/internal/utils"
	"github.com/smarttransit/bus-booking-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit Bus Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"url":    database.MaskPassword(cfg.Database.URL),
	}).Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
		logger.Info("Database schema applied")
	}

	// Initialize repositories
	routeRepo := database.NewRouteRepository(db)
	busRepo := database.NewBusRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	userRepo := database.NewUserRepository(db)
	reportRepo := database.NewReportRepository(db)

	// Optional integrations
	var busCache services.BusCache
	var cachePinger handlers.CachePinger
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisBusCache(cache.NewRedisClient(cfg.Redis), cfg.Redis.TTL)
		defer func() {
			if err := redisCache.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close bus cache")
			}
		}()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.WithError(err).Warn("Redis unreachable, bus cache will miss until it recovers")
		}
		cancel()

		busCache, cachePinger = redisCache, redisCache
		logger.WithField("addr", cfg.Redis.Addr).Info("Bus cache enabled")
	}

	bookingOpts := []services.BookingOption{services.WithUserProvisioner(userRepo)}
	if busCache != nil {
		bookingOpts = append(bookingOpts, services.WithBusCache(busCache))
	}
	if cfg.Kafka.Enabled() {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close booking event publisher")
			}
		}()
		bookingOpts = append(bookingOpts, services.WithEventPublisher(publisher))
		logger.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("Booking events enabled")
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	routeService := services.NewRouteService(routeRepo, logger)
	busService := services.NewBusService(busRepo, routeRepo, busCache, logger)
	bookingService := services.NewBookingService(
		bookingRepo, busRepo, utils.NewBookingReferenceGenerator(), logger, bookingOpts...,
	)
	userService := services.NewUserService(userRepo, logger)
	reportService := services.NewReportService(reportRepo)
	reconciliationService := services.NewReconciliationService(reportRepo, logger)

	// Interfaces stay untyped nil when auditing is off so handlers can detect it
	var (
		auditLogger    handlers.AuditLogger
		activityReader handlers.ActivityReader
	)
	if cfg.Security.EnableAuditLog {
		auditService := services.NewAuditService(db)
		auditLogger = auditService
		activityReader = auditService
	}

	// Start inventory reconciliation
	var cronService *services.CronService
	if cfg.Reconciliation.Enabled {
		cronService = services.NewCronService(reconciliationService, cfg.Reconciliation.Schedule, logger)
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
	}

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck(db, cachePinger, version))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Auth:     middleware.AuthMiddleware(jwtService, logger),
		Routes:   handlers.NewRouteHandler(routeService, auditLogger, logger),
		Buses:    handlers.NewBusHandler(busService, auditLogger, logger),
		Bookings: handlers.NewBookingHandler(bookingService, auditLogger, logger),
		Admin: handlers.NewAdminHandler(
			userService, reportService, reconciliationService, activityReader, auditLogger, logger,
		),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cronService != nil {
		logger.Info("Stopping cron service...")
		cronService.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// allowsAnyOrigin reports a wildcard origin, which cors rejects alongside credentials
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
