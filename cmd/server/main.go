package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepoint/backend/internal/classifier"
	"github.com/carepoint/backend/internal/config"
	"github.com/carepoint/backend/internal/delivery/http"
	"github.com/carepoint/backend/internal/lesion"
	"github.com/carepoint/backend/internal/logger"
	"github.com/carepoint/backend/internal/matcher"
	"github.com/carepoint/backend/internal/notify"
	"github.com/carepoint/backend/internal/repository/cache"
	"github.com/carepoint/backend/internal/repository/memory"
	"github.com/carepoint/backend/internal/repository/postgres"
	"github.com/carepoint/backend/internal/service"
)

func main() {
	// Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("error", "console").Fatal(err.Error())
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Dependency Injection: Repositories
	var dataRepo service.DataRepository
	pool := connectDatabase(ctx, cfg.Database.URL, log)
	if pool != nil {
		defer pool.Close()
		pgRepo := postgres.NewPostgresRepository(pool)
		if err := pgRepo.Migrate(ctx); err != nil {
			log.Error("schema migration failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		dataRepo = pgRepo
	} else {
		log.Warn("running with in-memory storage", nil)
		dataRepo = memory.NewRepository()
	}

	var thresholdCache service.ThresholdCache
	if cfg.Redis.Address != "" {
		client := cache.NewRedis(cfg.Redis)
		defer client.Close()
		tc := cache.NewThresholdCache(client, cfg.Redis.TTL)
		if err := tc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, threshold cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			thresholdCache = tc
		}
	}

	var remote service.Classifier
	if cfg.Classifier.APIKey != "" {
		remote = classifier.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.APIKey, cfg.Classifier.Model, cfg.Classifier.Timeout)
	} else {
		log.Warn("classifier API key not set, remote classification disabled", nil)
	}

	notifier, err := notify.NewAWSNotifier(ctx, cfg.Notifications, log)
	if err != nil {
		log.Warn("notifications disabled", map[string]interface{}{"error": err.Error()})
		notifier = notify.Noop{}
	}

	// Dependency Injection: Services
	thresholdSvc := service.NewThresholdService(dataRepo, thresholdCache, log)
	analysisSvc := service.NewAnalysisService(
		lesion.NewScorer(),
		thresholdSvc,
		remote,
		dataRepo,
		service.AnalysisOptions{
			Timeout:     cfg.Analysis.Timeout,
			FailOpen:    cfg.Classifier.FailOpen,
			DemoSession: cfg.Analysis.DemoSession,
		},
		log,
	)
	recommendationSvc := service.NewRecommendationService(
		matcher.New(matcher.WithPerSpecialty(cfg.Analysis.DoctorsPerSpecialty)),
		cfg.Analysis.Timeout,
		log,
	)
	accountSvc := service.NewAccountService(dataRepo, log)
	requestSvc := service.NewRequestService(dataRepo, notifier, log)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name + " " + cfg.App.Version,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: http.ErrorHandler(log),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, http.Services{
		Recommendations: recommendationSvc,
		Analysis:        analysisSvc,
		Thresholds:      thresholdSvc,
		Accounts:        accountSvc,
		Requests:        requestSvc,
		Repo:            dataRepo,
		Version:         cfg.App.Version,
	})

	// Graceful shutdown
	go func() {
		log.Info("server starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Error("server error", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server", nil)
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Warn("server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}
	analysisSvc.WaitBackground()
	log.Info("server exited gracefully", nil)
}

// connectDatabase returns nil when no URL is configured or the database is
// unreachable; the caller falls back to in-memory storage.
func connectDatabase(ctx context.Context, url string, log logger.Logger) *pgxpool.Pool {
	if url == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Warn("could not create database pool", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		log.Warn("could not connect to database", map[string]interface{}{"error": err.Error()})
		pool.Close()
		return nil
	}
	log.Info("connected to PostgreSQL", nil)
	return pool
}
