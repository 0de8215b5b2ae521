package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/config"
	"github.com/foxxcyber/aisle-list/internal/database"
	"github.com/foxxcyber/aisle-list/internal/handlers"
	"github.com/foxxcyber/aisle-list/internal/logging"
	"github.com/foxxcyber/aisle-list/internal/middleware"
	"github.com/foxxcyber/aisle-list/internal/ocr"
	"github.com/foxxcyber/aisle-list/internal/services"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server.exit", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}
	builder := services.NewListBuilderForRules(rules)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	visionKeys := database.NewVisionKeyStore(db, services.DeriveEncryptionKey(cfg.JWTSecret))

	deps := handlers.Dependencies{
		Lists:      db,
		Settings:   db,
		VisionKeys: visionKeys,
		Builder:    builder,
		Mapper:     services.NewMagicMapper(builder.Parser(), builder.Categorizer(), rules),
		Resolver:   services.NewVisionKeyResolver(cfg.OpenAIAPIKey, cfg.VisionDailyLimit, db, visionKeys),
		Exporter:   services.NewChecklistExporter(builder.Ordering(), log),
		Logger:     log,
	}

	// OCR needs the Tesseract runtime; without it the photo routes report 503
	engine, err := ocr.NewEngine(cfg.OCRLanguage)
	if err != nil {
		log.Warn("ocr.unavailable", zap.Error(err))
	} else {
		defer engine.Close()
		deps.Scanner = services.NewScanPipeline(engine, builder, log.Named("scan"))
	}

	vision, err := services.NewVisionClient(cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.VisionTimeout, log.Named("vision"))
	if err != nil {
		log.Warn("vision.unavailable", zap.Error(err))
	} else {
		deps.Vision = vision
	}

	if store := initStorage(cfg, log); store != nil {
		deps.Storage = store
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    int(cfg.MaxUploadBytes()) + 1024*1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ScanTimeout + 10*time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:request_id}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.VisionKeyHeader,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h := handlers.New(cfg, deps)
	h.RegisterRoutes(app)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("server.shutting_down", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(15 * time.Second)
}

func loadRules(cfg *config.Config) (*services.LayoutRules, error) {
	if cfg.LayoutRulesPath == "" {
		return services.MustDefaultLayoutRules(), nil
	}
	rules, err := services.LoadLayoutRules(cfg.LayoutRulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout rules: %w", err)
	}
	return rules, nil
}

// initStorage connects to the S3 bucket when enabled. Returns nil when storage is off.
func initStorage(cfg *config.Config, log *zap.Logger) *services.ImageStore {
	if !cfg.S3Enabled {
		log.Info("storage.disabled")
		return nil
	}
	if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		log.Warn("storage.credentials_missing")
		return nil
	}

	store, err := services.NewImageStore(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
	if err != nil {
		log.Warn("storage.init_failed", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		log.Warn("storage.bucket_unavailable", zap.String("bucket", cfg.S3Bucket), zap.Error(err))
	}

	log.Info("storage.ready", zap.String("bucket", cfg.S3Bucket))
	return store
}
