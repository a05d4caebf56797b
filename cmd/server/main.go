package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/inkpress/backoffice/internal/config"
	"github.com/inkpress/backoffice/internal/database"
	"github.com/inkpress/backoffice/internal/handlers"
	"github.com/inkpress/backoffice/internal/logging"
	"github.com/inkpress/backoffice/internal/routes"
	"github.com/inkpress/backoffice/internal/services"
	"github.com/inkpress/backoffice/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting inkpress back office", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	// ─── Database ────────────────────────────────────────────────────────
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	// ─── Audit logging pipeline ──────────────────────────────────────────
	var statsCache *logging.StatsCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		statsCache = logging.NewStatsCache(rdb, time.Minute)
		slog.Info("Log stats cache enabled", "addr", cfg.RedisAddr)
	}

	metrics := logging.NewMetrics(prometheus.DefaultRegisterer)
	store := logging.NewStore(db)
	auditLogger := logging.NewLogger(store, slog.Default(), metrics, statsCache)

	// ─── Object storage ──────────────────────────────────────────────────
	mediaStore, err := storage.NewMediaStore(cfg)
	if err != nil {
		slog.Error("Media store init failed", "error", err)
		os.Exit(1)
	}
	if mediaStore != nil {
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mediaStore.EnsureBucket(bucketCtx); err != nil {
			slog.Warn("Media bucket check failed, uploads may fail", "error", err)
		}
		cancel()
	} else {
		slog.Warn("STORAGE_ENDPOINT not set, media uploads disabled")
	}

	// ─── Retention sweep ─────────────────────────────────────────────────
	sweeper := services.NewRetentionSweeper(auditLogger, cfg.LogRetentionDays,
		time.Duration(cfg.RetentionSweepHours)*time.Hour)
	sweeper.Start()

	// ─── Handlers ───────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(cfg, auditLogger)
	logsHandler := handlers.NewLogsHandler(auditLogger)
	bookHandler := handlers.NewBookHandler(db, auditLogger)
	contactHandler := handlers.NewContactHandler(db, auditLogger)
	systemHandler := handlers.NewSystemHandler(db)

	var mediaHandler *handlers.MediaHandler
	if mediaStore != nil {
		mediaHandler = handlers.NewMediaHandler(mediaStore, auditLogger)
	}

	// ─── Fiber App ──────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "inkpress v" + handlers.Version,
		ServerHeader: "inkpress",
		BodyLimit:    12 * 1024 * 1024, // media uploads cap at 10MB plus multipart overhead
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" || c.Path() == "/metrics" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ─────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, logsHandler, bookHandler,
		contactHandler, mediaHandler, systemHandler)

	// ─── Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down inkpress...")

		sweeper.Stop()

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ──────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("inkpress listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
