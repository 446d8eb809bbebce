package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"c2w-go-api/internal/config"
	"c2w-go-api/internal/handlers"
	"c2w-go-api/internal/logging"
	"c2w-go-api/internal/services"
	"c2w-go-api/pkg/backend"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.IsDevelopment())

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize services
	cacheService := services.NewCacheService(cfg)
	defer cacheService.Close()

	upstream := backend.NewClient(cfg.BackendAddress, cfg.UpstreamTimeout)
	tradeData := services.NewTradeDataService(cfg, cacheService, upstream)
	orchestrator := services.NewDashboardOrchestrator(cfg, tradeData, cacheService)
	selections := services.NewSelectionTracker()

	// Initialize handlers
	dashboardHandler := handlers.NewDashboardHandler(orchestrator, selections)
	healthHandler := handlers.NewHealthHandler(cfg.FirestoreEnabled, cacheService.FirestoreConnected())

	app := fiber.New(fiber.Config{
		Immutable:     true,
		StrictRouting: true,
		CaseSensitive: true,
		ServerHeader:  "C2W-API",
		AppName:       "C2W Dashboard v1.0",
		ReadTimeout:   time.Second * 10,
		WriteTimeout:  time.Second * 35,
		BodyLimit:     1024 * 1024, // 1MB
		ErrorHandler:  handlers.CustomErrorHandler,
	})

	// Middleware stack
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		MaxAge:       3600,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	}))

	handlers.Register(app, dashboardHandler, healthHandler)

	// Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("environment", cfg.Environment).
		Str("backend", cfg.BackendAddress).
		Bool("firestore", cacheService.FirestoreConnected()).
		Msg("C2W dashboard API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server shutdown complete")
}
