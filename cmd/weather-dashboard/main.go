package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/app"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Reply cache: valkey when configured, memory otherwise.
	replyCache := app.ProvideCache(cfg)
	defer replyCache.Close()

	weatherSvc, err := app.ProvideWeather(cfg, replyCache)
	if err != nil {
		log.Fatalf("failed to build weather service: %v", err)
	}
	resolver, err := app.ProvidePlaces(cfg)
	if err != nil {
		log.Fatalf("failed to load places: %v", err)
	}
	summarySvc := app.ProvideSummary(cfg)
	defer summarySvc.Selector().Stop()

	// In-memory sessions with configured retention.
	sessions := store.NewMemoryStore(cfg.MaxSessions, cfg.SessionMaxAge, cfg.ChatLimit)

	// Janitor that evicts idle sessions and expired cached replies.
	var purger scheduler.Purger
	if replyCache.Memory != nil {
		purger = replyCache.Memory
	}
	sched := scheduler.New(sessions, purger, cfg.JanitorInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	fiberApp := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Summaries can take as long as the model timeout.
		WriteTimeout: cfg.Groq.Timeout + 10*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	fiberApp.Use(logger.New())
	fiberApp.Use(recover.New())

	// Basic health endpoint
	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(fiberApp, httpapi.Deps{
		Weather:  weatherSvc,
		Places:   resolver,
		Sessions: sessions,
		Summary:  summarySvc,
		Chart:    cfg.Chart(),
	})

	// Start server with graceful shutdown
	go func() {
		if err := fiberApp.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: weather-dashboard listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
