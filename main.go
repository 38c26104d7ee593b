// main.go
package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"civicsync/database"
	"civicsync/handlers"
	"civicsync/middleware"
	"civicsync/remote"
	"civicsync/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	validateEnvironment()

	// Local store (queue + notification outbox)
	database.InitDB()
	defer database.CloseDB()

	// Service wiring
	session := services.NewSession()
	state := services.NewStateStore()
	queue := services.NewDurableQueue(services.NewGormQueueStore(database.GetDB()))
	notifier := services.NewNotifier(services.NewGormNotificationStore(database.GetDB()))

	api := remote.NewClient(
		os.Getenv("CIVIC_API_URL"),
		session.Token,
		remoteTimeout(),
	)

	achievements := services.NewAchievementService(api, state, notifier, revealDelay())
	syncService := services.NewSyncService(queue, api, state, session, notifier, achievements)
	reportService := services.NewReportService(api, queue, state, session, notifier, achievements)
	subscriptionService := services.NewSubscriptionService(api, state)

	handlers.InitHandlers(handlers.Deps{
		Reports:       reportService,
		Subscriptions: subscriptionService,
		Sync:          syncService,
		Session:       session,
		State:         state,
		Notifier:      notifier,
		Queue:         queue,
	})

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// API routes
	apiGroup := app.Group("/api")

	// Session handoff from the UI (no auth yet, the token itself is checked)
	apiGroup.Post("/session", handlers.SetSession)

	authed := apiGroup.Group("")
	authed.Use(middleware.AuthMiddleware)
	authed.Delete("/session", handlers.ClearSession)

	authed.Post("/reports", handlers.SubmitReport)
	authed.Get("/reports", handlers.GetReports)
	authed.Post("/reports/:id/confirm", handlers.ConfirmReport)
	authed.Post("/reports/:id/subscription", handlers.ToggleSubscription)

	authed.Get("/users/me", handlers.GetCurrentUser)
	authed.Get("/badges", handlers.GetBadges)
	authed.Get("/badges/upcoming", handlers.GetUpcomingAwards)

	authed.Get("/notifications", handlers.GetNotifications)
	authed.Post("/notifications/:id/read", handlers.MarkNotificationRead)

	authed.Post("/sync", handlers.TriggerSync)
	authed.Post("/app/active", handlers.AppActive)
	authed.Get("/queue", handlers.QueueStatus)

	// Event stream: award notifications out, PERFORM_SYNC signals in
	app.Use("/ws", handlers.WebSocketUpgrade)
	app.Get("/ws", handlers.WebSocketHandler())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}

	log.Printf("🚀 CivicSync agent starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("🌐 CivicReport service: %s", os.Getenv("CIVIC_API_URL"))
	log.Printf("⏱  Badge reveal delay: %s", revealDelay())

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start agent:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	if os.Getenv("CIVIC_API_URL") == "" {
		log.Fatal("FATAL: CIVIC_API_URL environment variable must be set")
	}
	if os.Getenv("CIVIC_JWT_SECRET") == "" {
		log.Fatal("FATAL: CIVIC_JWT_SECRET environment variable must be set")
	}
}

func revealDelay() time.Duration {
	if raw := os.Getenv("CIVICSYNC_REVEAL_DELAY"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
		log.Printf("WARNING: invalid CIVICSYNC_REVEAL_DELAY %q, using default", raw)
	}
	return services.DefaultRevealDelay
}

func remoteTimeout() time.Duration {
	if raw := os.Getenv("CIVIC_API_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return 15 * time.Second
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
