package routes

import (
	"errors"

	"github.com/arnold/kpigo-api/internal/config"
	"github.com/arnold/kpigo-api/internal/handlers"
	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/arnold/kpigo-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// NewApp builds the Fiber app with every route mounted.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "KPI Go API",
		ErrorHandler: errorHandler,
		BodyLimit:    6 * 1024 * 1024,
	})
	app.Use(logging.Middleware())
	app.Static("/uploads", cfg.UploadDir)

	middleware.SetSecret(cfg.JWTSecret)
	handlers.Configure(cfg)
	Setup(app)
	return app
}

// errorHandler renders errors that escape a handler as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code == fiber.StatusInternalServerError {
		logging.LogError("routes", "errorHandler", c.Method()+" "+c.Path(), nil, err)
		return c.Status(code).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", handlers.Signup)
	auth.Post("/login", handlers.Login)
	auth.Post("/google", handlers.GoogleLogin)
	auth.Post("/join/:code", handlers.JoinCompany)

	api.Get("/pricing", handlers.GetPricing)

	// Reachable without an active subscription so an expired company can
	// still sign in, see the paywall and pay.
	account := api.Group("/", middleware.Protected())
	account.Get("/me", handlers.GetMe)
	account.Put("/me", handlers.UpdateProfile)
	account.Post("/me/avatar", handlers.UploadAvatar)
	account.Post("/device-token", handlers.RegisterDeviceToken)
	account.Get("/company", handlers.GetCompany)
	account.Post("/company/subscription", handlers.Subscribe)

	protected := api.Group("/", middleware.Protected(), middleware.Subscription())

	goals := protected.Group("/goals")
	goals.Get("/", handlers.GetGoals)
	goals.Post("/", handlers.CreateGoal)
	goals.Put("/order", handlers.ReorderGoals)
	goals.Get("/:id", handlers.GetGoal)
	goals.Put("/:id", handlers.UpdateGoal)
	goals.Delete("/:id", handlers.DeleteGoal)
	goals.Post("/:id/kpis", handlers.CreateKPI)

	kpis := protected.Group("/kpis")
	kpis.Get("/:id", handlers.GetKPI)
	kpis.Put("/:id", handlers.UpdateKPI)
	kpis.Delete("/:id", handlers.DeleteKPI)
	kpis.Put("/:id/color", handlers.UpdateKPIColor)
	kpis.Post("/:id/progress", handlers.LogProgress)
	kpis.Get("/:id/series", handlers.GetKPISeries)

	protected.Get("/dashboard", handlers.GetDashboard)
	protected.Get("/managers", handlers.GetManagers)

	// Team
	protected.Get("/users", handlers.GetUsers)
	protected.Get("/users/:id", handlers.GetUser)
	protected.Put("/users/:id", handlers.UpdateUser)
	protected.Post("/team/invites", handlers.CreateInvite)
	protected.Get("/team/invites", handlers.GetInvites)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	protected.Get("/activity", handlers.GetActivity)
	protected.Get("/export/kpis.xlsx", handlers.ExportKPIs)

	// WebSocket for real-time company updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/company", websocket.New(handlers.HandleWebSocket))
}
