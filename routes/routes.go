package routes

import (
	"time"

	controller "leaddesk/controllers"
	"leaddesk/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the collaborators the route tree needs.
type Deps struct {
	DB        *gorm.DB
	Logger    logrus.FieldLogger
	JWTSecret string

	// RateLimitMax of zero disables rate limiting.
	RateLimitMax     int
	RateLimitStorage fiber.Storage

	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	// AccessLog enables the per-request access log line.
	AccessLog bool
}

// SetupLeadRoutes mounts the lead API under /api/leads. Identifier routes
// carry a guid constraint, so fixed segments such as /analytics never match
// them whatever the declaration order.
func SetupLeadRoutes(api fiber.Router, deps Deps) {
	leadController := controller.NewLeadController(deps.DB, deps.Logger, deps.Metrics)

	lead := api.Group("/leads")
	lead.Get("/", leadController.GetLeads)
	lead.Post("/", leadController.CreateLead)
	lead.Get("/:id<guid>", leadController.GetLeadByID)
	lead.Put("/:id<guid>", leadController.UpdateLead)
	lead.Delete("/:id<guid>", leadController.DeleteLead)
	lead.Get("/analytics", leadController.GetAnalytics)
	lead.Get("/export", leadController.ExportLeads)
	lead.Post("/import", leadController.ImportLeads)

	// Anything else below /leads/ is an identifier that cannot exist.
	lead.All("/*", leadController.LeadNotFound)
}

func SetupRoutes(app *fiber.App, deps Deps) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	handlers := []fiber.Handler{middleware.Protected(deps.JWTSecret)}
	if deps.AccessLog {
		handlers = append(handlers, logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	if deps.RateLimitMax > 0 {
		handlers = append(handlers, middleware.RateLimiter(deps.RateLimitMax, time.Minute, deps.RateLimitStorage, deps.Logger))
	}

	api := app.Group("/api", handlers...)
	SetupLeadRoutes(api, deps)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "The requested resource was not found",
		})
	})
}
