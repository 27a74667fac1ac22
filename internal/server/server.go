package server

import (
	"context"
	"log"

	"legal-indexer-be/internal/bootstrap"
	"legal-indexer-be/internal/config"
	"legal-indexer-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const serviceName = "Legal Document Indexer"

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

type bannerResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("Service is running", bannerResponse{
			Service: serviceName,
			Status:  "running",
		}))
	})

	api := app.Group("/api")

	c.IndexController.RegisterRoutes(api)
	c.FlagController.RegisterRoutes(api)
	c.JobStreamHandler.RegisterRoutes(api)
	c.JobController.RegisterRoutes(api)
	c.SystemController.RegisterRoutes(api)
}
