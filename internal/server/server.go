package server

import (
	"log"

	"studyroom-be/internal/bootstrap"
	"studyroom-be/internal/config"
	"studyroom-be/internal/controller"
	"studyroom-be/internal/pkg/serverutils"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	// Initialize Fiber App
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		ErrorHandler:          serverutils.ErrorHandler(container.Logger, cfg.IsProduction()),
		DisableStartupMessage: cfg.IsProduction(),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	// Prometheus metrics
	prom := fiberprometheus.NewWithRegistry(container.MetricsRegistry, "studyroom-be", "studyroom", "http", nil)
	app.Use(prom.Middleware)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(container.MetricsRegistry, promhttp.HandlerOpts{})))

	// Routes
	registerRoutes(app, cfg, container)

	// Static
	app.Use(compress.New())
	app.Static("/", cfg.App.PublicDir)

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

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	sessionRequired := serverutils.JwtMiddleware(c.AuthService, cfg.Security.CookieName)

	api := app.Group("/api")
	c.AuthController.RegisterRoutes(api)
	c.SystemController.RegisterRoutes(api, sessionRequired)

	app.Get("/studyroom", controller.StudyRoomPage(c.AuthService, cfg.Security.CookieName, cfg.App.PublicDir))

	c.RealtimeHandler.RegisterRoutes(app, sessionRequired)
}
