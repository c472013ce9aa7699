package server

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/yevheniigera/nlu-webhook-relay/internal/auth"
	"github.com/yevheniigera/nlu-webhook-relay/internal/relay"
	"github.com/yevheniigera/nlu-webhook-relay/internal/telemetry"
)

const welcomeMessage = "Welcome from nlu-webhook-relay! If you see this message, your webhook is active."

type Options struct {
	Logger *slog.Logger
	Gate   *auth.Gate
	Relay  *relay.Relay

	// Timer wraps every call_case request. Nil disables timing.
	Timer telemetry.Timer

	// CORSAllowOrigins is a comma separated origin list, "*" for any.
	CORSAllowOrigins string
}

type Server struct {
	app    *fiber.App
	logger *slog.Logger
	gate   *auth.Gate
	relay  *relay.Relay
	timer  telemetry.Timer
}

func New(opts Options) (*Server, error) {
	if opts.Gate == nil {
		return nil, errors.New("server: auth gate is required")
	}
	if opts.Relay == nil {
		return nil, errors.New("server: relay is required")
	}

	s := &Server{
		logger: opts.Logger,
		gate:   opts.Gate,
		relay:  opts.Relay,
		timer:  opts.Timer,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.timer == nil {
		s.timer = telemetry.NopTimer{}
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "nlu-webhook-relay",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	origins := strings.TrimSpace(opts.CORSAllowOrigins)
	if origins == "" {
		origins = "*"
	}

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST",
		AllowCredentials: origins != "*",
	}))

	s.app.Get("/", s.index)
	s.app.Get("/health", s.health)
	s.app.Post("/:call_case", s.gate.Middleware(), s.callCase)

	return s, nil
}

// App exposes the underlying fiber app for Listen, Shutdown and tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": welcomeMessage})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
