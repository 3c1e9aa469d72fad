package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/sadopc/suivi/internal/auth"
	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

type Options struct {
	CORSOrigins []string
	// requests per minute and IP on /api/auth, 20 when zero
	AuthRateLimit int
	Now           func() time.Time
}

type Server struct {
	app    *fiber.App
	store  *store.Store
	auth   *auth.Service
	weeks  *timesheet.Service
	logger *zap.Logger
	now    func() time.Time
}

func New(s *store.Store, a *auth.Service, w *timesheet.Service, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AuthRateLimit == 0 {
		opts.AuthRateLimit = 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	srv := &Server{store: s, auth: a, weeks: w, logger: logger, now: opts.Now}
	srv.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          srv.handleError,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})

	srv.app.Use(recover.New())
	srv.app.Use(srv.requestLogger())
	srv.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(opts.CORSOrigins, ","),
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	srv.app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))

	srv.routes(opts.AuthRateLimit)
	return srv
}

func (s *Server) routes(rateLimit int) {
	s.app.Get("/health", s.health)

	api := s.app.Group("/api")

	authGroup := api.Group("/auth", limiter.New(limiter.Config{
		Max:        rateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, try again later")
		},
	}))
	authGroup.Post("/register", s.register)
	authGroup.Post("/login", s.login)
	authGroup.Post("/password-reset", s.requestPasswordReset)
	authGroup.Post("/password-reset/confirm", s.confirmPasswordReset)

	// auth is attached per route so unknown paths stay 404
	api.Get("/me", s.requireAuth, s.me)
	api.Get("/catalog", s.requireAuth, s.catalog)
	api.Get("/weeks/:date", s.requireAuth, s.getWeek)
	api.Put("/weeks/:date", s.requireAuth, s.putWeek)
	api.Get("/months/:year/:month", s.requireAuth, s.getMonth)

	admin := api.Group("/admin")
	admin.Get("/users", s.requireAuth, requireAdmin, s.listUsers)
	admin.Get("/employees", s.requireAuth, requireAdmin, s.listEmployees)
	admin.Patch("/users/:id/status", s.requireAuth, requireAdmin, s.setUserStatus)
	admin.Patch("/users/:id/role", s.requireAuth, requireAdmin, s.setUserRole)
	admin.Get("/export.csv", s.requireAuth, requireAdmin, s.exportCSV)
	admin.Get("/export.xlsx", s.requireAuth, requireAdmin, s.exportXLSX)
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	if err := s.store.Ping(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
