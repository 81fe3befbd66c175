package server

import (
	"errors"
	"log/slog"

	"backend-yatube/internal/admin"
	"backend-yatube/internal/auth"
	"backend-yatube/internal/cache"
	"backend-yatube/internal/config"
	"backend-yatube/internal/db"
	"backend-yatube/internal/metrics"
	"backend-yatube/internal/posts"
	"backend-yatube/internal/storage"
	"backend-yatube/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "yatube:"

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      db.Querier
	Redis   *redis.Client
	Stream  *stream.Hub
	Cache   cache.Cache
	Metrics *metrics.Metrics
}

func NewServer(cfg config.Config, database db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      database,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient),
		Cache:   cache.New(redisClient, cachePrefix),
		Metrics: metrics.New(),
	}

	registerRoutes(s)
	return s
}

func (s *Server) Close() error {
	return s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))

	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB)
	postsSvc := posts.NewService(s.DB, s.Cfg.PostsPerPage)
	media := storage.NewService(s.DB, s.Cfg.MediaRoot)

	s.App.Use(auth.OptionalAuth(authSvc))

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	storage.RegisterRoutes(s.App.Group("/media"), media)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
	admin.RegisterRoutes(s.App.Group("/admin"), postsSvc, authSvc, s.Cache)
	posts.RegisterRoutes(s.App, postsSvc, auth.RequireAuth(s.Cfg.LoginURL), posts.Options{
		Cache:    s.Cache,
		CacheTTL: s.Cfg.CacheTTL,
		Metrics:  s.Metrics,
		Media:    media,
		Events:   s.Stream,
	})

	s.App.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "page not found")
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
