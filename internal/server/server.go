package server

import (
	"backend-pawtrail/internal/auth"
	"backend-pawtrail/internal/config"
	"backend-pawtrail/internal/detect"
	"backend-pawtrail/internal/snapshot"
	"backend-pawtrail/internal/stream"
	"backend-pawtrail/internal/tracking"
	"backend-pawtrail/internal/walk"
	"backend-pawtrail/internal/zone"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	snapshotSvc := snapshot.NewService(s.DB)
	zoneSvc := zone.NewService(s.DB, s.Cfg.HomeRadiusKm, snapshotSvc)
	walkSvc := walk.NewService(s.DB, snapshotSvc)
	trackingSvc := tracking.NewService(zoneSvc, walkSvc, s.Stream, detect.Config{
		StartConfirmations: s.Cfg.StartConfirmations,
		EndConfirmations:   s.Cfg.EndConfirmations,
	})

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	zone.RegisterRoutes(s.App.Group("/zones"), zoneSvc, jwtMiddleware)
	walk.RegisterRoutes(s.App.Group("/walks"), walkSvc, jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking"), trackingSvc, jwtMiddleware)
	snapshot.RegisterRoutes(s.App.Group("/snapshot"), snapshotSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
