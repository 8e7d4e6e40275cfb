package server

import (
	"backend-ridecoach/internal/advisor"
	"backend-ridecoach/internal/config"
	"backend-ridecoach/internal/db"
	"backend-ridecoach/internal/recorder"
	"backend-ridecoach/internal/stream"
	"backend-ridecoach/internal/tracking"

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
	Rides  *tracking.Service
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	// typed nils must not leak into the interfaces
	var q db.Querier
	if pool != nil {
		q = pool
	}
	var adv tracking.Advisor
	if cfg.AdvisorURL != "" {
		adv = advisor.NewClient(cfg.AdvisorURL, cfg.AdvisorAPIKey, cfg.AdvisorTimeout)
	}

	s.Rides = tracking.NewService(q, s.Stream, adv, tracking.Options{
		Heartbeat:    recorder.Ticker(cfg.HeartbeatInterval),
		SampleBuffer: cfg.SampleBuffer,
	})

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"postgres": s.DB != nil,
			"redis":    s.Redis != nil,
			"advisor":  s.Cfg.AdvisorURL != "",
		})
	})

	tracking.RegisterRoutes(s.App.Group("/rides"), s.Rides)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// Close stops every recording ride and the live stream fan-out.
func (s *Server) Close() error {
	s.Rides.Close()
	return s.Stream.Close()
}
