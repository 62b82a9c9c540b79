// Package server contains the HTTP route table and handlers of the Yatube site.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies for the HTTP server
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.RateLimiter

	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	profileService *service.ProfileService
	authService    *service.AuthService
	imageService   *service.ImageService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Redis is optional: caching and token revocation degrade to no-ops.
	redisClient := cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps wires a server around an existing database and optional
// redis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	var promMiddleware *fiberprometheus.FiberPrometheus
	if cfg.Env != "test" {
		promMiddleware = middleware.InitMetrics("yatube")
	}

	c := cache.New(redisClient)
	store := storage.NewFileStorage(cfg.MediaRoot, cfg.MediaURL)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: promMiddleware,
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
	}

	s.imageService = service.NewImageService(store, cfg)
	s.postService = service.NewPostService(s.postRepo, s.groupRepo, s.imageService, c,
		time.Duration(cfg.IndexCacheSeconds)*time.Second)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo)
	s.profileService = service.NewProfileService(s.userRepo, s.postRepo, s.commentRepo, s.followService, s.imageService)
	s.authService = service.NewAuthService(s.userRepo, c, cfg.JWTSecret)

	return s, nil
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	bodyLimit := 4 * 1024 * 1024
	if mb := s.config.ImageMaxUploadSizeMB; mb > 0 {
		bodyLimit = (mb + 1) * 1024 * 1024
	}
	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		BodyLimit:    bodyLimit,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Identity and the trace must be in locals before ContextMiddleware copies them.
	app.Use(s.Identify())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: !strings.Contains(origins, "*"),
		MaxAge:           86400,
	}))

	// Coarse per-IP ceiling; the redis limiter guards the write endpoints.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application. Fixed paths are
// registered before the username-addressed ones so they are matched first.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	mediaURL := strings.TrimSuffix(s.config.MediaURL, "/")
	if mediaURL == "" {
		mediaURL = "/media"
	}
	app.Static(mediaURL, s.config.MediaRoot, fiber.Static{MaxAge: 3600})

	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupForm)
	auth.Post("/signup/", s.limiter.Limit("signup", 3, 10*time.Minute, middleware.FailOpen), s.Signup)
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	auth.Post("/logout/", s.Logout)

	app.Get("/", s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/new/", s.LoginRequired(), s.NewPostForm)
	app.Post("/new/", s.LoginRequired(),
		s.limiter.Limit("post_create", 20, time.Minute, middleware.FailOpen), s.CreatePost)
	app.Get("/follow/", s.LoginRequired(), s.FollowIndex)

	app.Get("/:username/", s.Profile)
	app.Post("/:username/follow/", s.LoginRequired(), s.ProfileFollow)
	app.Post("/:username/unfollow/", s.LoginRequired(), s.ProfileUnfollow)

	app.Get("/:username/:post_id/", s.PostView)
	app.Get("/:username/:post_id/edit/", s.PostEditForm)
	app.Post("/:username/:post_id/edit/", s.PostEdit)
	app.Post("/:username/:post_id/comment/", s.LoginRequired(),
		s.limiter.Limit("comment", 30, time.Minute, middleware.FailOpen), s.AddComment)
	app.Post("/:username/:post_id/delete/", s.LoginRequired(), s.PostDelete)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and redis answer a ping.
// Redis being absent is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
