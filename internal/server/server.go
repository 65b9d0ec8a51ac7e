// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "talkhub/docs" // swagger docs
	"talkhub/internal/cache"
	"talkhub/internal/config"
	"talkhub/internal/database"
	"talkhub/internal/middleware"
	"talkhub/internal/models"
	"talkhub/internal/notifications"
	"talkhub/internal/observability"
	"talkhub/internal/repository"
	"talkhub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	logger          *slog.Logger
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	shutdownCtx     context.Context
	shutdownFn      context.CancelFunc
	auth            *middleware.Authenticator
	limiter         *middleware.RateLimiter
	notifier        *notifications.Notifier
	hub             *notifications.Hub
	postService     *service.PostService
	commentService  *service.CommentService
	bookmarkService *service.BookmarkService
}

// NewServer connects the database and Redis described by cfg and builds a
// Server on top of them. Redis is optional: without it caching, hit
// de-duplication and cross-instance feed delivery are disabled.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache", slog.String("error", err.Error()))
		redisClient = nil
	}

	return NewServerWithDeps(cfg, db, redisClient, logger)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *slog.Logger) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	postRepo := repository.NewPostRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)

	store := cache.NewStore(redisClient, logger)
	engine := service.NewLikeEngine(likeRepo, logger)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		logger:         logger,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		auth:           middleware.NewAuthenticator(cfg),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env, logger),
		notifier:       notifications.NewNotifier(redisClient, logger),
		hub:            notifications.NewHub(logger),
	}
	s.postService = service.NewPostService(service.PostServiceDeps{
		Posts:    postRepo,
		Profiles: profileRepo,
		Likes:    likeRepo,
		Engine:   engine,
		Hits:     service.NewHitCounter(store, postRepo, cfg.HitWindow(), logger),
		Cache:    store,
		ListTTL:  cfg.ListCacheTTL(),
		PostTTL:  cfg.PostCacheTTL(),
		Logger:   logger,
	})
	s.commentService = service.NewCommentService(commentRepo, postRepo, profileRepo, engine, store, logger)
	s.bookmarkService = service.NewBookmarkService(bookmarkRepo, postRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs before the context middleware so trace ids reach the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger(s.logger))

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "talkhub Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	required := s.auth.Required()
	optional := s.auth.Optional()

	posts := api.Group("/posts")
	posts.Get("/", optional, s.ListPosts)
	// Specific paths before the generic /:uid routes.
	posts.Get("/mine", required, s.ListMyPosts)
	posts.Post("/", required, s.limiter.Limit(createPostQuota), s.CreatePost)
	posts.Post("/:uid/like", required, s.limiter.Limit(likeQuota), s.TogglePostLike)
	posts.Get("/:post_uid/comments", optional, s.ListComments)
	posts.Post("/:post_uid/comments", required, s.limiter.Limit(createCommentQuota), s.CreateComment)
	posts.Get("/:uid", optional, s.GetPost)
	posts.Patch("/:uid", required, s.UpdatePost)
	posts.Delete("/:uid", required, s.DeletePost)

	comments := api.Group("/comments")
	comments.Post("/:uid/like", required, s.limiter.Limit(likeQuota), s.ToggleCommentLike)
	comments.Patch("/:uid", required, s.UpdateComment)
	comments.Delete("/:uid", required, s.DeleteComment)

	bookmarks := api.Group("/bookmarks", required)
	bookmarks.Get("/", s.ListBookmarks)
	bookmarks.Post("/", s.limiter.Limit(bookmarkQuota), s.CreateBookmark)
	bookmarks.Delete("/", s.DeleteBookmarks)

	ws := api.Group("/ws", required)
	ws.Get("/feed", requireUpgrade, s.FeedWebsocketHandler())
}

// Like toggles on posts and comments draw from one shared quota.
var (
	createPostQuota    = middleware.Quota{Name: "create_post", Limit: 10, Window: time.Minute}
	createCommentQuota = middleware.Quota{Name: "create_comment", Limit: 10, Window: time.Minute}
	likeQuota          = middleware.Quota{Name: "like", Limit: 60, Window: time.Minute}
	bookmarkQuota      = middleware.Quota{Name: "bookmark", Limit: 30, Window: time.Minute}
)

// NewApp builds the Fiber application with middleware and routes attached.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "talkhub API",
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler turns errors that escaped a handler into the JSON envelope.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, &models.AppError{
			Code:    codeForStatus(fe.Code),
			Message: fe.Message,
		})
	}

	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, status, err)
}

// Start builds the app, wires the feed hub to Redis and listens on the
// configured port. It blocks until the listener stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				s.logger.Error("failed to start feed hub wiring", slog.String("error", err.Error()))
			}
		}()
	}

	s.logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			s.logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		s.logger.Error("error shutting down feed hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			s.logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			s.logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
