// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "sharify/docs" // swagger docs
	"sharify/internal/bootstrap"
	"sharify/internal/cache"
	"sharify/internal/config"
	"sharify/internal/featureflags"
	"sharify/internal/middleware"
	"sharify/internal/models"
	"sharify/internal/notifications"
	"sharify/internal/observability"
	"sharify/internal/repository"
	"sharify/internal/service"
	"sharify/internal/storage"

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

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// metrics registers the HTTP collectors once per process.
func metrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = observability.InitMetrics("sharify-api")
	})
	return promMiddleware
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Storage
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	mailer         service.Mailer

	hub          *notifications.Hub
	limiter      *middleware.Limiter
	featureFlags *featureflags.Manager

	authService     *service.AuthService
	postService     *service.PostService
	reactionService *service.ReactionService
	commentService  *service.CommentService
	profileService  *service.ProfileService
	resourceService *service.ResourceService
}

// Option customises a Server built by NewServerWithDeps.
type Option func(*Server)

// WithMailer replaces the default log mailer.
func WithMailer(m service.Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

// NewServer connects to the database, redis and object storage described by
// cfg and returns a ready server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
// redisClient may be nil; caching, revocation and cross-instance fan-out are
// then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.Storage, opts ...Option) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: metrics(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		limiter:        middleware.NewLimiter(redisClient, cfg.Env),
		mailer:         service.LogMailer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	cache.SetClient(redisClient)

	s.hub = notifications.NewHub(notifications.NewNotifier(redisClient))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	var media *service.MediaService
	if store != nil {
		media = service.NewMediaService(store, service.MediaConfig{
			AvatarBucket:   cfg.AvatarBucket,
			ResourceBucket: cfg.ResourceBucket,
			MaxUploadBytes: cfg.MaxUploadBytes(),
		})
	}

	s.authService = service.NewAuthService(repository.NewAccountRepository(db), redisClient, s.mailer, service.AuthConfig{
		JWTSecret:                cfg.JWTSecret,
		RequireEmailConfirmation: cfg.RequireEmailConfirmation,
		PublicBaseURL:            cfg.PublicBaseURL,
	})
	s.postService = service.NewPostService(postRepo, s)
	s.reactionService = service.NewReactionService(repository.NewReactionRepository(db), postRepo, s)
	s.commentService = service.NewCommentService(repository.NewCommentRepository(db), postRepo, userRepo, s)
	s.profileService = service.NewProfileService(userRepo, repository.NewProfileRepository(db), media, s)
	s.resourceService = service.NewResourceService(repository.NewResourceRepository(db), media, s.canSubmitResources, s)

	return s, nil
}

// canSubmitResources allows admins, and everyone while the
// open_resource_submissions flag is on for them.
func (s *Server) canSubmitResources(ctx context.Context, userID uint) (bool, error) {
	if s.featureFlags.Enabled(featureflags.OpenResourceSubmissions, userID) {
		return true, nil
	}
	return s.authService.IsAdmin(ctx, userID)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware("/health", "/metrics"))
	}

	app.Use(middleware.RequestContext())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	app.Use(middleware.AccessLog("/health", "/metrics"))

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, " + middleware.APIKeyHeader,
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))

	app.Use(middleware.APIKey(s.config.PublicAPIKey,
		"/health", "/metrics", "/media/", "/api/swagger", "/api/auth/confirm"))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if fs, ok := s.store.(*storage.FilesystemAdapter); ok {
		app.Static("/media", fs.Root(), fiber.Static{MaxAge: 3600})
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Sharify API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", s.limiter.Handler(middleware.SignupRule), s.Signup)
	auth.Get("/confirm", s.ConfirmEmail)
	auth.Post("/confirm", s.ConfirmEmail)
	auth.Post("/login", s.limiter.Handler(middleware.LoginRule), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/session", s.AuthRequired(), s.GetSession)
	auth.Post("/password", s.AuthRequired(), s.ChangePassword)

	// Users and profiles
	users := api.Group("/users")
	users.Post("/ensure", s.AuthRequired(), s.EnsureUser)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", s.GetUserProfile)

	profile := api.Group("/profile", s.AuthRequired())
	profile.Get("/", s.GetMyProfile)
	profile.Put("/", s.UpdateMyProfile)
	profile.Post("/avatar", s.limiter.Handler(middleware.AvatarRule), s.UploadAvatar)

	// Posts. Specific routes go before the generic /:id routes.
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/search", s.limiter.Handler(middleware.SearchRule), s.SearchPosts)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.AuthRequired(),
		s.limiter.Handler(middleware.CommentRule), s.CreateComment)
	posts.Get("/:id/like", s.AuthRequired(), s.GetLikeStatus)
	posts.Post("/:id/like", s.AuthRequired(), s.limiter.Handler(middleware.ToggleRule), s.ToggleLike)
	posts.Get("/:id/bookmark", s.AuthRequired(), s.GetBookmarkStatus)
	posts.Post("/:id/bookmark", s.AuthRequired(), s.limiter.Handler(middleware.ToggleRule), s.ToggleBookmark)
	posts.Get("/:id", s.GetPost)
	posts.Post("/", s.AuthRequired(),
		s.limiter.Handler(middleware.PostRule), s.CreatePost)
	posts.Put("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	me := api.Group("/me", s.AuthRequired())
	me.Get("/posts", s.GetMyPosts)
	me.Get("/bookmarks", s.GetMyBookmarks)
	me.Get("/likes", s.GetMyLikes)

	resources := api.Group("/resources")
	resources.Get("/", s.GetResources)
	resources.Get("/:id", s.GetResource)
	resources.Post("/", s.AuthRequired(), s.CreateResource)

	// WebSocket ticket issuance, then the upgrade itself authenticated by ticket
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.WebsocketHandler())

	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// App builds the fiber application once and returns it.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	bodyLimit := int(s.config.MaxUploadBytes()) + 1<<20
	if bodyLimit < 4<<20 {
		bodyLimit = 4 << 20
	}
	app := fiber.New(fiber.Config{
		AppName:   "Sharify API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
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

	// Redis is optional: without it the API still serves, uncached.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	storageStatus := "unavailable"
	if s.store != nil {
		storageStatus = s.store.Provider()
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. Websocket upgrades
// authenticate with a single-use ticket; everything else with a bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if c.Path() == "/api/ws" {
			userID, err := s.authService.RedeemWSTicket(ctx, c.Query("ticket"))
			if err != nil {
				return respondError(c, err)
			}
			setUser(c, userID)
			return c.Next()
		}

		tokenString := middleware.BearerToken(c)
		if tokenString == "" {
			return respondError(c, models.NewUnauthorizedError("Authorization required"))
		}
		claims, err := s.authService.ParseToken(ctx, tokenString)
		if err != nil {
			return respondError(c, err)
		}
		setUser(c, claims.UserID)
		c.Locals("token", tokenString)
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := s.authService.IsAdmin(c.UserContext(), currentUserID(c))
		if err != nil {
			return respondError(c, err)
		}
		if !admin {
			return respondError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// optionalUserID extracts the viewer from a valid bearer token but does not
// require one. Invalid tokens are treated as anonymous.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	tokenString := middleware.BearerToken(c)
	if tokenString == "" {
		return 0
	}
	claims, err := s.authService.ParseToken(c.UserContext(), tokenString)
	if err != nil {
		return 0
	}
	return claims.UserID
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()
	if err := s.StartEvents(s.shutdownCtx); err != nil {
		observability.Logger.Error("failed to start event hub wiring", slog.String("error", err.Error()))
	}

	observability.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + strings.TrimPrefix(s.config.Port, ":"))
}

// StartEvents forwards redis notifications to this instance's websocket
// connections until ctx ends.
func (s *Server) StartEvents(ctx context.Context) error {
	return s.hub.StartWiring(ctx)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		observability.Logger.Error("error shutting down event hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.Logger.Info("Server shutdown complete")
	return nil
}
