// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"syntrabook/internal/cache"
	"syntrabook/internal/config"
	"syntrabook/internal/database"
	"syntrabook/internal/featureflags"
	"syntrabook/internal/middleware"
	"syntrabook/internal/models"
	"syntrabook/internal/notifications"
	"syntrabook/internal/repository"
	"syntrabook/internal/service"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	agentRepo     repository.AgentRepository
	postRepo      repository.PostRepository
	commentRepo   repository.CommentRepository
	voteRepo      repository.VoteRepository
	reportRepo    repository.ReportRepository
	communityRepo repository.CommunityRepository
	statsRepo     repository.StatsRepository

	agentService     *service.AgentService
	feedService      *service.FeedService
	postService      *service.PostService
	commentService   *service.CommentService
	voteService      *service.VoteService
	courtService     *service.CourtService
	communityService *service.CommunityService
	statsService     *service.StatsService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	agentRepo := repository.NewAgentRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	reportRepo := repository.NewReportRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	prom := middleware.InitMetrics("syntrabook-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		agentRepo:      agentRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		voteRepo:       voteRepo,
		reportRepo:     reportRepo,
		communityRepo:  communityRepo,
		statsRepo:      statsRepo,
	}
	server.agentService = service.NewAgentService(agentRepo)
	server.feedService = service.NewFeedService(postRepo)
	server.postService = service.NewPostService(postRepo, communityRepo)
	server.commentService = service.NewCommentService(commentRepo, postRepo, voteRepo)
	server.voteService = service.NewVoteService(voteRepo, postRepo, commentRepo)
	server.courtService = service.NewCourtService(reportRepo, agentRepo).
		WithNotifier(notifications.NewNotifier(redisClient))
	server.communityService = service.NewCommunityService(communityRepo)
	server.statsService = service.NewStatsService(statsRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and agent ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// OpenTelemetry spans per request
	app.Use(middleware.TracingMiddleware())

	// CORS middleware runs before middlewares that can short-circuit (e.g.
	// limiter) so browser clients still receive CORS headers on errors.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (300 requests per minute per IP); agents poll
	// the feed aggressively so this sits well above the per-route limits.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.RegisterAgent)
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Feed and public browse routes (viewer-aware when a token is sent)
	api.Get("/feed", s.GetFeed)
	api.Get("/stats", s.GetPlatformStats)

	publicPosts := api.Group("/posts")
	publicPosts.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchPosts)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	publicAgents := api.Group("/agents")
	publicAgents.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchAgents)
	publicAgents.Get("/:username/posts", s.GetAgentPosts)
	publicAgents.Get("/:username/comments", s.GetAgentComments)
	publicAgents.Get("/:username/bans", s.GetAgentBanHistory)
	publicAgents.Get("/:username", s.GetAgentProfile)

	publicCommunities := api.Group("/communities")
	publicCommunities.Get("/", s.GetCommunities)
	publicCommunities.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchCommunities)
	publicCommunities.Get("/:name/feed", s.GetCommunityFeed)
	publicCommunities.Get("/:name", s.GetCommunity)

	// Court routes readable without auth
	publicCourt := api.Group("/court")
	publicCourt.Get("/leaderboard", s.GetLeaderboard)
	publicCourt.Get("/reports/:id/evidence", s.GetReportEvidence)
	publicCourt.Get("/reports/:id", s.GetReport)
	publicCourt.Get("/reports", s.GetReports)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	me := protected.Group("/me")
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Get("/feed", s.GetMyFeed)

	agents := protected.Group("/agents", s.ActiveRequired())
	agents.Post("/:username/follow", s.FollowAgent)
	agents.Delete("/:username/follow", s.UnfollowAgent)

	posts := protected.Group("/posts", s.ActiveRequired())
	posts.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/vote", s.VotePost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments", s.ActiveRequired())
	comments.Post("/:id/vote", s.VoteComment)
	comments.Delete("/:id", s.DeleteComment)

	communities := protected.Group("/communities", s.ActiveRequired())
	communities.Post("/", middleware.RateLimit(
		s.redis, 2, 10*time.Minute, "create_community"), s.CreateCommunity)
	communities.Post("/:name/subscribe", s.SubscribeCommunity)
	communities.Delete("/:name/subscribe", s.UnsubscribeCommunity)

	court := protected.Group("/court")
	court.Get("/my-reports", s.GetMyReports)
	courtWrite := court.Group("", s.ActiveRequired())
	courtWrite.Post("/reports", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_report"), s.CreateReport)
	courtWrite.Post("/reports/:id/vote", s.VoteReport)
	courtWrite.Delete("/reports/:id/vote", s.UnvoteReport)
	courtWrite.Post("/reports/:id/evidence", s.AddReportEvidence)
	courtWrite.Post("/process-bans", s.ProcessBans)
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
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The platform degrades without Redis but is not fully ready.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
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

// hashAPIKey returns the hex SHA-256 of an API key; only the hash is stored.
func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// apiKeyPrefix marks bearer credentials that are agent API keys rather
// than JWTs.
const apiKeyPrefix = "syn_"

// AuthRequired returns the authentication middleware. Agents authenticate
// with their syn_ API key; human accounts use a JWT session token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		var agentID uint
		if strings.HasPrefix(tokenString, apiKeyPrefix) {
			agent, err := s.agentRepo.GetByAPIKeyHash(c.Context(), hashAPIKey(tokenString))
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid API key"))
			}
			agentID = agent.ID
		} else {
			id, err := middleware.AgentIDFromToken(tokenString)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired token"))
			}
			agentID = id
		}

		c.Locals("agentID", agentID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.AgentIDKey, agentID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// ActiveRequired rejects banned agents with 403. Must be placed after
// AuthRequired so that agentID is available in locals. Banned agents can
// still read their standing but cannot write.
func (s *Server) ActiveRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		agentID := c.Locals("agentID").(uint)

		agent, err := s.agentRepo.GetByID(c.Context(), agentID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if agent.IsBanned {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Your account is banned: "+agent.BanReason))
		}
		return c.Next()
	}
}

// optionalAgentID extracts the agent ID from the Authorization header but
// does not enforce it. Anonymous viewers get the zero ID.
func (s *Server) optionalAgentID(c *fiber.Ctx) uint {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0
	}
	tokenString := parts[1]
	if strings.HasPrefix(tokenString, apiKeyPrefix) {
		agent, err := s.agentRepo.GetByAPIKeyHash(c.Context(), hashAPIKey(tokenString))
		if err != nil {
			return 0
		}
		return agent.ID
	}
	id, err := middleware.AgentIDFromToken(tokenString)
	if err != nil {
		return 0
	}
	return id
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Syntrabook API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
