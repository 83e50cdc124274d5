// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"voidline/internal/cache"
	"voidline/internal/config"
	"voidline/internal/database"
	"voidline/internal/middleware"
	"voidline/internal/models"
	"voidline/internal/notifications"
	"voidline/internal/observability"
	"voidline/internal/payment"
	"voidline/internal/repository"
	"voidline/internal/service"
	"voidline/internal/storage"
	"voidline/internal/sweeper"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	voidRepo    repository.VoidPostRepository
	chatRepo    repository.ChatRepository
	stickerRepo repository.StickerRepository
	reportRepo  repository.ReportRepository

	userService    *service.UserService
	followService  *service.FollowService
	postService    *service.PostService
	commentService *service.CommentService
	voidService    *service.VoidService
	chatService    *service.ChatService
	stickerService *service.StickerService
	reportService  *service.ReportService

	notifier *notifications.Notifier
	chatHub  *notifications.ChatHub
	hubs     []wireableHub

	sweeper *sweeper.Sweeper
	storage *storage.Client
}

// NewServer creates a server instance, establishing its own database and
// Redis connections from config.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests and bootstrap layers use this to inject their own DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)
	prom := middleware.InitMetrics("voidline-api")

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       repository.NewUserRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		voidRepo:       repository.NewVoidPostRepository(db),
		chatRepo:       repository.NewChatRepository(db),
		stickerRepo:    repository.NewStickerRepository(db),
		reportRepo:     repository.NewReportRepository(db),
	}

	var provider payment.Provider
	if cfg.PaymentEndpoint != "" {
		provider = payment.NewHostedProvider(cfg.PaymentEndpoint, cfg.PaymentSecret)
	}

	s.userService = service.NewUserService(s.userRepo)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo)
	s.postService = service.NewPostService(s.postRepo, s.followRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.postService, s.isModeratorByUserID)
	s.voidService = service.NewVoidService(s.voidRepo, s.followRepo)
	s.chatService = service.NewChatService(s.chatRepo, s.userRepo, s.stickerRepo)
	s.stickerService = service.NewStickerService(s.stickerRepo, provider, s.isModeratorByUserID)
	s.reportService = service.NewReportService(s.reportRepo, s.isModeratorByUserID)

	s.sweeper = sweeper.New(s.voidRepo, cfg.SweepInterval)

	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.chatHub = notifications.NewChatHub()
		s.hubs = []wireableHub{s.chatHub}
	}

	if cfg.StorageEndpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := storage.NewClient(ctx, storage.Config{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			UseSSL:    cfg.StorageUseSSL,
		})
		if err != nil {
			observability.Logger.Warn("object storage unavailable, uploads disabled", "error", err)
		} else {
			s.storage = client
		}
	}

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS before anything that can short-circuit, so browser clients get
	// CORS headers on error responses too.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global per-IP rate limit. Preflight requests are never limited.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
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

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.Logout)

	// Public browse routes. OptionalAuth resolves the viewer when a token is
	// present so follower-gated content appears for authenticated viewers.
	publicPosts := api.Group("/posts", middleware.OptionalAuth)
	publicPosts.Get("/", s.GetFeed)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	publicUsers := api.Group("/users", middleware.OptionalAuth)
	publicUsers.Get("/search", middleware.RateLimit(s.redis, 10, time.Minute, "search"), s.SearchUsers)
	publicUsers.Get("/by-username/:username", s.GetUserByUsername)
	publicUsers.Get("/:id/posts", s.GetUserPosts)
	publicUsers.Get("/:id/followers", s.GetFollowers)
	publicUsers.Get("/:id/following", s.GetFollowing)
	publicUsers.Get("/:id", s.GetUserProfile)

	publicPacks := api.Group("/stickers", middleware.OptionalAuth)
	publicPacks.Get("/packs", s.ListStickerPacks)
	publicPacks.Get("/packs/:id", s.GetStickerPack)

	// Payment gateway callback: authenticated by HMAC signature, not JWT.
	api.Post("/stickers/payment/callback", s.PaymentCallback)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/me/saved", s.GetSavedPosts)
	users.Get("/me/purchases", s.ListMyPurchases)
	users.Post("/:id/follow", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	// Specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Post("/:id/save", s.SavePost)
	posts.Delete("/:id/save", s.UnsavePost)
	posts.Post("/:id/share", s.SharePost)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id/comments/:commentId", s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Post("/:id/comments/:commentId/like", s.LikeComment)
	posts.Delete("/:id/comments/:commentId/like", s.UnlikeComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	// Void (ephemeral) post routes
	void := protected.Group("/void")
	void.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_void"), s.CreateVoidPost)
	void.Get("/feed", s.GetVoidFeed)
	void.Get("/user/:id", s.GetUserVoidPosts)
	void.Get("/:id", s.GetVoidPost)
	void.Delete("/:id", s.DeleteVoidPost)

	// Chat routes
	conversations := protected.Group("/conversations")
	conversations.Post("/", s.CreateConversation)
	conversations.Get("/", s.GetConversations)
	conversations.Get("/:id/messages", s.GetMessages)
	conversations.Post("/:id/messages", middleware.RateLimit(s.redis, 15, time.Minute, "send_chat"), s.SendMessage)
	conversations.Post("/:id/participants", s.AddParticipant)
	conversations.Post("/:id/read", s.MarkConversationRead)
	conversations.Post("/:id/messages/:messageId/reactions", s.AddReaction)
	conversations.Delete("/:id/messages/:messageId/reactions/:emoji", s.RemoveReaction)
	conversations.Delete("/:id", s.LeaveConversation)
	conversations.Get("/:id", s.GetConversation)

	// Sticker marketplace routes
	stickers := protected.Group("/stickers")
	stickers.Post("/packs", s.CreateStickerPack)
	stickers.Get("/packs/mine", s.ListMyStickerPacks)
	stickers.Post("/packs/:id/stickers", s.AddSticker)
	stickers.Post("/packs/:id/purchase", middleware.RateLimit(s.redis, 10, time.Minute, "purchase"), s.PurchaseStickerPack)
	stickers.Post("/packs/:id/approve", s.ModeratorRequired(), s.ApproveStickerPack)
	stickers.Delete("/packs/:id", s.DeleteStickerPack)

	// Moderation routes
	reports := protected.Group("/reports")
	reports.Post("/", middleware.RateLimit(s.redis, 10, 10*time.Minute, "report"), s.CreateReport)
	reports.Get("/", s.ListReports)
	reports.Get("/:id", s.GetReport)
	reports.Post("/:id/review", s.ReviewReport)

	admin := protected.Group("/admin", s.ModeratorRequired())
	admin.Put("/users/:id/role", s.SetUserRole)
	admin.Put("/users/:id/tier", s.SetUserTier)

	// Uploads
	protected.Post("/uploads", middleware.RateLimit(s.redis, 20, time.Minute, "upload"), s.UploadMedia)

	// WebSocket endpoint for real-time chat
	api.Get("/ws/chat", middleware.WebSocketAuthRequired, s.WebSocketChatHandler())
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
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
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. It validates the JWT's
// signature, issuer, audience and revocation state, then stores the user ID
// in locals and the user context.
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

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "voidline-api" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "voidline-client" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Revocation check via jti blacklist
		if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
			blacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
			if err == nil && blacklisted > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("userID", uint(userID))
		c.SetUserContext(observability.WithUserID(c.UserContext(), uint(userID)))
		return c.Next()
	}
}

// ModeratorRequired rejects callers without moderator or admin role.
// Must run after AuthRequired so userID is available in locals.
func (s *Server) ModeratorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		mod, err := s.isModeratorByUserID(c.Context(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !mod {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Moderator access required"))
		}
		return c.Next()
	}
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Voidline API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			observability.Logger.Error("unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if s.notifier != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					observability.Logger.Error("hub wiring failed", "hub", h.Name(), "error", err)
				}
			}()
		}
	}

	go s.sweeper.Run(s.shutdownCtx)

	observability.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("http shutdown failed", "error", err)
		}
	}

	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			observability.Logger.Error("hub shutdown failed", "hub", h.Name(), "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error("sql close failed", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("redis close failed", "error", rerr)
		}
	}

	observability.Logger.Info("server shutdown complete")
	return nil
}
