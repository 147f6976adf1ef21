package router

import (
	"context"
	"net/http"

	"infinity/config"
	"infinity/internal/handler"
	"infinity/internal/middleware"
	"infinity/internal/repository"
	"infinity/internal/service"
	"infinity/internal/ws"
	"infinity/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// External holds the outbound integrations. Any of them may be nil.
type External struct {
	Images cloudinary.Uploader
	Mailer service.Mailer
	Device service.DevicePusher
}

// App is the wired HTTP engine plus the pieces main needs for lifecycle management.
type App struct {
	Engine     *gin.Engine
	Hub        *ws.Hub
	Reputation *service.ReputationService
	Limiter    *middleware.RateLimiter
}

func Setup(cfg *config.Config, db *gorm.DB, ext External) *App {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RateLimit(limiter))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	dismissalRepo := repository.NewDismissalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	postRepo := repository.NewPostRepository(db)

	hub := ws.NewHub()
	rooms := ws.NewConversationRooms()

	// Services
	var device service.DevicePusher
	if ext.Device != nil {
		device = ext.Device
		log.Info().Msg("push: FCM enabled")
	} else {
		log.Info().Msg("push: FCM disabled, set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, hub, device)
	reputationSvc := service.NewReputationService(userRepo, cfg.Reputation)
	verificationSvc := service.NewVerificationService(userRepo, ext.Mailer, cfg.Verification, cfg.Server.FrontendURL)
	authSvc := service.NewAuthService(&cfg.JWT, userRepo, verificationSvc)
	conversationSvc := service.NewConversationService(conversationRepo, friendRepo, blockRepo, userRepo, hub)
	friendSvc := service.NewFriendService(friendRepo, blockRepo, userRepo, notifSvc, conversationSvc)
	suggestionSvc := service.NewSuggestionService(friendRepo, blockRepo, dismissalRepo, userRepo, userRepo, cfg.Suggestions)
	postSvc := service.NewPostService(postRepo, reputationSvc, notifSvc)
	profileSvc := service.NewProfileService(userRepo, ext.Images)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, verificationSvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	conversationHandler := handler.NewConversationHandler(conversationSvc)
	suggestionHandler := handler.NewSuggestionHandler(suggestionSvc)
	friendHandler := handler.NewFriendHandler(friendSvc)
	postHandler := handler.NewPostHandler(postSvc)
	meHandler := handler.NewMeHandler(profileSvc)

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Server.QueryTimeout)
		defer cancel()
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": hub.ClientCount()})
	})

	// Live channel: the token is checked before the upgrade.
	r.GET("/ws", ws.ServeLive(&cfg.JWT, hub, rooms, conversationSvc))

	api := r.Group("/api/v1")
	api.Use(middleware.RequestTimeout(cfg.Server.QueryTimeout))
	{
		a := api.Group("/auth")
		a.POST("/register", authHandler.Register)
		a.POST("/login", authHandler.Login)
		a.POST("/verification/verify", authHandler.Verify)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(&cfg.JWT))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/verification/send", authHandler.SendVerification)
		authed.GET("/auth/verification/status", authHandler.VerificationStatus)

		authed.GET("/notifications", notificationHandler.List)
		authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authed.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		authed.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		authed.DELETE("/notifications/:id", notificationHandler.Delete)

		authed.GET("/conversations", conversationHandler.List)
		authed.POST("/conversations", conversationHandler.Start)
		authed.GET("/conversations/:id/messages", conversationHandler.Messages)
		authed.POST("/conversations/:id/messages", conversationHandler.Send)
		authed.PUT("/conversations/:id/read", conversationHandler.MarkRead)

		authed.GET("/suggestions/friends", suggestionHandler.Friends)
		authed.GET("/suggestions/random", suggestionHandler.Random)
		authed.POST("/suggestions/:user_id/dismiss", suggestionHandler.Dismiss)

		authed.GET("/friends", friendHandler.List)
		authed.GET("/friends/pending", friendHandler.Pending)
		authed.POST("/friends/request/:user_id", friendHandler.SendRequest)
		authed.POST("/friends/accept/:request_id", friendHandler.Accept)
		authed.DELETE("/friends/request/:request_id", friendHandler.Remove)

		authed.POST("/block/:user_id", friendHandler.Block)
		authed.DELETE("/block/:user_id", friendHandler.Unblock)

		authed.POST("/me/avatar", meHandler.UploadAvatar)
		authed.POST("/me/fcm-token", meHandler.RegisterFCMToken)
		authed.GET("/me/reputation", meHandler.Reputation)
	}

	// Content creation is gated on a verified email when VERIFICATION_REQUIRED is set.
	verified := authed.Group("")
	verified.Use(middleware.RequireVerified(&cfg.Verification, userRepo))
	{
		verified.POST("/posts", postHandler.Create)
		verified.POST("/posts/:id/like", postHandler.Like)
		verified.POST("/posts/:id/comments", postHandler.Comment)
		verified.POST("/comments/:id/like", postHandler.LikeComment)
	}

	return &App{Engine: r, Hub: hub, Reputation: reputationSvc, Limiter: limiter}
}
