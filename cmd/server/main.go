package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/riverdesk/riverdesk-chat/internal/api"
	"github.com/riverdesk/riverdesk-chat/internal/chat"
	"github.com/riverdesk/riverdesk-chat/internal/config"
	"github.com/riverdesk/riverdesk-chat/internal/db"
	"github.com/riverdesk/riverdesk-chat/internal/middleware"
	"github.com/riverdesk/riverdesk-chat/internal/observ"
	"github.com/riverdesk/riverdesk-chat/internal/realtime"
	"github.com/riverdesk/riverdesk-chat/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no parent deadline; connections take as long as they
	// take. Per-request contexts carry the deadlines once we are serving.
	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	redisClient, err := db.NewRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	pool := database.Pool()
	channelRepo := postgres.NewChannelStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	profileStore := postgres.NewProfileStore(pool)

	// The coordinator is both the services' event sink and the feed
	// endpoint's subscription source; Redis carries the events between
	// server instances.
	coordinator := realtime.NewCoordinator(realtime.NewRedisBus(redisClient, logger), logger)

	channelService := chat.NewChannelService(channelRepo, membershipRepo, messageRepo, logger)
	membershipService := chat.NewMembershipService(channelRepo, membershipRepo, profileStore, logger)
	messageService := chat.NewMessageService(channelRepo, messageRepo, profileStore, logger)
	messageService.SetSink(coordinator)

	authHandler := api.NewAuthHandler(profileStore, profileStore, cfg.JWTSecret, logger)
	channelHandler := api.NewChannelHandler(channelService, logger)
	membershipHandler := api.NewMembershipHandler(membershipService, logger)
	messageHandler := api.NewMessageHandler(messageService, logger)
	feedHandler := api.NewFeedHandler(coordinator, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Public: health for load balancers, signup/login for everyone else.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/me", authHandler.Me)

	v1.POST("/channels", channelHandler.Create)
	v1.GET("/channels", channelHandler.List)
	v1.GET("/channels/:id", channelHandler.GetByID)
	v1.PATCH("/channels/:id", channelHandler.Update)
	v1.DELETE("/channels/:id", channelHandler.Delete)
	v1.GET("/channels/:id/stats", channelHandler.Stats)

	v1.GET("/channels/:id/members", membershipHandler.List)
	v1.POST("/channels/:id/members", membershipHandler.Add)
	v1.DELETE("/channels/:id/members/:userID", membershipHandler.Remove)
	v1.PUT("/channels/:id/members/:userID/role", membershipHandler.SetRole)

	v1.POST("/channels/:id/messages", messageHandler.Send)
	v1.GET("/channels/:id/messages", messageHandler.List)
	v1.GET("/channels/:id/messages/search", messageHandler.Search)
	v1.PATCH("/messages/:messageID", messageHandler.Edit)
	v1.DELETE("/messages/:messageID", messageHandler.Delete)

	v1.GET("/channels/:id/feed", feedHandler.Stream)

	logger.Info("starting riverdesk-chat",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	if err := srv.Run(":" + cfg.Port); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
