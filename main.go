package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/chat"
	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/email"
	"messenger-service/internal/handlers"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/token"
	"messenger-service/internal/ws"
)

const serviceName = "messenger-service"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	friendRepo := repositories.NewFriendRepo(database)

	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	mailer := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	hub := ws.NewHub()
	sender := chat.NewService(chatRepo, userRepo, messageRepo, hub)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, mailer, cfg)
	friendHandler := handlers.NewFriendHandler(friendRepo, userRepo, chatRepo)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, friendRepo, sender)
	wsHandler := ws.NewHandler(hub, userRepo, tokens, sender)

	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.messenger", serviceName, cfg.Env)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.Debug)

	router.POST("/auth/signup", authHandler.Signup)
	router.GET("/auth/verify", authHandler.VerifyEmail)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/forgot-password", authHandler.ForgotPassword)
	router.POST("/auth/reset-password", authHandler.ResetPassword)

	authMiddleware := middleware.Auth(tokens)

	router.POST("/auth/logout", authMiddleware, authHandler.Logout)
	router.GET("/auth/check", authMiddleware, authHandler.Check)

	router.GET("/users/search", authMiddleware, friendHandler.SearchUsers)
	router.POST("/friend-requests", authMiddleware, friendHandler.SendRequest)
	router.GET("/friend-requests", authMiddleware, friendHandler.ListRequests)
	router.PATCH("/friend-requests/:id", authMiddleware, friendHandler.Respond)
	router.DELETE("/friend-requests/:id", authMiddleware, friendHandler.Cancel)
	router.GET("/friends", authMiddleware, friendHandler.ListFriends)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats/private", authMiddleware, chatHandler.StartPrivateChat)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.PostChatMessage)

	router.GET("/ws", wsHandler.Handle)

	log.Printf("listening on :%s env=%s", cfg.Port, cfg.Env)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
