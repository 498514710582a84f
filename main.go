package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-gateway/internal/access"
	"chat-gateway/internal/auth"
	"chat-gateway/internal/db"
	"chat-gateway/internal/handlers"
	"chat-gateway/internal/middleware"
	"chat-gateway/internal/observability"
	"chat-gateway/internal/rabbitmq"
	"chat-gateway/internal/repositories"
	"chat-gateway/internal/telemetry"
	"chat-gateway/internal/ws"
)

const serviceName = "chat-gateway"

func main() {
	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, os.Getenv("OTLP_ENDPOINT"))
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("tracer shutdown error: %v", err)
		}
	}()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	verifier := auth.NewVerifier(secret)

	publisher := rabbitmq.NewPublisher(os.Getenv("AMQP_URL"), getEnv("AMQP_EXCHANGE", "chat.events"))
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	emitter := telemetry.NewEventEmitter(publisher, serviceName, getEnv("ENVIRONMENT", "development"))

	singleChatRepo := repositories.NewSingleChatRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	authority := access.NewAuthority(singleChatRepo, groupRepo)
	hub := ws.NewHub()
	gateway := ws.NewGateway(hub, authority, messageRepo, verifier, emitter)

	chatHandler := handlers.NewChatHandler(singleChatRepo, messageRepo, authority, emitter)
	groupHandler := handlers.NewGroupHandler(groupRepo, messageRepo, authority, emitter)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.POST("/chats/start", authMiddleware, chatHandler.StartSingleChat)
	router.GET("/chats", authMiddleware, chatHandler.ListSingleChats)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetSingleChatMessages)

	router.POST("/groups", authMiddleware, groupHandler.CreateGroup)
	router.GET("/groups", authMiddleware, groupHandler.ListGroups)
	router.POST("/groups/:group_id/members", authMiddleware, groupHandler.AddGroupMember)
	router.DELETE("/groups/:group_id/members/:user_id", authMiddleware, groupHandler.RemoveGroupMember)
	router.GET("/groups/:group_id/messages", authMiddleware, groupHandler.GetGroupMessages)

	router.GET("/ws", gateway.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
