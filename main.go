package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"realtime-chat/internal/audit"
	"realtime-chat/internal/auth"
	"realtime-chat/internal/config"
	"realtime-chat/internal/handlers"
	"realtime-chat/internal/kvstore"
	"realtime-chat/internal/middleware"
	"realtime-chat/internal/observability"
	"realtime-chat/internal/realtime"
	"realtime-chat/internal/repositories"
	"realtime-chat/internal/telemetry"
	"realtime-chat/internal/ws"
)

const serviceName = "realtime-chat"

func main() {
	cfg := config.Load(".env")

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.InitTracing(context.Background(), serviceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("tracing init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	store := kvstore.NewClient(cfg.StoreURL, cfg.StoreToken)
	userRepo := repositories.NewUserRepo(store)
	friendRepo := repositories.NewFriendRepo(store)
	messageRepo := repositories.NewMessageRepo(store)

	hub := ws.NewHub(logger)
	sinks := []realtime.Broker{hub}
	if cfg.BrokerAppID != "" && cfg.BrokerKey != "" && cfg.BrokerSecret != "" {
		sinks = append(sinks, realtime.NewHostedClient(cfg.BrokerHost, cfg.BrokerAppID, cfg.BrokerKey, cfg.BrokerSecret))
		logger.Info("hosted realtime broker enabled", "host", cfg.BrokerHost)
	}
	broker := realtime.NewFanout(logger, sinks...)

	publisher := audit.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	emitter := audit.NewEmitter(publisher, serviceName, cfg.Env, logger)

	jwtService := auth.NewJWTService(cfg)
	googleOAuth := auth.NewGoogleOAuth(userRepo, jwtService, cfg, logger)

	friendHandler := handlers.NewFriendHandler(userRepo, friendRepo, broker, emitter, logger)
	messageHandler := handlers.NewMessageHandler(userRepo, friendRepo, messageRepo, broker, emitter, logger)
	pageHandler := handlers.NewPageHandler(userRepo, friendRepo, messageRepo, logger)
	wsHandler := ws.NewHandler(hub)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.CORS(cfg.BaseURL))
	router.Use(middleware.ResolveSession(jwtService))

	router.LoadHTMLGlob("web/templates/*.html")
	router.Static("/static", "web/static")

	router.GET("/", pageHandler.Home)
	router.GET("/login", middleware.RedirectAuthenticated(), pageHandler.Login)
	router.GET("/login/google", googleOAuth.HandleLogin)
	router.GET("/oauth2/callback", googleOAuth.HandleCallback)
	router.GET("/logout", googleOAuth.HandleLogout)

	pages := router.Group("/dashboard", middleware.RequirePage())
	pages.GET("", pageHandler.Dashboard)
	pages.GET("/add", pageHandler.AddFriendPage)
	pages.GET("/requests", pageHandler.RequestsPage)
	pages.GET("/chat/:chatId", pageHandler.ChatPage)

	api := router.Group("/api", middleware.RequireSession())
	api.POST("/friends/add", friendHandler.AddFriend)
	api.POST("/friends/accept", friendHandler.AcceptFriend)
	api.POST("/friends/reject", friendHandler.RejectFriend)
	api.GET("/friends", friendHandler.ListFriends)
	api.GET("/friends/requests", friendHandler.ListRequests)
	api.POST("/message/send", messageHandler.SendMessage)
	api.GET("/chat/:chatId/messages", messageHandler.GetChatMessages)
	api.GET("/chat/:chatId/partner", messageHandler.GetChatPartner)

	router.GET("/ws", middleware.RequireSession(), wsHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	logger.Info("server starting", "addr", cfg.ListenAddr, "env", cfg.Env)
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
