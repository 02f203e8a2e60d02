package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/syncsyntax/messaging/internal/cache"
	"github.com/syncsyntax/messaging/internal/config"
	"github.com/syncsyntax/messaging/internal/database"
	"github.com/syncsyntax/messaging/internal/metrics"
	postgresrepo "github.com/syncsyntax/messaging/internal/repository/postgres"
	"github.com/syncsyntax/messaging/internal/service"
	"github.com/syncsyntax/messaging/internal/transport/http/handlers"
	"github.com/syncsyntax/messaging/internal/transport/http/middleware"
	"github.com/syncsyntax/messaging/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	log, _ := zap.NewProduction()
	defer log.Sync()

	metrics.Register()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("database connect", zap.Error(err))
	}
	defer pool.Close()
	log.Info("connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	archiveRepo := postgresrepo.NewArchiveRepo(pool)

	// Thread cache
	threadCache := cache.New(cfg.RedisURL,
		time.Duration(cfg.CacheTTLMinutes)*time.Minute, cfg.CacheThreadLimit)
	defer threadCache.Close()

	// Services
	messageService := service.NewMessageService(messageRepo, userRepo, threadCache, log)
	conversationService := service.NewConversationService(messageRepo, userRepo, threadCache, log)
	archiveService := service.NewArchiveService(archiveRepo, cfg.ArchiveRetentionDays, log)

	// Realtime hub
	hub := ws.NewHub(messageService, userRepo, log)
	go hub.Run()
	messageService.SetNotifier(ws.NewHubNotifier(hub))

	// Archival sweeper
	if err := archiveService.Start(); err != nil {
		log.Fatal("archive scheduler", zap.Error(err))
	}
	defer archiveService.Stop()

	// Handlers
	messageHandler := handlers.NewMessageHandler(messageService, log)
	conversationHandler := handlers.NewConversationHandler(conversationService, log)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, messageRepo, cfg.JWTSecret))

	// Protected - Conversations
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(conversationHandler.List)))
	mux.Handle("GET /api/v1/conversations/{userId}", auth(http.HandlerFunc(conversationHandler.OpenThread)))

	// Protected - Messages
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))
	mux.Handle("POST /api/v1/messages/bulk-delete", auth(http.HandlerFunc(messageHandler.BulkDelete)))
	mux.Handle("PATCH /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Edit)))
	mux.Handle("GET /api/v1/messages/{id}/info", auth(http.HandlerFunc(messageHandler.Info)))
	mux.Handle("POST /api/v1/messages/{id}/pin", auth(http.HandlerFunc(messageHandler.TogglePin)))
	mux.Handle("GET /api/v1/messages/{id}/reactions", auth(http.HandlerFunc(messageHandler.Reactions)))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info("starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
