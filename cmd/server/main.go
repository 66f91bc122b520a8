package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mklancir/orbit/internal/config"
	"github.com/mklancir/orbit/internal/database"
	"github.com/mklancir/orbit/internal/delivery"
	postgresrepo "github.com/mklancir/orbit/internal/repository/postgres"
	"github.com/mklancir/orbit/internal/service"
	"github.com/mklancir/orbit/internal/storage"
	"github.com/mklancir/orbit/internal/transport/http/handlers"
	"github.com/mklancir/orbit/internal/transport/http/middleware"
	"github.com/mklancir/orbit/internal/transport/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Infow("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	convRepo := postgresrepo.NewConversationRepo(pool)
	msgRepo := postgresrepo.NewMessageRepo(pool)
	receiptRepo := postgresrepo.NewReceiptRepo(pool)
	typingRepo := postgresrepo.NewTypingRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	convService := service.NewConversationService(convRepo, userRepo, log)
	msgService := service.NewMessageService(msgRepo, convRepo, receiptRepo, log)
	typingService := service.NewTypingService(typingRepo, convRepo, log)
	shareService := service.NewShareService(msgService, convService)

	// Delivery: in-process broker for embedded sessions, websocket hub for
	// browsers. Both hang off the same notifier chain.
	broker := delivery.NewBroker(log)
	hub := ws.NewHub(typingService, log)
	go hub.Run()

	notifier := service.MultiNotifier{broker, ws.NewHubNotifier(hub)}
	msgService.SetNotifier(notifier)
	typingService.SetNotifier(notifier)

	// Storage
	blobs := storage.NewDiskStore(cfg.BlobDir, cfg.BlobBaseURL)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	convHandler := handlers.NewConversationHandler(convService, typingService, log)
	msgHandler := handlers.NewMessageHandler(msgService, log)
	shareHandler := handlers.NewShareHandler(shareService, log)
	mediaHandler := handlers.NewMediaHandler(blobs, log)

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
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.BlobDir))))

	// Protected - Conversations
	mux.Handle("POST /api/v1/conversations/direct", auth(http.HandlerFunc(convHandler.Direct)))
	mux.Handle("POST /api/v1/conversations/group", auth(http.HandlerFunc(convHandler.CreateGroup)))
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(convHandler.List)))
	mux.Handle("GET /api/v1/conversations/{id}", auth(http.HandlerFunc(convHandler.Get)))
	mux.Handle("PATCH /api/v1/conversations/{id}/mute", auth(http.HandlerFunc(convHandler.SetMuted)))
	mux.Handle("POST /api/v1/conversations/{id}/typing", auth(http.HandlerFunc(convHandler.SetTyping)))
	mux.Handle("GET /api/v1/conversations/{id}/typing", auth(http.HandlerFunc(convHandler.ActiveTyping)))

	// Protected - Messages
	mux.Handle("POST /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(msgHandler.Send)))
	mux.Handle("GET /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(msgHandler.List)))
	mux.Handle("POST /api/v1/messages/{id}/read", auth(http.HandlerFunc(msgHandler.MarkRead)))
	mux.Handle("PATCH /api/v1/messages/{id}", auth(http.HandlerFunc(msgHandler.Edit)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(msgHandler.Delete)))

	// Protected - Sharing
	mux.Handle("POST /api/v1/conversations/{id}/share", auth(http.HandlerFunc(shareHandler.Share)))
	mux.Handle("POST /api/v1/stories/{id}/reaction", auth(http.HandlerFunc(shareHandler.StoryReaction)))
	mux.Handle("POST /api/v1/stories/{id}/reply", auth(http.HandlerFunc(shareHandler.StoryReply)))

	// Protected - Media
	mux.Handle("POST /api/v1/media", auth(http.HandlerFunc(mediaHandler.Upload)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: middleware.CORS(mux),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalw("server error", "error", err)
	}
	log.Infow("server stopped")
}
