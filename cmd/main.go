package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careplace/chat-service/config"
	"github.com/careplace/chat-service/internal/postgres"
	"github.com/careplace/chat-service/internal/presence"
	"github.com/careplace/chat-service/internal/security"
	"github.com/careplace/chat-service/internal/service"
	httpx "github.com/careplace/chat-service/internal/transport/http"
	"github.com/careplace/chat-service/internal/transport/ws"
	"github.com/careplace/chat-service/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// --- env & config ---
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- identity ---
	pub, err := security.LoadRSAPublicKeyFromPEM(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("load public key: %v", err)
	}
	verifier := security.NewTokenVerifier(pub, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.ClockSkew)

	// --- repos ---
	convRepo := postgres.NewConversationRepository(db.Pool)
	msgRepo := postgres.NewMessageRepository(db.Pool)
	marketRepo := postgres.NewMarketplaceRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)

	// --- services ---
	assocSvc := service.NewAssociationService(userRepo, marketRepo)
	convSvc := service.NewConversationService(assocSvc, convRepo)
	msgSvc := service.NewMessageService(assocSvc, convRepo, msgRepo)
	unreadSvc := service.NewUnreadService(msgRepo)

	// --- presence & realtime gateway ---
	// presence живёт ровно столько, сколько шлюз: создаётся здесь,
	// умирает вместе с процессом
	tracker := presence.NewTracker()
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, verifier, tracker, convSvc, msgSvc, cfg.WS.PingInterval)

	// --- HTTP ---
	handler := httpx.NewHandler(convSvc, msgSvc, unreadSvc, tracker)
	router := httpx.NewRouter(handler, verifier, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
