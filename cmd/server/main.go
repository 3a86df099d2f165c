package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/questroom/progress-service/config"
	"github.com/questroom/progress-service/internal/postgres"
	"github.com/questroom/progress-service/internal/security"
	"github.com/questroom/progress-service/internal/service"
	grpcx "github.com/questroom/progress-service/internal/transport/grpc"
	httpx "github.com/questroom/progress-service/internal/transport/http"
	"github.com/questroom/progress-service/internal/transport/ws"
	"github.com/questroom/progress-service/pkg/logger"
)

func main() {
	// --- config ---
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
	slog.Info("starting progress-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime(),
		MaxConnIdleTime: cfg.MaxConnIdleTime(),
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db.Pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// --- auth keys ---
	privKey, err := security.LoadRSAPrivateKeyFromPEM(cfg.Auth.PrivateKeyPath)
	if err != nil {
		log.Fatalf("load private key: %v", err)
	}
	pubKey, err := security.LoadRSAPublicKeyFromPEM(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("load public key: %v", err)
	}
	signer := security.NewJWTSigner(privKey, pubKey, cfg.Auth.Issuer, cfg.AccessTTL(), cfg.ClockSkew())

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(db.Pool)
	memberRepo := postgres.NewMembershipRepository(db.Pool)
	progressRepo := postgres.NewProgressRepository(db.Pool)
	aggregateRepo := postgres.NewAggregateRepository(db.Pool)
	lifecycleRepo := postgres.NewLifecycleRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)
	glossaryRepo := postgres.NewGlossaryRepository(db.Pool)
	quizRepo := postgres.NewQuizRepository(db.Pool)

	// --- WS hub; the notifier fans lifecycle events out to room subscribers ---
	hub := ws.NewHub()
	notifier := ws.NewNotifier(hub)

	// --- services ---
	authSvc := service.NewAuthService(userRepo, signer, security.BcryptConfig{
		Cost:      cfg.Auth.BcryptCost,
		MinLength: cfg.Auth.MinPasswordLen,
	}, time.Now)
	roomSvc := service.NewRoomService(roomRepo, memberRepo, lifecycleRepo)
	progressSvc := service.NewProgressService(
		memberRepo, progressRepo, aggregateRepo, lifecycleRepo, notifier,
		cfg.Progress.TotalModules,
	)
	glossarySvc := service.NewGlossaryService(glossaryRepo, roomRepo, memberRepo)
	quizSvc := service.NewQuizService(quizRepo)

	// demo room must exist before the first request is served
	if _, err := roomSvc.EnsureDemoRoom(ctx); err != nil {
		log.Fatalf("ensure demo room: %v", err)
	}

	// --- HTTP ---
	wsServer := ws.NewServer(hub, authSvc, roomSvc, progressSvc)
	handler := httpx.NewHandler(authSvc, roomSvc, progressSvc, glossarySvc, quizSvc)
	router := httpx.NewRouter(handler, authSvc, wsServer, cfg.HTTP.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- gRPC health ---
	grpcSrv := grpcx.NewServer(db)

	readyCtx, stopReady := context.WithCancel(ctx)
	defer stopReady()
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				grpcSrv.CheckReadiness(readyCtx)
			case <-readyCtx.Done():
				return
			}
		}
	}()

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcSrv.Serve(lis); err != nil {
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

	grpcSrv.Stop()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
