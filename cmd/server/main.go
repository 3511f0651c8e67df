// collabmatch - influencer and brand matching chat server
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/api"
	"github.com/ashureev/collabmatch/internal/config"
	"github.com/ashureev/collabmatch/internal/dialogue"
	"github.com/ashureev/collabmatch/internal/health"
	"github.com/ashureev/collabmatch/internal/identity"
	"github.com/ashureev/collabmatch/internal/logger"
	"github.com/ashureev/collabmatch/internal/match"
	"github.com/ashureev/collabmatch/internal/middleware"
	"github.com/ashureev/collabmatch/internal/realtime"
	"github.com/ashureev/collabmatch/internal/registry"
	"github.com/ashureev/collabmatch/internal/reply"
	"github.com/ashureev/collabmatch/internal/store"
	"github.com/ashureev/collabmatch/internal/transcript"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log, _ := logger.New(true, false)
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Info("no .env file found, using environment variables")
	}
	log.Info("starting server", zap.String("port", cfg.Port), zap.String("grpc_port", cfg.GRPCPort), zap.Bool("dev", cfg.IsDevelopment()))

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath, log.Named("store"))
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			log.Error("failed to close repository", zap.Error(closeErr))
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		log.Fatal("database health check failed", zap.Error(err))
	}
	log.Info("database connected", zap.String("path", cfg.DBPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := match.NewEngine(repo)
	sessions := dialogue.NewSessionStore()

	var opts []dialogue.Option
	gen, err := reply.New(ctx, cfg.Reply)
	switch {
	case errors.Is(err, reply.ErrDisabled):
		log.Info("free-form replies disabled (REPLY_PROVIDER not set)")
	case err != nil:
		log.Warn("failed to initialize reply generator, free-form replies disabled", zap.Error(err))
	default:
		opts = append(opts, dialogue.WithGenerator(gen))
		log.Info("reply generator ready", zap.String("provider", cfg.Reply.Provider), zap.String("model", cfg.Reply.Model))
	}

	tr, err := transcript.New(cfg.Transcript, log.Named("transcript"))
	if err != nil {
		log.Fatal("failed to initialize transcript logger", zap.Error(err))
	}
	if tr != nil {
		defer func() { _ = tr.Close() }()
		opts = append(opts, dialogue.WithTranscript(tr))
	}

	orchestrator := dialogue.NewOrchestrator(engine, sessions, log.Named("dialogue"), opts...)

	limiter := api.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Stop()

	// Initialize handlers.
	conns := realtime.NewRegistry(log.Named("realtime"))
	apiHandler := api.NewHandler(api.Deps{
		Chat:      orchestrator,
		Profiles:  engine,
		Registrar: registry.NewService(repo, log.Named("registry")),
		DB:        repo,
		Conns:     conns,
		Sessions:  sessions,
		Limiter:   limiter,
		Log:       log.Named("api"),
	})
	wsHandler := realtime.NewChatHandler(orchestrator, conns, cfg.FrontendURL, cfg.IsDevelopment(), log.Named("realtime"))

	allowedOrigins := []string{"*"}
	if !cfg.IsDevelopment() {
		allowedOrigins = []string{cfg.FrontendURL}
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(allowedOrigins))

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(cfg.IsDevelopment()))
		apiHandler.RegisterRoutes(r)
		r.Get("/ws/chat", wsHandler.ServeHTTP)
	})

	// No WriteTimeout: websocket connections are long-lived.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start session sweeper; expired conversations also drop their websocket.
	dialogue.StartSweeper(ctx, sessions, cfg.SessionTTL, dialogue.DefaultSweepInterval, log.Named("sweeper"), conns.CloseConversation)

	healthSrv := health.NewServer(repo, log.Named("health"))
	healthSrv.Watch(ctx, 0)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen for grpc", zap.Error(err))
	}
	go func() {
		if err := healthSrv.Serve(lis); err != nil {
			log.Error("grpc health server failed", zap.Error(err))
		}
	}()

	// Start server.
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthSrv.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped successfully")
}
