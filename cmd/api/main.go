package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/config"
	"github.com/zhouzirui/z-interview/backend/internal/handler"
	"github.com/zhouzirui/z-interview/backend/internal/logger"
	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	"github.com/zhouzirui/z-interview/backend/internal/scheduler"
	"github.com/zhouzirui/z-interview/backend/internal/service/ai"
	"github.com/zhouzirui/z-interview/backend/internal/service/feedback"
	interviewService "github.com/zhouzirui/z-interview/backend/internal/service/interview"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			log.Fatalf("configuration error: %v (set it in the environment or in .env)", err)
		}
		log.Fatalf("failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	aiService, err := ai.NewService(ctx, cfg.AI, zl)
	if err != nil {
		zl.Fatal("failed to initialize chat model", zap.Error(err))
	}
	zl.Info("chat model initialized",
		zap.String("provider", cfg.AI.Provider),
		zap.String("interviewModel", aiService.InterviewModel()),
		zap.String("feedbackModel", aiService.FeedbackModel()))

	evaluator, err := feedback.NewService(ctx, aiService, zl)
	if err != nil {
		zl.Fatal("failed to initialize feedback service", zap.Error(err))
	}

	sessions := interviewService.NewService(aiService, evaluator, zl)
	catalog := interview.NewMemoryStore(interview.Seed())

	sweeper := scheduler.New(sessions, cfg.Session.SweepSchedule, cfg.Session.TTL, zl)
	if err := sweeper.Start(); err != nil {
		zl.Fatal("failed to start session sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	router := handler.NewRouter(catalog, sessions, cfg.Server.AllowedOrigins, zl)

	startServer(ctx, cfg.Server, router, zl)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, zl *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	zl.Info("interview backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		zl.Error("server error", zap.Error(err))
		return
	}
	zl.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
