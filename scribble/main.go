package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"scribble/scribble/config"
	"scribble/scribble/controllers"
	"scribble/scribble/routes"
	"scribble/scribble/services/feedback"
	"scribble/scribble/services/llm"
	"scribble/scribble/services/ratelimit"
	"scribble/scribble/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	llmClient := llm.NewClient(cfg.UpstreamURL, cfg.UpstreamKey, cfg.UpstreamModel)
	tracker := feedback.NewClient(cfg.GitHubToken, cfg.GitHubRepo)

	chatLimiter := ratelimit.NewBounded(
		ratelimit.Config{MaxRequests: cfg.ChatLimit, Window: cfg.ChatWindow},
		ratelimit.DefaultMaxTrackedKeys, ratelimit.DefaultSweepEvery)
	suggestLimiter := ratelimit.NewBounded(
		ratelimit.Config{MaxRequests: cfg.SuggestLimit, Window: cfg.SuggestWindow},
		ratelimit.DefaultMaxTrackedKeys, ratelimit.DefaultSweepEvery)
	feedbackLimiter := ratelimit.NewBounded(
		ratelimit.Config{MaxRequests: cfg.FeedbackLimit, Window: cfg.FeedbackWindow},
		ratelimit.DefaultMaxTrackedKeys, ratelimit.DefaultSweepEvery)

	chatCtrl := controllers.NewChatController(llmClient, cfg)
	suggestCtrl := controllers.NewSuggestController(llmClient)
	feedbackCtrl := controllers.NewFeedbackController(tracker)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// No global timeout: the chat proxy holds its response open for the
	// lifetime of the upstream stream. Suggest enforces its own deadline.

	r.Mount("/api/chat", routes.ChatRoutes(chatCtrl, chatLimiter))
	r.Mount("/api/suggest", routes.SuggestRoutes(suggestCtrl, suggestLimiter, cfg.AllowedOrigins))
	r.Mount("/api/feedback", routes.FeedbackRoutes(feedbackCtrl, feedbackLimiter))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	logging.AppLogger.Info("scribble server listening on :" + cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
