package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cv-talent/config"
	"cv-talent/internal/database"
	"cv-talent/internal/extract"
	"cv-talent/internal/llm"
	"cv-talent/internal/server"
	"cv-talent/pkg/logger"

	"go.uber.org/zap"
)

// @title CV Talent API
// @version 1.0
// @description Recruitment tracker with LLM-assisted CV ingestion

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := config.Load(); err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Cfg

	if err := logger.Init(cfg); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting CV Talent API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	db, err := database.Connect(cfg, logger.Logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.SeedData(db, cfg, logger.Logger); err != nil {
		logger.Error("Failed to seed data", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := llm.New(ctx, cfg.LLM, logger.Component("llm"))
	if err != nil {
		logger.Warn("CV ingestion disabled", zap.Error(err))
		gateway = llm.Disabled{Reason: err.Error()}
	}
	if closer, ok := gateway.(io.Closer); ok {
		defer closer.Close()
	}

	extractor := extract.New(logger.Component("extract"))

	srv := server.New(cfg, logger.Logger, db, gateway, extractor)
	srv.Start(ctx)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Router,

		// Uploads of many CVs plus one completion call per batch take a while.
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := database.Close(); err != nil {
		logger.Error("Failed to close database connection", zap.Error(err))
	}

	logger.Info("Server shutdown complete")
}
