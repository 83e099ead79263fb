package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatbot-api/backend/pkg/config"
	"chatbot-api/backend/pkg/di"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/pkg/observability"
	"chatbot-api/backend/pkg/router"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	logConfig.File = cfg.Logging.File
	logConfig.Output = os.Stdout

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting chatbot API", "version", os.Getenv("APP_VERSION"))

	// Optional tracing
	if cfg.Tracing.Enabled {
		shutdown := observability.SetupTracing("chatbot-api")
		defer shutdown()
	}

	// Build the dependency container; this constructs the model client and
	// refuses to start without a provider credential
	container, err := di.New(cfg, log, nil)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	log.Info("Model client ready",
		"model", cfg.Model.Name,
		"temperature", cfg.Model.Temperature,
	)

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	log.Info("Backend URL", "url", cfg.Server.BaseURL)
	log.Info("Health check", "url", cfg.Server.BaseURL+"/health")
	log.Info("Chat endpoint", "url", cfg.Server.BaseURL+"/api/chat")
	log.Info("Log file", "path", cfg.Logging.File)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
