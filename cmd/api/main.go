package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/config"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/handlers"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/logger"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/middleware"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/services"
	queueservice "github.com/DinomyteHero/Storyteller-V2-sub003/internal/services/queue"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/storage"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Storyteller API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"narrator_provider", cfg.NarratorProvider,
		"model_name", cfg.ModelName)

	var narrator services.Narrator
	switch strings.ToLower(cfg.NarratorProvider) {
	case "openai":
		if cfg.NarratorAPIKey == "" {
			log.Error("Narrator API key is required when using the openai provider")
			os.Exit(1)
		}
		narrator = services.NewOpenAIService(cfg.NarratorAPIKey, "", cfg.ModelName, cfg.BackendModelName)
		log.Info("Using OpenAI narrator provider")
	case "mock":
		// Development without an upstream model
		narrator = services.NewMockNarrator()
		log.Info("Using mock narrator provider")
	default:
		log.Error("Invalid narrator provider specified", "provider", cfg.NarratorProvider, "supported", []string{"openai", "mock"})
		os.Exit(1)
	}

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	queueClient, err := queueservice.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect to queue", "error", err)
		os.Exit(1)
	}
	hintQueue := queueservice.NewHintQueue(queueClient)
	turnQueue := queueservice.NewTurnQueue(queueClient)

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := narrator.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize narrator model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	processor := worker.NewTurnProcessor(store, narrator, hintQueue, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	turnHandler := handlers.NewTurnHandler(processor, turnQueue, log)
	mux.Handle("/v1/turn", turnHandler)

	worldStateHandler := handlers.NewWorldStateHandler(store, log)
	mux.Handle("/v1/worldstate", worldStateHandler)
	mux.Handle("/v1/worldstate/", worldStateHandler)

	settingsHandler := handlers.NewSettingsHandler(store, log)
	mux.Handle("/v1/settings", settingsHandler)
	mux.Handle("/v1/settings/", settingsHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
