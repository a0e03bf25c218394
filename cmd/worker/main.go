package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/config"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/logger"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/services"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/services/queue"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/storage"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Storyteller Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL)

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	turnQueue := queue.NewTurnQueue(queueClient)
	hintQueue := queue.NewHintQueue(queueClient)
	log.Info("Queue service initialized successfully")

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
	log.Info("Storage service initialized successfully")

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
		narrator = services.NewMockNarrator()
		log.Info("Using mock narrator provider")
	default:
		log.Error("Invalid narrator provider specified", "provider", cfg.NarratorProvider, "supported", []string{"openai", "mock"})
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := narrator.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize narrator model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}
	log.Info("Narrator initialized successfully", "model", cfg.ModelName)

	processor := worker.NewTurnProcessor(store, narrator, hintQueue, log)
	w := worker.NewWorker(turnQueue, hintQueue, processor, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Worker is shutting down...")
	w.Stop()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Worker exited")
}
