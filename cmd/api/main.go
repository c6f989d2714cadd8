package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/babble-engine/internal/config"
	"github.com/jwebster45206/babble-engine/internal/handlers"
	"github.com/jwebster45206/babble-engine/internal/logger"
	"github.com/jwebster45206/babble-engine/internal/storage"
	"github.com/jwebster45206/babble-engine/pkg/dealer"
	"github.com/jwebster45206/babble-engine/pkg/game"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Babble Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.SaveTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx, 30, 2*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	data, err := game.LoadData(storageCtx, store)
	if err != nil {
		log.Error("Failed to load game data", "error", err)
		os.Exit(1)
	}
	log.Info("Game data loaded",
		"cards", len(data.CardTable),
		"scores", len(data.ScoreTable),
		"scenes", len(data.Campaign),
		"scripts", len(data.Scripts))

	newSession := func(l *slog.Logger) (*game.Session, error) {
		sessionCfg := data.Config()
		sessionCfg.DefaultScene = cfg.DefaultScene
		sessionCfg.HandSize = cfg.HandSize
		sessionCfg.Shuffle = true
		sessionCfg.Logger = l
		if cfg.ShuffleSeed != 0 {
			sessionCfg.Shuffler = dealer.NewSeededShuffler(cfg.ShuffleSeed)
		}
		return game.New(sessionCfg)
	}

	// probe validates the campaign at startup.
	probe, err := newSession(log)
	if err != nil {
		log.Error("Invalid game data", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	mux.Handle("/v1/campaign", handlers.NewCampaignHandler(probe.Nodes(), log))

	registry := handlers.NewRegistry(store, newSession, log)
	handlers.NewPlayerHandler(registry, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.RequestLogger(log, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
