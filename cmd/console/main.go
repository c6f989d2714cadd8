package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/internal/config"
	"github.com/jwebster45206/babble-engine/internal/logger"
	"github.com/jwebster45206/babble-engine/internal/storage"
	"github.com/jwebster45206/babble-engine/pkg/dealer"
	"github.com/jwebster45206/babble-engine/pkg/game"
	pkgstorage "github.com/jwebster45206/babble-engine/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	playerFlag := flag.String("player", "", "player id to resume (default: a new player)")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := logger.SetupWriter(cfg, logOut)

	playerID := uuid.New()
	if *playerFlag != "" {
		playerID, err = uuid.Parse(*playerFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid player id: %v\n", err)
			os.Exit(1)
		}
	}

	player, closeStore, err := setup(cfg, playerID, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start game: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	p := tea.NewProgram(NewConsoleUI(player),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Progress saved for player %s\n", playerID)
}

// setup loads game data, connects to Redis for saves and resumes the
// player. Without Redis, saves only last for this run.
func setup(cfg *config.Config, playerID uuid.UUID, log *slog.Logger) (*Player, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data, err := game.LoadData(ctx, storage.NewFileStore(cfg.DataDir, log))
	if err != nil {
		return nil, nil, err
	}

	var store pkgstorage.Storage
	redisStore, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.SaveTTL, log)
	if err == nil {
		err = redisStore.WaitForConnection(ctx, 3, 500*time.Millisecond)
	}
	if err != nil {
		log.Warn("Redis unavailable, saves will not persist", "error", err)
		if redisStore != nil {
			_ = redisStore.Close()
		}
		store = pkgstorage.NewMockStorage()
	} else {
		store = redisStore
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}

	sessionCfg := data.Config()
	sessionCfg.DefaultScene = cfg.DefaultScene
	sessionCfg.HandSize = cfg.HandSize
	sessionCfg.Shuffle = true
	sessionCfg.Logger = logger.WithPlayer(log, playerID.String())
	if cfg.ShuffleSeed != 0 {
		sessionCfg.Shuffler = dealer.NewSeededShuffler(cfg.ShuffleSeed)
	}

	session, err := game.New(sessionCfg)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	if err := session.Restore(ctx, store, playerID); err != nil {
		closeStore()
		return nil, nil, err
	}

	player := NewPlayer(session, data, store, playerID, func() int64 { return time.Now().UnixMilli() }, log)
	resumed, err := player.Resume()
	if err != nil {
		log.Warn("Could not resume encounter", "error", err)
	} else if resumed {
		log.Info("Resumed encounter", "scene", player.Encounter().SceneName())
	}
	return player, closeStore, nil
}
