package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/babble-engine/internal/config"
	"github.com/jwebster45206/babble-engine/internal/logger"
	"github.com/jwebster45206/babble-engine/internal/storage"
	"github.com/jwebster45206/babble-engine/pkg/analysis"
	"github.com/jwebster45206/babble-engine/pkg/game"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	dataDir := flag.String("data", cfg.DataDir, "data directory")
	out := flag.String("out", "", "CSV report path (default stdout)")
	flag.Parse()

	log := logger.SetupWriter(cfg, os.Stderr)

	if err := run(context.Background(), *dataDir, *out, log); err != nil {
		log.Error("Analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dataDir, out string, log *slog.Logger) error {
	data, err := game.LoadData(ctx, storage.NewFileStore(dataDir, log))
	if err != nil {
		return err
	}

	results := make([]analysis.Result, 0, len(data.Scripts))
	for _, scene := range data.SceneNames() {
		script := data.Scripts[scene]
		log.Info("Scoring encounter", "scene", scene, "nodes", len(script.Nodes))
		results = append(results, analysis.ScoreEncounter(scene, script.Prompts(), data.CardTable, data.ScoreTable))
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := analysis.WriteCSV(w, results); err != nil {
		return err
	}
	if out != "" {
		log.Info("Wrote report", "path", out, "encounters", len(results))
	}
	return nil
}
