package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/babble-engine/pkg/campaign"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/storage"
)

// Data directory layout
const (
	CardTableFile  = "cards.csv"
	ScoreTableFile = "scoreTable.csv"
	CampaignFile   = "campaign.csv"
	ScriptsDir     = "encounters"
)

// FileStore loads game data from a data directory. RedisStorage embeds it
// for the filesystem-backed half of the Storage interface.
type FileStore struct {
	dataDir string
	logger  *slog.Logger
}

// NewFileStore creates a file store rooted at dataDir.
func NewFileStore(dataDir string, logger *slog.Logger) *FileStore {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &FileStore{dataDir: dataDir, logger: logger}
}

// DataDir returns the root of the data directory.
func (r *FileStore) DataDir() string {
	return r.dataDir
}

// Table operations (filesystem-backed)

func (r *FileStore) openData(name string) (*os.File, error) {
	path := filepath.Join(r.dataDir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func (r *FileStore) GetCardTable(ctx context.Context) (cards.CardTable, error) {
	f, err := r.openData(CardTableFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := cards.ParseCardsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", CardTableFile, err)
	}
	return table, nil
}

func (r *FileStore) GetScoreTable(ctx context.Context) (cards.ScoreTable, error) {
	f, err := r.openData(ScoreTableFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := cards.ParseScoresCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ScoreTableFile, err)
	}
	return table, nil
}

func (r *FileStore) GetCampaign(ctx context.Context) (campaign.Mapping, error) {
	f, err := r.openData(CampaignFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mapping, err := campaign.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", CampaignFile, err)
	}
	return mapping, nil
}

// Script operations (filesystem-backed)

func (r *FileStore) ListScripts(ctx context.Context) (map[string]string, error) {
	scriptsDir := filepath.Join(r.dataDir, ScriptsDir)
	scripts := make(map[string]string)

	err := filepath.WalkDir(scriptsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		s, err := dialogue.LoadScript(path)
		if err != nil {
			r.logger.Warn("Failed to load script file", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(scriptsDir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		scene := s.Scene
		if scene == "" {
			scene = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		scripts[scene] = rel
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk scripts directory", "error", err)
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	return scripts, nil
}

func (r *FileStore) GetScript(ctx context.Context, filename string) (*dialogue.Script, error) {
	f, err := r.openData(filepath.Join(ScriptsDir, filename))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dialogue.ReadScript(f)
}
