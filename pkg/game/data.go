package game

import (
	"context"
	"fmt"
	"sort"

	"github.com/jwebster45206/babble-engine/pkg/campaign"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
)

// DataSource loads authored game data.
type DataSource interface {
	GetCardTable(ctx context.Context) (cards.CardTable, error)
	GetScoreTable(ctx context.Context) (cards.ScoreTable, error)
	GetCampaign(ctx context.Context) (campaign.Mapping, error)
	ListScripts(ctx context.Context) (map[string]string, error)
	GetScript(ctx context.Context, filename string) (*dialogue.Script, error)
}

// Data is everything authored for a game.
type Data struct {
	CardTable  cards.CardTable
	ScoreTable cards.ScoreTable
	Campaign   campaign.Mapping
	// Scripts are keyed by scene name.
	Scripts map[string]*dialogue.Script
}

// LoadData reads tables, campaign and scripts from src.
func LoadData(ctx context.Context, src DataSource) (*Data, error) {
	cardTable, err := src.GetCardTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load card table: %w", err)
	}
	scoreTable, err := src.GetScoreTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load score table: %w", err)
	}
	mapping, err := src.GetCampaign(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	files, err := src.ListScripts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	scripts := make(map[string]*dialogue.Script, len(files))
	for scene, filename := range files {
		s, err := src.GetScript(ctx, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to load script for %s: %w", scene, err)
		}
		scripts[scene] = s
	}

	return &Data{
		CardTable:  cardTable,
		ScoreTable: scoreTable,
		Campaign:   mapping,
		Scripts:    scripts,
	}, nil
}

// DeckSpecs collects the deck order of every script that declares one.
func (d *Data) DeckSpecs() map[string][]string {
	specs := map[string][]string{}
	for scene, s := range d.Scripts {
		if len(s.Deck) > 0 {
			specs[scene] = s.Deck
		}
	}
	return specs
}

// SceneNames returns the scenes with scripts in sorted order.
func (d *Data) SceneNames() []string {
	names := make([]string, 0, len(d.Scripts))
	for scene := range d.Scripts {
		names = append(names, scene)
	}
	sort.Strings(names)
	return names
}

// Config builds a session config from the loaded data.
func (d *Data) Config() Config {
	return Config{
		Campaign:   d.Campaign,
		CardTable:  d.CardTable,
		ScoreTable: d.ScoreTable,
		DeckSpecs:  d.DeckSpecs(),
	}
}
