package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/campaign"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/userdata"
)

var ErrNotFound = errors.New("not found")

// Storage defines a unified interface for all storage operations
// This interface combines user data persistence (Redis) with game data loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// User data operations (Redis-backed)
	// LoadUserData returns nil, nil for a player with nothing stored.
	SaveUserData(ctx context.Context, playerID uuid.UUID, data *userdata.StoredUserData) error
	LoadUserData(ctx context.Context, playerID uuid.UUID) (*userdata.StoredUserData, error)
	DeleteUserData(ctx context.Context, playerID uuid.UUID) error
	ListPlayers(ctx context.Context) ([]uuid.UUID, error)

	// Table operations (filesystem-backed)
	GetCardTable(ctx context.Context) (cards.CardTable, error)
	GetScoreTable(ctx context.Context) (cards.ScoreTable, error)
	GetCampaign(ctx context.Context) (campaign.Mapping, error)

	// Script operations (filesystem-backed)
	// ListScripts maps scene names to script filenames.
	ListScripts(ctx context.Context) (map[string]string, error)
	GetScript(ctx context.Context, filename string) (*dialogue.Script, error)
}
