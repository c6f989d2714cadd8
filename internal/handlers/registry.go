package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/encounter"
	"github.com/jwebster45206/babble-engine/pkg/game"
	"github.com/jwebster45206/babble-engine/pkg/storage"
)

// SessionFactory builds an empty game session.
type SessionFactory func(logger *slog.Logger) (*game.Session, error)

// PlayerSession is a loaded player. An encounter is driven by one request at
// a time, so every use holds mu.
type PlayerSession struct {
	mu        sync.Mutex
	id        uuid.UUID
	session   *game.Session
	encounter *encounter.Encounter
}

// Registry keeps loaded players in memory and loads the rest from storage on
// first use.
type Registry struct {
	mu         sync.Mutex
	players    map[uuid.UUID]*PlayerSession
	store      storage.Storage
	newSession SessionFactory
	logger     *slog.Logger
}

func NewRegistry(store storage.Storage, newSession SessionFactory, logger *slog.Logger) *Registry {
	return &Registry{
		players:    make(map[uuid.UUID]*PlayerSession),
		store:      store,
		newSession: newSession,
		logger:     logger,
	}
}

// Get returns the loaded player, restoring their saved game if needed.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*PlayerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[id]; ok {
		return p, nil
	}

	session, err := r.newSession(r.logger.With("player_id", id.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := session.Restore(ctx, r.store, id); err != nil {
		return nil, err
	}
	session.ResumeGame()

	p := &PlayerSession{id: id, session: session}
	r.players[id] = p
	r.logger.Debug("Player loaded", "player_id", id)
	return p, nil
}

// Forget drops a player from memory and deletes their saved data.
func (r *Registry) Forget(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	delete(r.players, id)
	r.mu.Unlock()
	return r.store.DeleteUserData(ctx, id)
}

// Save writes the player's progress to storage.
func (r *Registry) Save(ctx context.Context, p *PlayerSession) error {
	return p.session.Save(ctx, r.store, p.id)
}
