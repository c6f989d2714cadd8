package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/userdata"
	"github.com/redis/go-redis/v9"
)

const userDataPrefix = "userdata:"

// User data operations (Redis-backed)

func userDataKey(playerID uuid.UUID) string {
	return userDataPrefix + playerID.String()
}

func (r *RedisStorage) SaveUserData(ctx context.Context, playerID uuid.UUID, data *userdata.StoredUserData) error {
	if data == nil {
		return errors.New("user data cannot be nil")
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		r.logger.Error("Failed to marshal user data", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to marshal user data: %w", err)
	}

	cmd := r.client.Set(ctx, userDataKey(playerID), string(encoded), r.ttl)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save user data", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to save user data: %w", err)
	}

	return nil
}

// LoadUserData returns nil, nil when nothing is stored for the player.
// Stored data with an unexpected shape loads as defaults.
func (r *RedisStorage) LoadUserData(ctx context.Context, playerID uuid.UUID) (*userdata.StoredUserData, error) {
	cmd := r.client.Get(ctx, userDataKey(playerID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("User data not found", "player_id", playerID)
			return nil, nil
		}
		r.logger.Error("Failed to load user data", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to load user data: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		return nil, nil
	}

	return userdata.CreateFromJSON([]byte(data)).Stored(), nil
}

func (r *RedisStorage) DeleteUserData(ctx context.Context, playerID uuid.UUID) error {
	cmd := r.client.Del(ctx, userDataKey(playerID))
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete user data", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to delete user data: %w", err)
	}
	return nil
}

// ListPlayers scans for stored user data keys. Keys that do not end in a
// UUID are skipped.
func (r *RedisStorage) ListPlayers(ctx context.Context) ([]uuid.UUID, error) {
	players := []uuid.UUID{}
	iter := r.client.Scan(ctx, 0, userDataPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id, err := uuid.Parse(strings.TrimPrefix(iter.Val(), userDataPrefix))
		if err != nil {
			r.logger.Warn("Skipping malformed user data key", "key", iter.Val())
			continue
		}
		players = append(players, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}
