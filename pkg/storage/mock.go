package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/campaign"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/userdata"
)

// MockStorage is an in-memory implementation of Storage for testing and for
// playing without Redis
type MockStorage struct {
	mu         sync.RWMutex
	userData   map[uuid.UUID][]byte
	cardTable  cards.CardTable
	scoreTable cards.ScoreTable
	campaign   campaign.Mapping
	scripts    map[string]*dialogue.Script
	pingError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		userData: make(map[uuid.UUID][]byte),
		campaign: campaign.Mapping{},
		scripts:  make(map[string]*dialogue.Script),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveUserData stores a JSON copy so later mutation of data is not visible
func (m *MockStorage) SaveUserData(ctx context.Context, playerID uuid.UUID, data *userdata.StoredUserData) error {
	if data == nil {
		return errors.New("user data cannot be nil")
	}
	encoded, err := userdata.MarshalStored(userdata.FromStored(data))
	if err != nil {
		return fmt.Errorf("failed to marshal user data: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userData[playerID] = encoded
	return nil
}

// LoadUserData mocks loading user data
func (m *MockStorage) LoadUserData(ctx context.Context, playerID uuid.UUID) (*userdata.StoredUserData, error) {
	m.mu.RLock()
	encoded, exists := m.userData[playerID]
	m.mu.RUnlock()
	if !exists {
		return nil, nil
	}
	return userdata.CreateFromJSON(encoded).Stored(), nil
}

// DeleteUserData mocks deleting user data
func (m *MockStorage) DeleteUserData(ctx context.Context, playerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userData, playerID)
	return nil
}

// ListPlayers returns stored player IDs in sorted order
func (m *MockStorage) ListPlayers(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.userData))
	for id := range m.userData {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return ids, nil
}

// SetTables configures the tables returned by the mock
func (m *MockStorage) SetTables(cardTable cards.CardTable, scoreTable cards.ScoreTable, mapping campaign.Mapping) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cardTable = cardTable
	m.scoreTable = scoreTable
	m.campaign = mapping
}

// GetCardTable mocks loading the card table
func (m *MockStorage) GetCardTable(ctx context.Context) (cards.CardTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.cardTable), nil
}

// GetScoreTable mocks loading the score table
func (m *MockStorage) GetScoreTable(ctx context.Context) (cards.ScoreTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.scoreTable), nil
}

// GetCampaign mocks loading the campaign
func (m *MockStorage) GetCampaign(ctx context.Context) (campaign.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mapping := make(campaign.Mapping, len(m.campaign))
	for scene, prereqs := range m.campaign {
		mapping[scene] = slices.Clone(prereqs)
	}
	return mapping, nil
}

// AddScript adds a script to the mock storage (for testing)
func (m *MockStorage) AddScript(filename string, s *dialogue.Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[filename] = s
}

// ListScripts mocks listing scripts
func (m *MockStorage) ListScripts(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string, len(m.scripts))
	for filename, s := range m.scripts {
		result[s.Scene] = filename
	}
	return result, nil
}

// GetScript mocks getting a script by filename
func (m *MockStorage) GetScript(ctx context.Context, filename string) (*dialogue.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.scripts[filename]
	if !exists {
		return nil, fmt.Errorf("script %q: %w", filename, ErrNotFound)
	}
	return s, nil
}
