package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/campaign"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dealer"
	"github.com/jwebster45206/babble-engine/pkg/encounter"
	"github.com/jwebster45206/babble-engine/pkg/userdata"
)

var (
	ErrCampaignComplete = errors.New("no encounters available")
	ErrUnknownScene     = errors.New("unknown scene")
)

// Store persists user data per player.
type Store interface {
	SaveUserData(ctx context.Context, playerID uuid.UUID, data *userdata.StoredUserData) error
	LoadUserData(ctx context.Context, playerID uuid.UUID) (*userdata.StoredUserData, error)
}

// Config holds everything a Session needs to build encounters.
type Config struct {
	Campaign   campaign.Mapping
	CardTable  cards.CardTable
	ScoreTable cards.ScoreTable
	// DeckSpecs maps a scene name to its deck order.
	DeckSpecs map[string][]string
	// DefaultScene is played first when nothing has been completed.
	DefaultScene string
	HandSize     int
	Shuffle      bool
	Shuffler     dealer.Shuffler
	Logger       *slog.Logger
	// Clock returns unix ms; nil uses wall time.
	Clock func() int64
}

// Session is one player's game: their user data, the campaign they are
// progressing through and the encounter being played.
type Session struct {
	cfg     Config
	nodes   campaign.NodeMapping
	manager *userdata.Manager
	active  *encounter.Encounter
	logger  *slog.Logger
}

// New validates the campaign and returns a session with default user data.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	nodes, err := campaign.MakeNodeMapping(cfg.Campaign)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign: %w", err)
	}
	if cfg.DefaultScene != "" && len(cfg.Campaign) > 0 {
		if _, ok := cfg.Campaign[cfg.DefaultScene]; !ok {
			return nil, fmt.Errorf("%w: default scene %q", ErrUnknownScene, cfg.DefaultScene)
		}
	}

	s := &Session{cfg: cfg, nodes: nodes, logger: logger}
	s.setUserData(userdata.CreateDefault())
	return s, nil
}

func (s *Session) setUserData(ud *userdata.UserData) {
	s.manager = userdata.NewManager(ud)
	if s.cfg.Clock != nil {
		s.manager.SetClock(s.cfg.Clock)
	}
	s.active = nil
}

// Load replaces the user data with stored JSON. Unreadable data loads as
// defaults.
func (s *Session) Load(data []byte) {
	s.setUserData(userdata.CreateFromJSON(data))
}

// Manager returns the user data manager.
func (s *Session) Manager() *userdata.Manager {
	return s.manager
}

// Nodes returns the laid out campaign.
func (s *Session) Nodes() campaign.NodeMapping {
	return s.nodes
}

// AvailableEncounters lists the scenes unlocked by the completed encounters
// of the current game.
func (s *Session) AvailableEncounters() []string {
	return campaign.ListAvailableEncounters(s.manager.CompletedSceneNames(), s.cfg.Campaign)
}

// NextSceneName is the default scene for a fresh game, otherwise the first
// available scene. It is empty when the campaign is finished.
func (s *Session) NextSceneName() string {
	if len(s.manager.CompletedSceneNames()) == 0 && s.cfg.DefaultScene != "" {
		return s.cfg.DefaultScene
	}
	if available := s.AvailableEncounters(); len(available) > 0 {
		return available[0]
	}
	return ""
}

func (s *Session) ensureGame() {
	if s.manager.UserData.Session.SavedGame == nil {
		s.manager.NewGame()
	}
}

// Encounter resumes the active encounter, or starts the next scene.
func (s *Session) Encounter() (*encounter.Encounter, error) {
	s.ensureGame()
	if session, ok := s.manager.PeekEncounter(); ok {
		if s.active != nil && s.active.SceneName() == session.SceneName {
			return s.active, nil
		}
		return s.build(session)
	}

	scene := s.NextSceneName()
	if scene == "" {
		return nil, ErrCampaignComplete
	}
	return s.StartEncounter(scene)
}

// StartEncounter begins a new attempt at scene, leaving any active encounter
// unfinished.
func (s *Session) StartEncounter(scene string) (*encounter.Encounter, error) {
	if len(s.cfg.Campaign) > 0 {
		if _, ok := s.cfg.Campaign[scene]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScene, scene)
		}
	}
	s.ensureGame()
	s.syncActive()

	session := s.manager.PushEncounter(scene)
	s.logger.Info("Starting encounter", "scene", scene, "started_at", session.StartedAt)
	return s.build(session)
}

func (s *Session) build(session userdata.EncounterSession) (*encounter.Encounter, error) {
	enc, err := encounter.New(encounter.Options{
		Session:    session,
		CardTable:  s.cfg.CardTable,
		ScoreTable: s.cfg.ScoreTable,
		DeckSpec:   s.cfg.DeckSpecs[session.SceneName],
		HandSize:   s.cfg.HandSize,
		Shuffle:    s.cfg.Shuffle,
		Shuffler:   s.cfg.Shuffler,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build encounter %q: %w", session.SceneName, err)
	}
	s.active = enc
	s.syncActive()
	return enc, nil
}

// syncActive copies the live encounter into the session record.
func (s *Session) syncActive() {
	if s.active == nil {
		return
	}
	s.manager.UpdateEncounter(s.active.ToUserData())
}

// CompleteEncounter finishes enc, records it in the session and saves the
// game.
func (s *Session) CompleteEncounter(enc *encounter.Encounter) (userdata.EncounterSession, error) {
	if enc != s.active {
		return userdata.EncounterSession{}, fmt.Errorf("encounter %q is not active", enc.SceneName())
	}
	if enc.State() != encounter.StateComplete {
		enc.Complete(s.manager.Now())
	}
	s.syncActive()

	completed, ok := s.manager.CompleteEncounter()
	if !ok {
		return userdata.EncounterSession{}, fmt.Errorf("no active encounter for %q", enc.SceneName())
	}
	s.active = nil
	s.manager.SaveGame()
	s.logger.Info("Encounter complete", "scene", completed.SceneName, "mood", enc.Mood())
	return completed, nil
}

// ResumeGame loads the most recently updated save and reopens its last
// encounter if it was left unfinished. It reports false when there is no
// save to resume.
func (s *Session) ResumeGame() bool {
	s.active = nil
	if s.manager.ResumeGame(nil) == nil {
		return false
	}
	if session, ok := s.manager.ReopenEncounter(); ok {
		s.logger.Info("Reopened encounter", "scene", session.SceneName, "started_at", session.StartedAt)
	}
	return true
}

// Export saves the game and returns the stored JSON.
func (s *Session) Export() ([]byte, error) {
	s.syncActive()
	s.manager.SaveGame()
	return userdata.MarshalStored(s.manager.UserData)
}

// Save writes the user data to store.
func (s *Session) Save(ctx context.Context, store Store, playerID uuid.UUID) error {
	s.syncActive()
	s.manager.SaveGame()
	if err := store.SaveUserData(ctx, playerID, s.manager.UserData.Stored()); err != nil {
		return fmt.Errorf("failed to save user data: %w", err)
	}
	return nil
}

// Restore replaces the user data with what store holds for playerID. A
// player with nothing stored starts from defaults.
func (s *Session) Restore(ctx context.Context, store Store, playerID uuid.UUID) error {
	stored, err := store.LoadUserData(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to load user data: %w", err)
	}
	s.setUserData(userdata.FromStored(stored))
	return nil
}
