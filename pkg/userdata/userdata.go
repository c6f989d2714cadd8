package userdata

import (
	"encoding/json"
	"log/slog"

	"github.com/jwebster45206/babble-engine/pkg/dealer"
)

// EncounterSession is the durable record of one attempt at an encounter.
type EncounterSession struct {
	SceneName   string           `json:"sceneName"`
	StartedAt   int64            `json:"startedAt"`             // unix ms
	CompletedAt *int64           `json:"completedAt,omitempty"` // unix ms
	Dealer      *dealer.UserData `json:"dealer,omitempty"`
}

// Completed reports whether the encounter has a completion time.
func (e EncounterSession) Completed() bool {
	return e.CompletedAt != nil
}

// SavedGame is one save slot. Encounters are ordered by StartedAt.
type SavedGame struct {
	Encounters []EncounterSession `json:"encounters"`
	CreatedAt  int64              `json:"createdAt"`
	UpdatedAt  int64              `json:"updatedAt"`
}

// Options are player preferences stored alongside saves.
type Options struct {
	Fullscreen    string `json:"fullscreen"` // "on" or "off"
	BindHints     string `json:"bindHints"`  // "on" or "off"
	MusicVolume   int    `json:"musicVolume"`
	EffectsVolume int    `json:"effectsVolume"`
}

// Session is the in-memory play session. It is never persisted directly;
// SaveGame copies it into the save slot.
type Session struct {
	SavedGame  *SavedGame
	Encounters []EncounterSession
	// Active indexes the encounter in progress, or -1.
	Active int
}

// UserData is everything the game keeps for one player.
type UserData struct {
	SavedGames []SavedGame `json:"savedGames"`
	Session    Session     `json:"-"`
	Options    Options     `json:"options"`
}

// StoredUserData is the persisted subset of UserData.
type StoredUserData struct {
	SavedGames []SavedGame `json:"savedGames"`
	Options    Options     `json:"options"`
}

// Stored returns the persisted subset.
func (u *UserData) Stored() *StoredUserData {
	return &StoredUserData{SavedGames: u.SavedGames, Options: u.Options}
}

// DefaultOptions returns the options of a fresh install.
func DefaultOptions() Options {
	return Options{
		Fullscreen:    "on",
		BindHints:     "off",
		MusicVolume:   100,
		EffectsVolume: 100,
	}
}

// CreateDefault returns user data with no saves and a blank session.
func CreateDefault() *UserData {
	return &UserData{
		SavedGames: []SavedGame{},
		Session: Session{
			Encounters: []EncounterSession{},
			Active:     -1,
		},
		Options: DefaultOptions(),
	}
}

// FromStored builds user data from its persisted subset. Options missing from
// stored keep their defaults.
func FromStored(stored *StoredUserData) *UserData {
	ud := CreateDefault()
	if stored == nil {
		return ud
	}
	if stored.SavedGames != nil {
		ud.SavedGames = stored.SavedGames
	}
	ud.Options = stored.Options
	return ud
}

// CreateFromJSON loads stored user data. Invalid JSON or an unexpected shape
// yields the defaults; options present in the data override the defaults.
func CreateFromJSON(data []byte) *UserData {
	ud := CreateDefault()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("CreateFromJSON parse error", "error", err, "length", len(data))
		return ud
	}
	if !isStoredData(raw) {
		slog.Warn("CreateFromJSON unexpected shape")
		return ud
	}

	var savedGames []SavedGame
	if err := json.Unmarshal(raw["savedGames"], &savedGames); err != nil {
		slog.Warn("CreateFromJSON saved games decode error", "error", err)
		return ud
	}
	ud.SavedGames = savedGames

	if opts, ok := raw["options"]; ok {
		merged := ud.Options
		if err := json.Unmarshal(opts, &merged); err == nil {
			ud.Options = merged
		} else {
			slog.Warn("CreateFromJSON options decode error", "error", err)
		}
	}
	return ud
}

// isStoredData checks that savedGames is an array of objects that each have
// encounters, createdAt and updatedAt.
func isStoredData(raw map[string]json.RawMessage) bool {
	games, ok := raw["savedGames"]
	if !ok {
		return false
	}
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(games, &list); err != nil || list == nil {
		return false
	}
	for _, game := range list {
		for _, key := range []string{"encounters", "createdAt", "updatedAt"} {
			if _, ok := game[key]; !ok {
				return false
			}
		}
	}
	return true
}

// MarshalStored encodes the persisted subset of u.
func MarshalStored(u *UserData) ([]byte, error) {
	return json.Marshal(u.Stored())
}
