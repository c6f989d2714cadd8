package userdata

import (
	"slices"
	"time"
)

// Manager applies save-slot and encounter bookkeeping to a UserData.
type Manager struct {
	UserData *UserData
	now      func() int64
}

// NewManager wraps ud, or fresh defaults when ud is nil.
func NewManager(ud *UserData) *Manager {
	if ud == nil {
		ud = CreateDefault()
	}
	return &Manager{
		UserData: ud,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// SetClock replaces the unix-ms clock used for timestamps.
func (m *Manager) SetClock(now func() int64) {
	m.now = now
}

// Now returns the manager's current time in unix ms.
func (m *Manager) Now() int64 {
	return m.now()
}

// NewGame stores the current session and starts a blank save slot. The new
// slot is added to SavedGames on the next SaveGame.
func (m *Manager) NewGame() *SavedGame {
	now := m.now()
	m.SaveGame()
	return m.writeSession(SavedGame{
		Encounters: []EncounterSession{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}).SavedGame
}

// ResumeGame stores the current session and loads the save created at
// createdAt, or the most recently updated save when createdAt is nil.
// It returns nil if there is no such save.
func (m *Manager) ResumeGame(createdAt *int64) *SavedGame {
	m.SaveGame()

	games := m.UserData.SavedGames
	index := -1
	if createdAt != nil {
		index = slices.IndexFunc(games, func(g SavedGame) bool { return g.CreatedAt == *createdAt })
	} else {
		for i, g := range games {
			if index == -1 || g.UpdatedAt > games[index].UpdatedAt {
				index = i
			}
		}
	}
	if index == -1 {
		return nil
	}
	return m.writeSession(games[index]).SavedGame
}

func (m *Manager) writeSession(save SavedGame) *Session {
	save.Encounters = slices.Clone(save.Encounters)
	if save.Encounters == nil {
		save.Encounters = []EncounterSession{}
	}
	m.UserData.Session = Session{
		SavedGame:  &save,
		Encounters: slices.Clone(save.Encounters),
		Active:     -1,
	}
	return &m.UserData.Session
}

// SaveGame copies the session's encounters into its save slot and upserts
// the slot into SavedGames. It returns nil when no game is loaded.
func (m *Manager) SaveGame() *SavedGame {
	session := &m.UserData.Session
	save := session.SavedGame
	if save == nil {
		return nil
	}

	save.UpdatedAt = m.now()
	save.Encounters = slices.Clone(session.Encounters)
	if save.Encounters == nil {
		save.Encounters = []EncounterSession{}
	}

	stored := *save
	stored.Encounters = slices.Clone(save.Encounters)
	index := slices.IndexFunc(m.UserData.SavedGames, func(g SavedGame) bool { return g.CreatedAt == save.CreatedAt })
	if index == -1 {
		m.UserData.SavedGames = append(m.UserData.SavedGames, stored)
	} else {
		m.UserData.SavedGames[index] = stored
	}
	return save
}

// PushEncounter starts a new encounter and makes it the active one.
func (m *Manager) PushEncounter(sceneName string) EncounterSession {
	session := &m.UserData.Session
	encounter := EncounterSession{
		SceneName: sceneName,
		StartedAt: m.now(),
	}
	session.Encounters = append(session.Encounters, encounter)
	session.Active = len(session.Encounters) - 1
	return encounter
}

// PeekEncounter returns the active encounter.
func (m *Manager) PeekEncounter() (EncounterSession, bool) {
	session := &m.UserData.Session
	if session.Active < 0 || session.Active >= len(session.Encounters) {
		return EncounterSession{}, false
	}
	return session.Encounters[session.Active], true
}

// ReopenEncounter makes the last encounter of the session active again when
// it was left unfinished.
func (m *Manager) ReopenEncounter() (EncounterSession, bool) {
	session := &m.UserData.Session
	last := len(session.Encounters) - 1
	if last < 0 || session.Encounters[last].Completed() {
		return EncounterSession{}, false
	}
	session.Active = last
	return session.Encounters[last], true
}

// PeekEncounterName returns the scene name depth entries from the end of the
// session's encounter list, or defaultName when there is none.
func (m *Manager) PeekEncounterName(defaultName string, depth int) string {
	encounters := m.UserData.Session.Encounters
	index := len(encounters) - 1 - depth
	if index < 0 || index >= len(encounters) {
		return defaultName
	}
	return encounters[index].SceneName
}

// UpdateEncounter replaces the active encounter record, keeping its scene
// name and start time.
func (m *Manager) UpdateEncounter(updated EncounterSession) bool {
	session := &m.UserData.Session
	if _, ok := m.PeekEncounter(); !ok {
		return false
	}
	current := &session.Encounters[session.Active]
	current.CompletedAt = updated.CompletedAt
	current.Dealer = updated.Dealer
	return true
}

// CompleteEncounter stamps the active encounter as complete, if it is not
// already, and clears it.
func (m *Manager) CompleteEncounter() (EncounterSession, bool) {
	session := &m.UserData.Session
	if _, ok := m.PeekEncounter(); !ok {
		return EncounterSession{}, false
	}
	current := &session.Encounters[session.Active]
	if current.CompletedAt == nil {
		now := m.now()
		current.CompletedAt = &now
	}
	session.Active = -1
	return *current, true
}

// CompletedSceneNames lists the scenes completed in this session, in order,
// without duplicates.
func (m *Manager) CompletedSceneNames() []string {
	names := []string{}
	for _, e := range m.UserData.Session.Encounters {
		if e.Completed() && !slices.Contains(names, e.SceneName) {
			names = append(names, e.SceneName)
		}
	}
	return names
}
