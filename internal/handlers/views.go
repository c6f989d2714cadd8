package handlers

import (
	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/dealer"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/encounter"
)

// EncounterView is what a client needs to draw an encounter.
type EncounterView struct {
	Scene           string                `json:"scene"`
	State           encounter.State       `json:"state"`
	Mood            float64               `json:"mood"`
	MoodQuality     dialogue.Quality      `json:"moodQuality"`
	LastPlayQuality dialogue.Quality      `json:"lastPlayQuality"`
	Confidence      float64               `json:"confidence"`
	Node            dialogue.DialogueNode `json:"node"`
	Hand            []dealer.CardInstance `json:"hand"`
	Zones           map[dealer.Zone]int   `json:"zones"`
	CompletedAt     *int64                `json:"completedAt,omitempty"`
}

func newEncounterView(enc *encounter.Encounter) EncounterView {
	zones := make(map[dealer.Zone]int)
	for _, z := range enc.Dealer().Zones() {
		zones[z] = enc.Dealer().Len(z)
	}
	return EncounterView{
		Scene:           enc.SceneName(),
		State:           enc.State(),
		Mood:            enc.Mood(),
		MoodQuality:     enc.MoodQuality(),
		LastPlayQuality: enc.LastPlayQuality(),
		Confidence:      enc.Confidence(),
		Node:            enc.PeekNode(),
		Hand:            enc.Hand(),
		Zones:           zones,
		CompletedAt:     enc.CompletedAt(),
	}
}

// PlayerView summarizes a player's campaign progress.
type PlayerView struct {
	PlayerID  uuid.UUID      `json:"playerId"`
	Completed []string       `json:"completed"`
	Available []string       `json:"available"`
	Next      string         `json:"next,omitempty"`
	Encounter *EncounterView `json:"encounter,omitempty"`
}

// ActionResponse reports whether an encounter action took effect. Actions
// that do not fit the encounter's state are ignored rather than failed.
type ActionResponse struct {
	Applied   bool          `json:"applied"`
	Drawn     int           `json:"drawn,omitempty"`
	Encounter EncounterView `json:"encounter"`
}

// LogEntryView tags a log entry with its kind.
type LogEntryView struct {
	Kind  encounter.EntryKind `json:"kind"`
	At    int64               `json:"at"`
	Entry encounter.LogEntry  `json:"entry"`
}

func newLogView(log []encounter.LogEntry) []LogEntryView {
	views := make([]LogEntryView, 0, len(log))
	for _, e := range log {
		views = append(views, LogEntryView{Kind: e.Kind(), At: e.At(), Entry: e})
	}
	return views
}
