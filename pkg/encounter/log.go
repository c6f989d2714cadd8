package encounter

import "github.com/jwebster45206/babble-engine/pkg/dialogue"

// EntryKind tags a log entry.
type EntryKind string

const (
	KindPrompt   EntryKind = "PROMPT"
	KindPlayCard EntryKind = "PLAY_CARD"
	KindComplete EntryKind = "COMPLETE"
)

// LogEntry is one event in an encounter's append-only history. The concrete
// types are PromptEntry, PlayCardEntry and CompleteEntry.
type LogEntry interface {
	Kind() EntryKind
	At() int64
	isLogEntry()
}

// PromptEntry records a dialogue node being shown.
type PromptEntry struct {
	Node dialogue.DialogueNode `json:"node"`
}

func (e PromptEntry) Kind() EntryKind { return KindPrompt }
func (e PromptEntry) At() int64       { return e.Node.PromptedMs }
func (PromptEntry) isLogEntry()       {}

// PlayCardEntry records a card played into the active node.
type PlayCardEntry struct {
	AtMs             int64   `json:"at"`
	CardFeatures     string  `json:"cardFeatures"`
	FeatureReactions string  `json:"featureReactions"`
	Score            float64 `json:"score"`
	MoodBefore       float64 `json:"moodBefore"`
	MoodAfter        float64 `json:"moodAfter"`
}

func (e PlayCardEntry) Kind() EntryKind { return KindPlayCard }
func (e PlayCardEntry) At() int64       { return e.AtMs }
func (PlayCardEntry) isLogEntry()       {}

// CompleteEntry records the end of the encounter.
type CompleteEntry struct {
	AtMs int64   `json:"at"`
	Mood float64 `json:"mood"`
}

func (e CompleteEntry) Kind() EntryKind { return KindComplete }
func (e CompleteEntry) At() int64       { return e.AtMs }
func (CompleteEntry) isLogEntry()       {}

// lastOf returns the most recent entry of type T.
func lastOf[T LogEntry](log []LogEntry) (T, bool) {
	for i := len(log) - 1; i >= 0; i-- {
		if e, ok := log[i].(T); ok {
			return e, true
		}
	}
	var zero T
	return zero, false
}
