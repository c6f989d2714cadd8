package encounter

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dealer"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/userdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCardTable = cards.CardTable{
	{ID: "agree-listen", Text: "Sure, go on.", Features: "agree listen"},
	{ID: "deny", Text: "No way.", Features: "deny"},
	{ID: "joke", Text: "Knock knock.", Features: "joke"},
	{ID: "flatter", Text: "Nice hat.", Features: "flatter"},
	{ID: "shrug", Text: "...", Features: "shrug"},
}

var testScoreTable = cards.ScoreTable{
	{Feature: "agree", Reaction: "bad", Score: -10},
	{Feature: "listen", Reaction: "good", Score: 20},
	{Feature: "agree", Reaction: "good", Score: 30},
	{Feature: "deny", Reaction: "bad", Score: -50},
	{Feature: "flatter", Reaction: "good", Score: 40},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEncounter(t *testing.T, opts Options) *Encounter {
	t.Helper()
	if opts.CardTable == nil {
		opts.CardTable = testCardTable
	}
	if opts.ScoreTable == nil {
		opts.ScoreTable = testScoreTable
	}
	if opts.Session.SceneName == "" {
		opts.Session = userdata.EncounterSession{SceneName: "Amy1", StartedAt: 100}
	}
	opts.Logger = discardLogger()
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

func handCard(t *testing.T, e *Encounter, id string) uuid.UUID {
	t.Helper()
	for _, c := range e.Hand() {
		if c.Card.ID == id {
			return c.UUID
		}
	}
	t.Fatalf("card %q not in hand", id)
	return uuid.Nil
}

func cardIDs(instances []dealer.CardInstance) []string {
	ids := make([]string, 0, len(instances))
	for _, c := range instances {
		ids = append(ids, c.Card.ID)
	}
	return ids
}

func TestNew(t *testing.T) {
	t.Run("deals the card table and draws a hand", func(t *testing.T) {
		e := newTestEncounter(t, Options{})
		d := e.Dealer()

		assert.Equal(t, len(testCardTable), d.Total())
		assert.Equal(t, []string{"agree-listen", "deny", "joke"}, cardIDs(e.Hand()))
		assert.Equal(t, 2, d.Len(dealer.ZoneDeck))
		assert.Equal(t, 0, d.Len(dealer.ZonePlay))
		assert.Equal(t, 0, d.Len(dealer.ZoneDiscard))
		assert.Equal(t, StateWaiting, e.State())
		assert.Equal(t, "Amy1", e.SceneName())
	})

	t.Run("orders the deck by deck spec", func(t *testing.T) {
		e := newTestEncounter(t, Options{
			DeckSpec: []string{"shrug", "shrug", "missing", "deny"},
			HandSize: 2,
		})
		deck, err := e.Dealer().Peek(dealer.ZoneDeck, dealer.All)
		require.NoError(t, err)

		assert.Equal(t, []string{"shrug", "shrug"}, cardIDs(e.Hand()))
		assert.Equal(t, []string{"deny", "agree-listen", "joke", "flatter"}, cardIDs(deck))
		assert.Equal(t, 6, e.Dealer().Total())
	})

	t.Run("shuffles with the given shuffler", func(t *testing.T) {
		a := newTestEncounter(t, Options{Shuffle: true, Shuffler: dealer.NewSeededShuffler(7)})
		b := newTestEncounter(t, Options{Shuffle: true, Shuffler: dealer.NewSeededShuffler(7)})
		assert.Equal(t, cardIDs(a.Hand()), cardIDs(b.Hand()))
	})

	t.Run("fails on a snapshot with unknown cards", func(t *testing.T) {
		snapshot := dealer.UserData{
			dealer.ZoneHand: {UUID: uuid.New(), Cards: []dealer.StoredCard{{UUID: uuid.New(), ID: "nope"}}},
		}
		_, err := New(Options{
			Session:   userdata.EncounterSession{SceneName: "Amy1", Dealer: &snapshot},
			CardTable: testCardTable,
			Logger:    discardLogger(),
		})
		assert.ErrorIs(t, err, dealer.ErrUnknownCardID)
	})
}

func TestEncounter_Draw(t *testing.T) {
	e := newTestEncounter(t, Options{})

	assert.Equal(t, 1, e.Draw(1))
	assert.Equal(t, 4, e.Dealer().Len(dealer.ZoneHand))

	assert.Equal(t, 1, e.Draw(10), "draws only what is left")
	assert.Equal(t, 0, e.Dealer().Len(dealer.ZoneDeck))
	assert.Equal(t, 0, e.Draw(1))
	assert.Equal(t, 0, e.Draw(-2))
	assert.Equal(t, len(testCardTable), e.Dealer().Len(dealer.ZoneHand))
}

func TestEncounter_Prompt(t *testing.T) {
	e := newTestEncounter(t, Options{})

	err := e.Prompt(dialogue.PromptNode{Title: "good_1", FeatureReactions: "agree_good", PromptedMs: 10})
	require.NoError(t, err)
	assert.Equal(t, StatePrompting, e.State())

	node, ok := e.CurrentNode()
	require.True(t, ok)
	assert.Equal(t, dialogue.DialogueNode{
		Title:            "good_1",
		Quality:          dialogue.QualityGood,
		Step:             "1",
		FeatureReactions: "agree_good",
		PromptedMs:       10,
		TickedMs:         10,
	}, node)

	// A second prompt while one is active is ignored.
	require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "bad_2", PromptedMs: 20}))
	node, _ = e.CurrentNode()
	assert.Equal(t, "good_1", node.Title)

	log := e.Log()
	require.Len(t, log, 1)
	assert.Equal(t, KindPrompt, log[0].Kind())
	assert.Equal(t, int64(10), log[0].At())
}

func TestEncounter_Prompt_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		prompt dialogue.PromptNode
	}{
		{name: "empty title", prompt: dialogue.PromptNode{Title: " "}},
		{name: "negative time", prompt: dialogue.PromptNode{Title: "good_1", PromptedMs: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEncounter(t, Options{})
			err := e.Prompt(tt.prompt)
			assert.ErrorIs(t, err, dialogue.ErrInvalidNode)
			assert.Equal(t, StateWaiting, e.State())
			assert.Empty(t, e.Log())
		})
	}
}

func TestCalculateConfidence(t *testing.T) {
	tests := []struct {
		ticked   int64
		expected float64
	}{
		{ticked: 1000, expected: 1},
		{ticked: 1500, expected: 0.75},
		{ticked: 2000, expected: 0.5},
		{ticked: 2500, expected: 0.25},
		{ticked: 3000, expected: 0},
		{ticked: 9000, expected: 0},
		{ticked: 500, expected: 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, CalculateConfidence(1000, tt.ticked), 1e-9, "ticked %d", tt.ticked)
	}
}

func TestEncounter_Confidence(t *testing.T) {
	e := newTestEncounter(t, Options{})
	assert.Equal(t, 1.0, e.Confidence(), "no active node")

	require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1", PromptedMs: 1000}))
	for _, step := range []struct {
		ms       int64
		expected float64
	}{
		{1500, 0.75},
		{2000, 0.5},
		{2500, 0.25},
		{3000, 0},
	} {
		e.Tick(step.ms)
		assert.InDelta(t, step.expected, e.Confidence(), 1e-9)
	}
}

func TestEncounter_PlayCard(t *testing.T) {
	t.Run("logs the scored play", func(t *testing.T) {
		e := newTestEncounter(t, Options{})
		require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1", FeatureReactions: "agree_bad listen_good", PromptedMs: 1}))
		e.Tick(5000)

		id := handCard(t, e, "agree-listen")
		require.True(t, e.PlayCard(id))

		entry, ok := lastOf[PlayCardEntry](e.Log())
		require.True(t, ok)
		assert.Equal(t, PlayCardEntry{
			AtMs:             5000,
			CardFeatures:     "agree listen",
			FeatureReactions: "agree_bad listen_good",
			Score:            10,
			MoodBefore:       1,
			MoodAfter:        11,
		}, entry)
		assert.Equal(t, 11.0, e.Mood())

		zone, _ := e.Dealer().ZoneOf(id)
		assert.Equal(t, dealer.ZonePlay, zone)
	})

	t.Run("confidence boosts an immediate play", func(t *testing.T) {
		e := newTestEncounter(t, Options{})
		require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1", FeatureReactions: "agree_bad listen_good", PromptedMs: 1}))

		require.True(t, e.PlayCard(handCard(t, e, "agree-listen")))
		entry, _ := lastOf[PlayCardEntry](e.Log())
		assert.InDelta(t, 12.5, entry.Score, 1e-9)
	})

	t.Run("ignores plays without an active node", func(t *testing.T) {
		e := newTestEncounter(t, Options{})
		assert.False(t, e.PlayCard(handCard(t, e, "deny")))
		assert.Empty(t, e.Log())
	})

	t.Run("ignores cards not in hand", func(t *testing.T) {
		e := newTestEncounter(t, Options{})
		require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1", PromptedMs: 1}))

		id := handCard(t, e, "deny")
		require.True(t, e.PlayCard(id))
		assert.False(t, e.PlayCard(id), "already in play")
		assert.False(t, e.PlayCard(uuid.New()))
		assert.Len(t, e.Log(), 2)
	})
}

func TestEncounter_Resolve(t *testing.T) {
	e := newTestEncounter(t, Options{})
	require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1", PromptedMs: 1}))
	require.True(t, e.PlayCard(handCard(t, e, "deny")))
	require.True(t, e.PlayCard(handCard(t, e, "joke")))

	e.Resolve()
	assert.Equal(t, StateWaiting, e.State())
	assert.Equal(t, 0, e.Dealer().Len(dealer.ZonePlay))
	assert.Equal(t, 2, e.Dealer().Len(dealer.ZoneDiscard))
	assert.Equal(t, len(testCardTable), e.Dealer().Total())

	// The last prompted node is still visible after resolution.
	assert.Equal(t, "neutral_1", e.PeekNode().Title)
}

func TestEncounter_Qualities(t *testing.T) {
	tests := []struct {
		name      string
		reactions string
		card      string
		mood      dialogue.Quality
		play      dialogue.Quality
	}{
		{name: "no score", reactions: "", card: "shrug", mood: dialogue.QualityNeutral, play: dialogue.QualityNeutral},
		{name: "strong positive", reactions: "flatter_good", card: "flatter", mood: dialogue.QualityGood, play: dialogue.QualityGood},
		{name: "strong negative", reactions: "deny_bad", card: "deny", mood: dialogue.QualityBad, play: dialogue.QualityBad},
		{name: "mild positive", reactions: "agree_bad listen_good", card: "agree-listen", mood: dialogue.QualityNeutral, play: dialogue.QualityNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEncounter(t, Options{DeckSpec: []string{tt.card}})
			require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1", FeatureReactions: tt.reactions, PromptedMs: 1}))
			e.Tick(10000)
			require.True(t, e.PlayCard(handCard(t, e, tt.card)))

			assert.Equal(t, tt.mood, e.MoodQuality())
			assert.Equal(t, tt.play, e.LastPlayQuality())
		})
	}
}

func TestEncounter_PeekNode(t *testing.T) {
	e := newTestEncounter(t, Options{})
	assert.Equal(t, DefaultNode(), e.PeekNode())
	assert.Equal(t, "neutral_1", e.PeekNode().Title)

	require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "bad_3", PromptedMs: 7}))
	e.Tick(9)
	node := e.PeekNode()
	assert.Equal(t, dialogue.QualityBad, node.Quality)
	assert.Equal(t, int64(9), node.TickedMs)
}

func TestEncounter_Transition(t *testing.T) {
	t.Run("returns to the latest node in the mood line", func(t *testing.T) {
		e := newTestEncounter(t, Options{})
		for i, title := range []string{"neutral_3", "good_2", "neutral_4", "bad_1"} {
			e.log = append(e.log, PromptEntry{Node: dialogue.ParseDialogueNode(dialogue.PromptNode{Title: title, PromptedMs: int64(i)})})
		}
		require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "transition", PromptedMs: 100}))
		e.Tick(150)

		require.True(t, e.Transition())
		node, ok := e.CurrentNode()
		require.True(t, ok)
		assert.Equal(t, "neutral_4", node.Title)
		assert.Equal(t, int64(150), node.PromptedMs)
		assert.Equal(t, int64(150), node.TickedMs)
		assert.Len(t, e.Log(), 5, "the replacement is not logged")
	})

	t.Run("requires a transition node", func(t *testing.T) {
		e := newTestEncounter(t, Options{})
		assert.False(t, e.Transition())

		require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1"}))
		assert.False(t, e.Transition())
	})

	t.Run("fails without a node in the mood line", func(t *testing.T) {
		e := newTestEncounter(t, Options{})
		require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "good_transition"}))
		assert.False(t, e.Transition())
		node, _ := e.CurrentNode()
		assert.Equal(t, dialogue.StepTransition, node.Step)
	})
}

func TestEncounter_Complete(t *testing.T) {
	e := newTestEncounter(t, Options{})
	require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1", FeatureReactions: "deny_bad", PromptedMs: 1}))
	e.Tick(3001)
	require.True(t, e.PlayCard(handCard(t, e, "deny")))

	e.Complete(4000)
	assert.Equal(t, StateComplete, e.State())
	require.NotNil(t, e.CompletedAt())
	assert.Equal(t, int64(4000), *e.CompletedAt())

	entry, ok := lastOf[CompleteEntry](e.Log())
	require.True(t, ok)
	assert.Equal(t, CompleteEntry{AtMs: 4000, Mood: -49}, entry)

	// Everything after completion is ignored.
	e.Complete(5000)
	assert.NoError(t, e.Prompt(dialogue.PromptNode{Title: "good_1", PromptedMs: 5000}))
	e.Resolve()
	assert.Equal(t, int64(4000), *e.CompletedAt())
	assert.Len(t, e.Log(), 3)
	assert.Equal(t, 1, e.Dealer().Len(dealer.ZonePlay))
}

func TestEncounter_ToUserData(t *testing.T) {
	e := newTestEncounter(t, Options{})
	require.NoError(t, e.Prompt(dialogue.PromptNode{Title: "neutral_1", PromptedMs: 1}))
	played := handCard(t, e, "joke")
	require.True(t, e.PlayCard(played))
	e.Resolve()
	e.Draw(1)

	session := e.ToUserData()
	assert.Equal(t, "Amy1", session.SceneName)
	assert.Equal(t, int64(100), session.StartedAt)
	assert.Nil(t, session.CompletedAt)
	require.NotNil(t, session.Dealer)

	restored := newTestEncounter(t, Options{Session: session})
	assert.Equal(t, StateWaiting, restored.State())
	for _, z := range dealer.StandardZones {
		before, err := e.Dealer().Collection(z)
		require.NoError(t, err)
		after, err := restored.Dealer().Collection(z)
		require.NoError(t, err)
		assert.Equal(t, before, after, "zone %s", z)
	}
	zone, ok := restored.Dealer().ZoneOf(played)
	require.True(t, ok)
	assert.Equal(t, dealer.ZoneDiscard, zone)

	e.Complete(900)
	completed := newTestEncounter(t, Options{Session: e.ToUserData()})
	assert.Equal(t, StateComplete, completed.State())
	assert.Equal(t, int64(900), *completed.CompletedAt())
}
