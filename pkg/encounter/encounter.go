package encounter

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dealer"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/userdata"
)

const (
	// ConfidenceDurationMs is how long after a prompt confidence takes to
	// decay from 1 to 0.
	ConfidenceDurationMs = 2000
	// ConfidenceFactor scales a play's score by up to this fraction when the
	// player responds immediately.
	ConfidenceFactor = 0.25

	DefaultHandSize = 3
	InitialMood     = 1.0

	MoodThreshold = 33
	PlayThreshold = 20
)

// State is the phase of an encounter.
type State string

const (
	StateWaiting   State = "waiting"
	StatePrompting State = "prompting"
	StateComplete  State = "complete"
)

// Options configure a new Encounter.
type Options struct {
	Session    userdata.EncounterSession
	CardTable  cards.CardTable
	ScoreTable cards.ScoreTable
	// DeckSpec orders the fresh deck by card id; duplicates create extra copies.
	DeckSpec []string
	// HandSize is the initial draw for a fresh deck; 0 means DefaultHandSize.
	HandSize int
	// Shuffle shuffles a fresh deck before the initial draw.
	Shuffle  bool
	Shuffler dealer.Shuffler
	Logger   *slog.Logger
}

// Encounter is one play-through of a scene: prompts, card plays and
// resolution driven by the presentation layer.
type Encounter struct {
	session    userdata.EncounterSession
	scoreTable cards.ScoreTable
	dealer     *dealer.Dealer
	log        []LogEntry
	current    *dialogue.DialogueNode
	logger     *slog.Logger
}

// New builds an encounter. A session carrying a dealer snapshot restores card
// custody from it; otherwise a fresh deck is built and a hand is drawn.
func New(opts Options) (*Encounter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Encounter{
		session:    opts.Session,
		scoreTable: opts.ScoreTable,
		log:        []LogEntry{},
		logger:     logger.With("scene", opts.Session.SceneName),
	}

	if opts.Session.Dealer != nil {
		d, err := dealer.FromUserData(*opts.Session.Dealer, opts.CardTable, dealer.WithShuffler(opts.Shuffler))
		if err != nil {
			return nil, fmt.Errorf("failed to restore dealer: %w", err)
		}
		for _, z := range dealer.StandardZones {
			if !d.HasZone(z) {
				if err := d.AddCollection(z, nil); err != nil {
					return nil, err
				}
			}
		}
		e.dealer = d
		return e, nil
	}

	d := dealer.New(dealer.WithShuffler(opts.Shuffler))
	deck := dealer.NewCollection(buildDeck(opts.CardTable, opts.DeckSpec, e.logger)...)
	if err := d.AddCollection(dealer.ZoneDeck, deck); err != nil {
		return nil, err
	}
	for _, z := range []dealer.Zone{dealer.ZoneHand, dealer.ZonePlay, dealer.ZoneDiscard} {
		if err := d.AddCollection(z, nil); err != nil {
			return nil, err
		}
	}
	if opts.Shuffle {
		if err := d.Shuffle(dealer.ZoneDeck); err != nil {
			return nil, err
		}
	}
	e.dealer = d

	handSize := opts.HandSize
	if handSize == 0 {
		handSize = DefaultHandSize
	}
	e.Draw(handSize)
	return e, nil
}

// buildDeck orders the card table by spec. Cards the spec does not mention
// follow in table order.
func buildDeck(table cards.CardTable, spec []string, logger *slog.Logger) []cards.CardRow {
	if len(spec) == 0 {
		return slices.Clone(table)
	}

	deck := make([]cards.CardRow, 0, len(spec)+len(table))
	used := make(map[string]bool, len(spec))
	for _, id := range spec {
		row, ok := table.ByID(id)
		if !ok {
			logger.Warn("Deck spec references unknown card", "card_id", id)
			continue
		}
		deck = append(deck, row)
		used[id] = true
	}
	for _, row := range table {
		if !used[row.ID] {
			deck = append(deck, row)
		}
	}
	return deck
}

// State returns the current phase.
func (e *Encounter) State() State {
	switch {
	case e.completed():
		return StateComplete
	case e.current != nil:
		return StatePrompting
	default:
		return StateWaiting
	}
}

func (e *Encounter) completed() bool {
	_, ok := lastOf[CompleteEntry](e.log)
	return ok || e.session.CompletedAt != nil
}

// Draw moves up to n cards from the top of the deck to the hand and returns
// how many moved.
func (e *Encounter) Draw(n int) int {
	if n <= 0 {
		return 0
	}
	top, err := e.dealer.Peek(dealer.ZoneDeck, n)
	if err != nil {
		e.logger.Error("Failed to peek deck", "error", err)
		return 0
	}

	moved := 0
	for _, c := range top {
		if _, err := e.dealer.Move(c.UUID, dealer.ZoneDeck, dealer.ZoneHand); err != nil {
			e.logger.Error("Failed to draw card", "uuid", c.UUID, "error", err)
			break
		}
		moved++
	}
	return moved
}

// Prompt activates a dialogue node. It is ignored while another node is
// active or after completion; a malformed node returns ErrInvalidNode.
func (e *Encounter) Prompt(p dialogue.PromptNode) error {
	if state := e.State(); state != StateWaiting {
		e.logger.Warn("Prompt ignored", "state", state, "title", p.Title)
		return nil
	}
	if err := p.Validate(); err != nil {
		e.logger.Warn("Prompt rejected", "title", p.Title, "error", err)
		return err
	}

	node := dialogue.ParseDialogueNode(p)
	e.current = &node
	e.log = append(e.log, PromptEntry{Node: node})
	return nil
}

// Tick records the latest time seen while a node is active.
func (e *Encounter) Tick(ms int64) {
	if e.current == nil {
		e.logger.Warn("Tick without an active node", "state", e.State(), "ms", ms)
		return
	}
	e.current.TickedMs = ms
}

// PlayCard plays a card from the hand into the active node. It reports
// whether the play happened; plays without an active node or with a card
// not in hand are logged and ignored.
func (e *Encounter) PlayCard(id uuid.UUID) bool {
	if e.current == nil {
		e.logger.Warn("PlayCard without an active node", "state", e.State(), "uuid", id)
		return false
	}
	card, err := e.dealer.Find(id, dealer.ZoneHand)
	if err != nil {
		e.logger.Warn("PlayCard with a card not in hand", "uuid", id, "error", err)
		return false
	}

	score := e.calculateScore(card.Card.Features)
	if _, err := e.dealer.Move(id, dealer.ZoneHand, dealer.ZonePlay); err != nil {
		e.logger.Error("Failed to move played card", "uuid", id, "error", err)
		return false
	}

	moodBefore := e.Mood()
	e.log = append(e.log, PlayCardEntry{
		AtMs:             e.current.TickedMs,
		CardFeatures:     card.Card.Features,
		FeatureReactions: e.current.FeatureReactions,
		Score:            score,
		MoodBefore:       moodBefore,
		MoodAfter:        moodBefore + score,
	})
	return true
}

func (e *Encounter) calculateScore(cardFeatures string) float64 {
	base := cards.CalculateScore(cardFeatures, e.current.FeatureReactions, e.scoreTable)
	return base * (1 + ConfidenceFactor*e.Confidence())
}

// Resolve discards every card in play and clears the active node.
func (e *Encounter) Resolve() {
	if e.completed() {
		e.logger.Warn("Resolve after completion")
		return
	}
	inPlay, err := e.dealer.Peek(dealer.ZonePlay, dealer.All)
	if err != nil {
		e.logger.Error("Failed to peek play", "error", err)
	}
	for _, c := range inPlay {
		if _, err := e.dealer.Move(c.UUID, dealer.ZonePlay, dealer.ZoneDiscard); err != nil {
			e.logger.Error("Failed to discard card", "uuid", c.UUID, "error", err)
		}
	}
	e.current = nil
}

// Transition replaces an active transition node with the most recently
// prompted node in the player's current mood line. The replacement is not
// logged again.
func (e *Encounter) Transition() bool {
	if e.current == nil || e.current.Step != dialogue.StepTransition {
		e.logger.Warn("Transition without an active transition node", "state", e.State())
		return false
	}

	mood := e.MoodQuality()
	for i := len(e.log) - 1; i >= 0; i-- {
		entry, ok := e.log[i].(PromptEntry)
		if !ok || entry.Node.Quality != mood || entry.Node.Step == dialogue.StepTransition {
			continue
		}
		node := entry.Node
		node.PromptedMs = e.current.TickedMs
		node.TickedMs = e.current.TickedMs
		e.current = &node
		return true
	}

	e.logger.Warn("Transition found no node for mood", "mood", mood)
	return false
}

// Complete ends the encounter at ms.
func (e *Encounter) Complete(ms int64) {
	if e.completed() {
		e.logger.Warn("Encounter already complete", "ms", ms)
		return
	}
	e.log = append(e.log, CompleteEntry{AtMs: ms, Mood: e.Mood()})
	e.current = nil
}

// Mood is the running score of the encounter.
func (e *Encounter) Mood() float64 {
	if play, ok := lastOf[PlayCardEntry](e.log); ok {
		return play.MoodAfter
	}
	return InitialMood
}

// MoodQuality bands the mood at ±MoodThreshold.
func (e *Encounter) MoodQuality() dialogue.Quality {
	return dialogue.Band(e.Mood(), MoodThreshold)
}

// LastPlayQuality bands the score of the latest play at ±PlayThreshold.
func (e *Encounter) LastPlayQuality() dialogue.Quality {
	play, ok := lastOf[PlayCardEntry](e.log)
	if !ok {
		return dialogue.QualityNeutral
	}
	return dialogue.Band(play.Score, PlayThreshold)
}

// Confidence is 1 when no node is active, otherwise CalculateConfidence of
// the active node.
func (e *Encounter) Confidence() float64 {
	if e.current == nil {
		return 1
	}
	return CalculateConfidence(e.current.PromptedMs, e.current.TickedMs)
}

// CalculateConfidence decays linearly from 1 at promptedMs to 0 at
// ConfidenceDurationMs later.
func CalculateConfidence(promptedMs, tickedMs int64) float64 {
	elapsed := min(max(tickedMs-promptedMs, 0), ConfidenceDurationMs)
	confidence := float64(ConfidenceDurationMs-elapsed) / ConfidenceDurationMs
	return min(max(confidence, 0), 1)
}

// DefaultNode is what PeekNode shows before anything was prompted.
func DefaultNode() dialogue.DialogueNode {
	return dialogue.DialogueNode{
		Title:   dialogue.Title(dialogue.QualityNeutral, dialogue.StepNumber(1)),
		Quality: dialogue.QualityNeutral,
		Step:    dialogue.StepNumber(1),
	}
}

// PeekNode returns the active node, else the last prompted node, else
// DefaultNode.
func (e *Encounter) PeekNode() dialogue.DialogueNode {
	if e.current != nil {
		return *e.current
	}
	if prompt, ok := lastOf[PromptEntry](e.log); ok {
		return prompt.Node
	}
	return DefaultNode()
}

// CurrentNode returns the active node.
func (e *Encounter) CurrentNode() (dialogue.DialogueNode, bool) {
	if e.current == nil {
		return dialogue.DialogueNode{}, false
	}
	return *e.current, true
}

// Log returns a copy of the event log.
func (e *Encounter) Log() []LogEntry {
	return slices.Clone(e.log)
}

// Dealer returns the encounter's dealer.
func (e *Encounter) Dealer() *dealer.Dealer {
	return e.dealer
}

// Hand returns the cards in hand.
func (e *Encounter) Hand() []dealer.CardInstance {
	hand, _ := e.dealer.Peek(dealer.ZoneHand, dealer.All)
	return hand
}

// SceneName returns the scene being played.
func (e *Encounter) SceneName() string {
	return e.session.SceneName
}

// CompletedAt is the completion time from the log, falling back to the
// session this encounter was built from.
func (e *Encounter) CompletedAt() *int64 {
	if entry, ok := lastOf[CompleteEntry](e.log); ok {
		at := entry.AtMs
		return &at
	}
	return e.session.CompletedAt
}

// ToUserData projects the encounter into its persisted form. The log is not
// persisted.
func (e *Encounter) ToUserData() userdata.EncounterSession {
	snapshot := e.dealer.ToUserData()
	return userdata.EncounterSession{
		SceneName:   e.session.SceneName,
		StartedAt:   e.session.StartedAt,
		CompletedAt: e.CompletedAt(),
		Dealer:      &snapshot,
	}
}
