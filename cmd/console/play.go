package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/internal/logger"
	"github.com/jwebster45206/babble-engine/pkg/dealer"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/encounter"
	"github.com/jwebster45206/babble-engine/pkg/game"
)

var (
	ErrNoScript     = errors.New("scene has no script")
	ErrNoEncounter  = errors.New("no encounter in progress")
	ErrNoSuchCard   = errors.New("no card in that slot")
	ErrPlayRejected = errors.New("card could not be played")
	ErrMissingTitle = errors.New("script node not found")
)

// LineKind tells the UI how to render a transcript line.
type LineKind int

const (
	LineNarration LineKind = iota
	LinePlay
	LineSystem
)

// Line is one entry of the encounter transcript.
type Line struct {
	Kind LineKind
	Text string
}

// Player drives a game session from the console: it picks script nodes,
// feeds the clock to the encounter and persists progress.
type Player struct {
	session  *game.Session
	data     *game.Data
	store    game.Store
	playerID uuid.UUID
	clock    func() int64
	logger   *slog.Logger

	enc        *encounter.Encounter
	script     *dialogue.Script
	node       dialogue.ScriptNode
	transcript []Line
	lastMood   float64
}

// NewPlayer wires a session to its data and store.
func NewPlayer(session *game.Session, data *game.Data, store game.Store, playerID uuid.UUID, clock func() int64, log *slog.Logger) *Player {
	return &Player{
		session:  session,
		data:     data,
		store:    store,
		playerID: playerID,
		clock:    clock,
		logger:   logger.WithPlayer(log, playerID.String()),
	}
}

// PlayerID returns the id progress is saved under.
func (p *Player) PlayerID() uuid.UUID {
	return p.playerID
}

// Scenes lists the scenes the player can start, next scene first.
func (p *Player) Scenes() []string {
	scenes := p.session.AvailableEncounters()
	if next := p.session.NextSceneName(); next != "" && !slices.Contains(scenes, next) {
		scenes = append([]string{next}, scenes...)
	}
	return scenes
}

// Completed lists the scenes finished in the current game.
func (p *Player) Completed() []string {
	return p.session.Manager().CompletedSceneNames()
}

// Resume loads the latest saved game and picks up its unfinished
// encounter. It reports false when there is nothing to resume.
func (p *Player) Resume() (bool, error) {
	if !p.session.ResumeGame() {
		return false, nil
	}
	if _, ok := p.session.Manager().PeekEncounter(); !ok {
		return false, nil
	}
	enc, err := p.session.Encounter()
	if err != nil {
		return false, err
	}
	if err := p.begin(enc); err != nil {
		return false, err
	}
	return true, nil
}

// Start begins a new attempt at scene.
func (p *Player) Start(scene string) error {
	if _, ok := p.data.Scripts[scene]; !ok {
		return fmt.Errorf("%w: %q", ErrNoScript, scene)
	}
	enc, err := p.session.StartEncounter(scene)
	if err != nil {
		return err
	}
	return p.begin(enc)
}

func (p *Player) begin(enc *encounter.Encounter) error {
	script, ok := p.data.Scripts[enc.SceneName()]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoScript, enc.SceneName())
	}
	start, ok := script.Node(script.Start)
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrMissingTitle, script.Start, enc.SceneName())
	}

	p.enc = enc
	p.script = script
	p.transcript = nil
	p.logger.Info("Encounter started", "scene", enc.SceneName(), "hand", len(enc.Hand()))
	return p.prompt(start)
}

func (p *Player) prompt(n dialogue.ScriptNode) error {
	if err := p.enc.Prompt(n.Prompt(p.clock())); err != nil {
		return fmt.Errorf("node %q: %w", n.Title, err)
	}
	p.node = n
	p.narrate(n)

	current, _ := p.enc.CurrentNode()
	if current.Step != dialogue.StepTransition {
		return nil
	}
	if !p.enc.Transition() {
		return nil
	}
	current, _ = p.enc.CurrentNode()
	resumed, ok := p.script.Node(current.Title)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingTitle, current.Title)
	}
	p.node = resumed
	p.narrate(resumed)
	return nil
}

func (p *Player) narrate(n dialogue.ScriptNode) {
	if n.Body != "" {
		p.transcript = append(p.transcript, Line{Kind: LineNarration, Text: n.Body})
	}
}

// Active reports whether an encounter is being played.
func (p *Player) Active() bool {
	return p.enc != nil
}

// Encounter returns the encounter being played.
func (p *Player) Encounter() *encounter.Encounter {
	return p.enc
}

// Node returns the script node on screen.
func (p *Player) Node() dialogue.ScriptNode {
	return p.node
}

// Transcript returns the lines shown so far in this encounter.
func (p *Player) Transcript() []Line {
	return slices.Clone(p.transcript)
}

// LastMood is the final mood of the most recently completed encounter.
func (p *Player) LastMood() float64 {
	return p.lastMood
}

// Tick feeds the current time to the encounter.
func (p *Player) Tick() {
	if p.enc == nil {
		return
	}
	if _, ok := p.enc.CurrentNode(); ok {
		p.enc.Tick(p.clock())
	}
}

// Confidence of the active node.
func (p *Player) Confidence() float64 {
	if p.enc == nil {
		return 0
	}
	return p.enc.Confidence()
}

// Hand returns the cards in hand.
func (p *Player) Hand() []dealer.CardInstance {
	if p.enc == nil {
		return nil
	}
	return p.enc.Hand()
}

// Play plays the card in hand slot i (0 based), resolves the node and moves
// the script on. It returns the logged play and whether the encounter ended.
func (p *Player) Play(ctx context.Context, i int) (encounter.PlayCardEntry, bool, error) {
	if p.enc == nil {
		return encounter.PlayCardEntry{}, false, ErrNoEncounter
	}
	hand := p.enc.Hand()
	if i < 0 || i >= len(hand) {
		return encounter.PlayCardEntry{}, false, fmt.Errorf("%w: %d", ErrNoSuchCard, i+1)
	}

	p.enc.Tick(p.clock())
	current, _ := p.enc.CurrentNode()
	if !p.enc.PlayCard(hand[i].UUID) {
		return encounter.PlayCardEntry{}, false, ErrPlayRejected
	}
	log := p.enc.Log()
	play, _ := log[len(log)-1].(encounter.PlayCardEntry)
	p.transcript = append(p.transcript, Line{Kind: LinePlay, Text: hand[i].Card.Text})
	p.logger.Debug("Card played", "card", hand[i].Card.ID, "score", play.Score, "mood", play.MoodAfter)

	p.enc.Resolve()
	p.enc.Draw(1)

	next, ok := p.script.Next(current, p.enc.MoodQuality())
	if !ok || len(p.enc.Hand()) == 0 {
		return play, true, p.finish(ctx)
	}
	if err := p.prompt(next); err != nil {
		return play, false, err
	}
	return play, false, nil
}

func (p *Player) finish(ctx context.Context) error {
	p.lastMood = p.enc.Mood()
	completed, err := p.session.CompleteEncounter(p.enc)
	if err != nil {
		return err
	}
	p.transcript = append(p.transcript, Line{
		Kind: LineSystem,
		Text: fmt.Sprintf("%s complete. Final mood %.1f.", completed.SceneName, p.lastMood),
	})
	p.enc = nil
	return p.Save(ctx)
}

// Abandon leaves the encounter unfinished. It stays in the saved game and
// is resumed next time.
func (p *Player) Abandon() {
	p.enc = nil
	p.script = nil
}

// Save writes progress to the store.
func (p *Player) Save(ctx context.Context) error {
	if err := p.session.Save(ctx, p.store, p.playerID); err != nil {
		return err
	}
	p.logger.Info("Progress saved")
	return nil
}

// Export returns the saved game as JSON.
func (p *Player) Export() ([]byte, error) {
	return p.session.Export()
}
