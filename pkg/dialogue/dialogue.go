package dialogue

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Quality is the mood line a dialogue node belongs to.
type Quality string

const (
	QualityGood    Quality = "good"
	QualityNeutral Quality = "neutral"
	QualityBad     Quality = "bad"
)

// Qualities lists every valid quality.
var Qualities = []Quality{QualityGood, QualityNeutral, QualityBad}

// Valid reports whether q is one of Qualities.
func (q Quality) Valid() bool {
	switch q {
	case QualityGood, QualityNeutral, QualityBad:
		return true
	}
	return false
}

// Band classifies value against a symmetric threshold: bad below -threshold,
// good above threshold, neutral in [-threshold, threshold].
func Band(value, threshold float64) Quality {
	switch {
	case value < -threshold:
		return QualityBad
	case value > threshold:
		return QualityGood
	default:
		return QualityNeutral
	}
}

// Step is a node's position within its quality line: a non-negative integer
// or one of the named steps.
type Step string

const (
	StepStart      Step = "start"
	StepEnd        Step = "end"
	StepTransition Step = "transition"
)

// StepNumber returns the step for an integer position.
func StepNumber(n int) Step {
	return Step(strconv.Itoa(n))
}

// Int returns the numeric position of a numbered step.
func (s Step) Int() (int, bool) {
	n, err := strconv.Atoi(string(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (s Step) named() bool {
	return s == StepStart || s == StepEnd || s == StepTransition
}

var ErrInvalidNode = errors.New("invalid dialogue node")

// PromptNode is the payload the presentation layer sends when a dialogue node
// is shown to the player.
type PromptNode struct {
	Title            string `json:"title" yaml:"title"`
	FeatureReactions string `json:"featureReactions" yaml:"featureReactions"`
	PromptedMs       int64  `json:"promptedMs" yaml:"-"`
}

// Validate checks the prompt payload shape.
func (p PromptNode) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNode)
	}
	if p.PromptedMs < 0 {
		return fmt.Errorf("%w: promptedMs must not be negative, got %d", ErrInvalidNode, p.PromptedMs)
	}
	return nil
}

// DialogueNode is a prompt enriched with its parsed title and the latest
// tick received while it was active.
type DialogueNode struct {
	Title            string  `json:"title"`
	Quality          Quality `json:"quality"`
	Step             Step    `json:"step"`
	FeatureReactions string  `json:"featureReactions"`
	PromptedMs       int64   `json:"promptedMs"`
	TickedMs         int64   `json:"tickedMs"`
}

// Validate checks the node shape.
func (n DialogueNode) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNode)
	}
	if !n.Quality.Valid() {
		return fmt.Errorf("%w: unknown quality %q", ErrInvalidNode, n.Quality)
	}
	if _, numbered := n.Step.Int(); !numbered && !n.Step.named() {
		return fmt.Errorf("%w: unknown step %q", ErrInvalidNode, n.Step)
	}
	if n.TickedMs < n.PromptedMs {
		return fmt.Errorf("%w: tickedMs %d is before promptedMs %d", ErrInvalidNode, n.TickedMs, n.PromptedMs)
	}
	return nil
}

// ParseDialogueNode activates a prompt. The tick starts at the prompt time.
func ParseDialogueNode(p PromptNode) DialogueNode {
	quality, step := ParseTitle(p.Title)
	return DialogueNode{
		Title:            p.Title,
		Quality:          quality,
		Step:             step,
		FeatureReactions: p.FeatureReactions,
		PromptedMs:       p.PromptedMs,
		TickedMs:         p.PromptedMs,
	}
}

// ParseTitle reads "<quality>_<step>" titles. A bare "transition" title is a
// transition step. An unknown quality is neutral and an unknown step is 0.
func ParseTitle(title string) (Quality, Step) {
	head, tail, _ := strings.Cut(title, "_")

	quality := Quality(head)
	if !quality.Valid() {
		slog.Debug("Dialogue title does not include a quality", "title", title)
		quality = QualityNeutral
	}

	if Step(head) == StepTransition && tail == "" {
		return quality, StepTransition
	}

	stepStr, _, _ := strings.Cut(tail, "_")
	step := Step(stepStr)
	if _, numbered := step.Int(); numbered {
		return quality, StepNumber(mustAtoi(stepStr))
	}
	if step.named() {
		return quality, step
	}

	slog.Debug("Dialogue title does not include a step", "title", title)
	return quality, StepNumber(0)
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Title builds the canonical title for a quality and step.
func Title(q Quality, s Step) string {
	return string(q) + "_" + string(s)
}

// NextTitle returns the title of the following numbered step in quality q.
// The start step is followed by step 1.
func NextTitle(n DialogueNode, q Quality) (string, bool) {
	if n.Step == StepStart {
		return Title(q, StepNumber(1)), true
	}
	step, ok := n.Step.Int()
	if !ok {
		return "", false
	}
	return Title(q, StepNumber(step+1)), true
}
