package dialogue

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ScriptNode is one authored dialogue node.
type ScriptNode struct {
	Title            string `yaml:"title"`
	Body             string `yaml:"body"`
	FeatureReactions string `yaml:"featureReactions"`
}

// Prompt builds the prompt payload for this node at time ms.
func (n ScriptNode) Prompt(ms int64) PromptNode {
	return PromptNode{Title: n.Title, FeatureReactions: n.FeatureReactions, PromptedMs: ms}
}

// Script is the authored dialogue of one encounter.
type Script struct {
	Scene string       `yaml:"scene"`
	Start string       `yaml:"start"`
	Deck  []string     `yaml:"deck"`
	Nodes []ScriptNode `yaml:"nodes"`
}

// ReadScript decodes a YAML script.
func ReadScript(r io.Reader) (*Script, error) {
	var s Script
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode script: %w", err)
	}
	if s.Start == "" && len(s.Nodes) > 0 {
		s.Start = s.Nodes[0].Title
	}
	return &s, nil
}

// LoadScript reads a YAML script from disk.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script %s: %w", path, err)
	}
	defer f.Close()
	return ReadScript(f)
}

// Node returns the node with the given title.
func (s *Script) Node(title string) (ScriptNode, bool) {
	for _, n := range s.Nodes {
		if n.Title == title {
			return n, true
		}
	}
	return ScriptNode{}, false
}

// Prompts returns every node as a prompt payload at time 0.
func (s *Script) Prompts() []PromptNode {
	prompts := make([]PromptNode, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		prompts = append(prompts, n.Prompt(0))
	}
	return prompts
}

// Next picks the node to show after current. The following step in the
// player's mood line wins, then the following step in the current line, then
// the end node of the mood line. ok is false when the script is finished.
func (s *Script) Next(current DialogueNode, mood Quality) (ScriptNode, bool) {
	if current.Step == StepEnd {
		return ScriptNode{}, false
	}
	for _, q := range []Quality{mood, current.Quality} {
		if title, ok := NextTitle(current, q); ok {
			if n, found := s.Node(title); found {
				return n, true
			}
		}
	}
	return s.Node(Title(mood, StepEnd))
}
