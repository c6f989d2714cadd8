package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/babble-engine/internal/storage"
	"github.com/jwebster45206/babble-engine/pkg/campaign"
	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
)

func main() {
	dataDir := "./data"
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [data-dir]\n", os.Args[0])
		os.Exit(1)
	}
	if len(os.Args) == 2 {
		dataDir = os.Args[1]
	}

	validator := &DataValidator{dataDir: dataDir}
	if err := validator.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Println("Game data is valid!")
}

// DataValidator checks a data directory: card and score tables, the
// campaign graph and every encounter script.
type DataValidator struct {
	dataDir  string
	errors   []string
	warnings []string

	cardTable  cards.CardTable
	scoreTable cards.ScoreTable
	mapping    campaign.Mapping
}

func (v *DataValidator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *DataValidator) warnf(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *DataValidator) Validate() error {
	fmt.Printf("Validating %s...\n", v.dataDir)
	v.errors = nil
	v.warnings = nil

	v.validateCards()
	v.validateScores()
	v.validateCampaign()
	v.validateScripts()

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", v.dataDir, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *DataValidator) open(name string) (*os.File, bool) {
	f, err := os.Open(filepath.Join(v.dataDir, name))
	if err != nil {
		v.errorf("%s: %v", name, err)
		return nil, false
	}
	return f, true
}

func (v *DataValidator) validateCards() {
	f, ok := v.open(storage.CardTableFile)
	if !ok {
		return
	}
	defer f.Close()

	table, err := cards.ParseCardsCSV(f)
	if err != nil {
		v.errorf("%s: %v", storage.CardTableFile, err)
		return
	}
	seen := map[string]bool{}
	for _, row := range table {
		if seen[row.ID] {
			v.errorf("%s: duplicate card id %q", storage.CardTableFile, row.ID)
		}
		seen[row.ID] = true
		if row.Features == "" {
			v.warnf("%s: card %q has no features", storage.CardTableFile, row.ID)
		}
	}
	v.cardTable = table
}

func (v *DataValidator) validateScores() {
	f, ok := v.open(storage.ScoreTableFile)
	if !ok {
		return
	}
	defer f.Close()

	table, err := cards.ParseScoresCSV(f)
	if err != nil {
		v.errorf("%s: %v", storage.ScoreTableFile, err)
		return
	}
	v.scoreTable = table

	features := v.cardFeatures()
	for _, row := range table {
		if len(features) > 0 && !features[row.Feature] {
			v.warnf("%s: feature %q is not on any card", storage.ScoreTableFile, row.Feature)
		}
	}
}

func (v *DataValidator) cardFeatures() map[string]bool {
	features := map[string]bool{}
	for _, row := range v.cardTable {
		for f := range row.FeatureSet() {
			features[f] = true
		}
	}
	return features
}

func (v *DataValidator) validateCampaign() {
	mapping, err := campaign.LoadCSV(filepath.Join(v.dataDir, storage.CampaignFile))
	if err != nil {
		v.errorf("%s: %v", storage.CampaignFile, err)
		return
	}
	if _, err := campaign.MakeNodeMapping(mapping); err != nil {
		v.errorf("%s: %v", storage.CampaignFile, err)
		return
	}
	v.mapping = mapping
}

func (v *DataValidator) validateScripts() {
	dir := filepath.Join(v.dataDir, storage.ScriptsDir)
	scenes := map[string]string{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		s, err := dialogue.LoadScript(path)
		if err != nil {
			v.errorf("%s: %v", path, err)
			return nil
		}
		if s.Scene == "" {
			v.errorf("%s: scene is required", path)
			return nil
		}
		if other, dup := scenes[s.Scene]; dup {
			v.errorf("%s: scene %q is also defined in %s", path, s.Scene, other)
		}
		scenes[s.Scene] = path
		v.validateScript(path, s)
		return nil
	})
	if err != nil {
		v.errorf("%s: %v", storage.ScriptsDir, err)
		return
	}

	for _, scene := range v.mapping.SceneNames() {
		if _, ok := scenes[scene]; !ok {
			v.warnf("campaign scene %q has no script", scene)
		}
	}
}

func (v *DataValidator) validateScript(path string, s *dialogue.Script) {
	if v.mapping != nil {
		if _, ok := v.mapping[s.Scene]; !ok {
			v.errorf("%s: scene %q is not in the campaign", path, s.Scene)
		}
	}

	for _, id := range s.Deck {
		if _, ok := v.cardTable.ByID(id); !ok && v.cardTable != nil {
			v.errorf("%s: deck references unknown card %q", path, id)
		}
	}

	if len(s.Nodes) == 0 {
		v.errorf("%s: script has no nodes", path)
		return
	}
	if _, ok := s.Node(s.Start); !ok {
		v.errorf("%s: start node %q does not exist", path, s.Start)
	}

	titles := []string{}
	scored := map[string]bool{}
	for _, row := range v.scoreTable {
		scored[row.Feature] = true
	}
	for _, n := range s.Nodes {
		v.validateNode(path, n, scored)
		if slices.Contains(titles, n.Title) {
			v.errorf("%s: duplicate node title %q", path, n.Title)
		}
		titles = append(titles, n.Title)
	}
}

func (v *DataValidator) validateNode(path string, n dialogue.ScriptNode, scored map[string]bool) {
	node := dialogue.ParseDialogueNode(n.Prompt(0))
	if err := node.Validate(); err != nil {
		v.errorf("%s: node %q: %v", path, n.Title, err)
		return
	}
	canonical := dialogue.Title(node.Quality, node.Step)
	if n.Title != canonical && n.Title != string(dialogue.StepTransition) {
		v.errorf("%s: node title %q should be %q", path, n.Title, canonical)
	}

	for _, token := range cards.SplitList(n.FeatureReactions) {
		feature, _ := cards.ParseFeatureReaction(token)
		if len(scored) > 0 && !scored[feature] {
			v.warnf("%s: node %q reacts to unscored feature %q", path, n.Title, feature)
		}
	}
}
