package analysis

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testCards = cards.CardTable{
		{ID: "card-1", Text: "I condemn", Features: "disagree butt"},
		{ID: "card-2", Text: "A, B, C", Features: "agree listen"},
		{ID: "card-3", Text: "What's that?", Features: "listen"},
	}
	testScores = cards.ScoreTable{
		{Feature: "agree", Reaction: "good", Score: 30},
		{Feature: "agree", Reaction: "bad", Score: -10},
		{Feature: "disagree", Reaction: "bad", Score: -40},
		{Feature: "listen", Reaction: "good", Score: 20},
		{Feature: "listen", Reaction: "", Score: 2},
	}
	testNodes = []dialogue.PromptNode{
		{Title: "good_1", FeatureReactions: "agree_good listen_good"},
		{Title: "bad_1", FeatureReactions: "disagree_bad agree_bad"},
	}
)

func TestScoreEncounter(t *testing.T) {
	result := ScoreEncounter("Amy1", testNodes, testCards, testScores)

	// good_1: card-1 0, card-2 50, card-3 20
	// bad_1:  card-1 -40, card-2 -10+2, card-3 2
	assert.Equal(t, "Amy1", result.Name)
	assert.Equal(t, 6, result.Count)
	assert.Equal(t, 24.0, result.Sum)
	assert.Equal(t, 4.0, result.Average)
	assert.Equal(t, -40.0, result.Min)
	assert.Equal(t, 50.0, result.Max)
	assert.Equal(t, "card-1", result.MinCard)
	assert.Equal(t, "bad_1", result.MinNode)
	assert.Equal(t, "card-2", result.MaxCard)
	assert.Equal(t, "good_1", result.MaxNode)

	good := result.ByQuality[dialogue.QualityGood]
	assert.Equal(t, Stats{Count: 3, Sum: 70, Min: 0, Max: 50, Average: 23}, good)
	bad := result.ByQuality[dialogue.QualityBad]
	assert.Equal(t, Stats{Count: 3, Sum: -46, Min: -40, Max: 2, Average: -15}, bad)
}

func TestScoreEncounter_Empty(t *testing.T) {
	result := ScoreEncounter("Empty", nil, testCards, testScores)
	assert.Equal(t, 0, result.Count)
	assert.Equal(t, 0.0, result.Average)
	assert.Empty(t, result.MinCard)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	results := []Result{ScoreEncounter("Amy1", testNodes, testCards, testScores)}
	require.NoError(t, WriteCSV(&buf, results))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"Name", "Min", "Max", "Count", "Sum", "Average", "Min Card", "Max Card", "Min Node", "Max Node",
		"Good Average", "Neutral Average", "Bad Average",
	}, records[0])
	assert.Equal(t, []string{
		"Amy1", "-40", "50", "6", "24", "4", "card-1", "card-2", "bad_1", "good_1",
		"23", "", "-15",
	}, records[1])
}
