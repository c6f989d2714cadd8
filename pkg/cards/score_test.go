package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testScoreTable = ScoreTable{
	{Feature: "agree", Reaction: "good", Score: 30},
	{Feature: "agree", Reaction: "bad", Score: -10},
	{Feature: "agree", Reaction: "", Score: 0},
	{Feature: "disagree", Reaction: "bad", Score: -40},
	{Feature: "disagree", Reaction: "", Score: -10},
	{Feature: "listen", Reaction: "good", Score: 20},
	{Feature: "listen", Reaction: "", Score: 2},
	{Feature: "butt", Reaction: "good", Score: 1000.1},
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name             string
		cardFeatures     string
		featureReactions string
		table            ScoreTable
		expected         float64
	}{
		{
			name:             "agree is bad, listen is good",
			cardFeatures:     "agree listen",
			featureReactions: "agree_bad listen_good",
			table:            testScoreTable,
			expected:         -10 + 20,
		},
		{
			name:             "agree is good, butt is good, listen is neutral",
			cardFeatures:     "agree butt listen",
			featureReactions: "agree_good butt_good",
			table:            testScoreTable,
			expected:         30 + 2 + 1000.1,
		},
		{
			name:             "messy string lists",
			cardFeatures:     "agree    butt,listen",
			featureReactions: "agree_good,,   butt_good,,  ,  ",
			table:            testScoreTable,
			expected:         30 + 2 + 1000.1,
		},
		{
			name:             "node reactions for features the card lacks are ignored",
			cardFeatures:     "listen",
			featureReactions: "agree_good disagree_bad",
			table:            testScoreTable,
			expected:         2,
		},
		{
			name:             "no features",
			cardFeatures:     "",
			featureReactions: "agree_good",
			table:            testScoreTable,
			expected:         0,
		},
		{
			name:             "duplicate rows all contribute",
			cardFeatures:     "agree",
			featureReactions: "agree_good",
			table: ScoreTable{
				{Feature: "agree", Reaction: "good", Score: 5},
				{Feature: "agree", Reaction: "good", Score: 7},
			},
			expected: 12,
		},
		{
			name:             "reaction is split on the first underscore",
			cardFeatures:     "agree",
			featureReactions: "agree_very_good",
			table: ScoreTable{
				{Feature: "agree", Reaction: "very_good", Score: 3},
				{Feature: "agree", Reaction: "very", Score: 100},
			},
			expected: 3,
		},
		{
			name:             "bare token resets to the default reaction",
			cardFeatures:     "listen",
			featureReactions: "listen",
			table:            testScoreTable,
			expected:         2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateScore(tt.cardFeatures, tt.featureReactions, tt.table)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParseFeatureReaction(t *testing.T) {
	tests := []struct {
		token    string
		feature  string
		reaction string
	}{
		{"agree_bad", "agree", "bad"},
		{"agree", "agree", ""},
		{"agree_", "agree", ""},
		{"a_b_c", "a", "b_c"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			feature, reaction := ParseFeatureReaction(tt.token)
			assert.Equal(t, tt.feature, feature)
			assert.Equal(t, tt.reaction, reaction)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList(" a,b\tc ,, "))
	assert.Empty(t, SplitList(" , ,"))
}

func TestCardTable_ByID(t *testing.T) {
	table := CardTable{
		{ID: "card-1", Text: "I condemn", Features: "disagree butt"},
		{ID: "card-2", Text: "A, B, C", Features: "agree listen"},
	}

	row, ok := table.ByID("card-2")
	assert.True(t, ok)
	assert.Equal(t, "A, B, C", row.Text)

	_, ok = table.ByID("card-9")
	assert.False(t, ok)

	assert.Equal(t, []string{"card-1", "card-2"}, table.IDs())
}
