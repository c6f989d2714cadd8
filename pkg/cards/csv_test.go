package cards

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreTableCSV = `
Feature,Reaction,Feature_Reaction,Score
agree,good,agree_good,30
agree,bad,agree_bad,-10
agree,,agree,0
,,,
disagree,bad,disagree_bad,-40
disagree,,disagree,-10
,,,
listen,good,listen_good,20
listen,,listen,2
,,,
butt,good,butt_good,1000.1
`

const cardTableCSV = `
Id,Type,Text,Extra Features,Features
card-1,type,I condemn,,disagree butt
card-2,type,"A, B, C",,agree listen
card-3,type,What's that?,,listen
`

func TestParseScoresCSV(t *testing.T) {
	result, err := ParseScoresCSV(strings.NewReader(scoreTableCSV))
	require.NoError(t, err)
	assert.Equal(t, testScoreTable, result)
}

func TestParseScoresCSV_Errors(t *testing.T) {
	t.Run("missing score column", func(t *testing.T) {
		_, err := ParseScoresCSV(strings.NewReader("Feature,Reaction\nagree,good\n"))
		assert.True(t, errors.Is(err, ErrMissingColumn))
	})

	t.Run("non-numeric score", func(t *testing.T) {
		_, err := ParseScoresCSV(strings.NewReader("Feature,Reaction,Score\nagree,good,lots\n"))
		assert.True(t, errors.Is(err, ErrInvalidRow))
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseScoresCSV(strings.NewReader(""))
		assert.True(t, errors.Is(err, ErrMissingColumn))
	})
}

func TestParseCardsCSV(t *testing.T) {
	result, err := ParseCardsCSV(strings.NewReader(cardTableCSV))
	require.NoError(t, err)
	assert.Equal(t, CardTable{
		{ID: "card-1", Text: "I condemn", Features: "disagree butt"},
		{ID: "card-2", Text: "A, B, C", Features: "agree listen"},
		{ID: "card-3", Text: "What's that?", Features: "listen"},
	}, result)
}

func TestParseCardsCSV_Errors(t *testing.T) {
	_, err := ParseCardsCSV(strings.NewReader("Id,Text,Features\ncard-1,,agree\n"))
	assert.True(t, errors.Is(err, ErrInvalidRow))

	_, err = ParseCardsCSV(strings.NewReader("Id,Features\ncard-1,agree\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))

	result, err := ParseCardsCSV(strings.NewReader("Id,Text,Features\ncard-1,Hello,\n"))
	require.NoError(t, err)
	assert.Equal(t, "", result[0].Features)
}

func TestParseDeckCSV(t *testing.T) {
	result, err := ParseDeckCSV(strings.NewReader("Id,Note\ncard-2,\ncard-2,dupe\n,\ncard-1,\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"card-2", "card-2", "card-1"}, result)
}
