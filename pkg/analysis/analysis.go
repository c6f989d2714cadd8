// Package analysis scores every card against every dialogue node of an
// encounter so authors can see the range of outcomes a script allows.
package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jwebster45206/babble-engine/pkg/cards"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stats summarize a set of base scores.
type Stats struct {
	Count   int     `json:"count"`
	Sum     float64 `json:"sum"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

func (s *Stats) add(score float64) {
	if s.Count == 0 || score < s.Min {
		s.Min = score
	}
	if s.Count == 0 || score > s.Max {
		s.Max = score
	}
	s.Count++
	s.Sum += score
	s.Average = math.Round(s.Sum / float64(s.Count))
}

// Result is the analysis of one encounter.
type Result struct {
	Name string `json:"name"`
	Stats
	MinCard string `json:"minCard"`
	MaxCard string `json:"maxCard"`
	MinNode string `json:"minNode"`
	MaxNode string `json:"maxNode"`
	// ByQuality breaks the scores down by the mood line of the node.
	ByQuality map[dialogue.Quality]Stats `json:"byQuality"`
}

// ScoreEncounter computes the base score of every card in table played into
// every node. Confidence is not applied.
func ScoreEncounter(name string, nodes []dialogue.PromptNode, table cards.CardTable, scores cards.ScoreTable) Result {
	result := Result{Name: name, ByQuality: map[dialogue.Quality]Stats{}}

	for _, node := range nodes {
		quality, _ := dialogue.ParseTitle(node.Title)
		line := result.ByQuality[quality]

		for _, card := range table {
			score := cards.CalculateScore(card.Features, node.FeatureReactions, scores)

			// Ties keep the first card and node seen.
			if result.Count == 0 || score < result.Min {
				result.MinCard = card.ID
				result.MinNode = node.Title
			}
			if result.Count == 0 || score > result.Max {
				result.MaxCard = card.ID
				result.MaxNode = node.Title
			}
			result.add(score)
			line.add(score)
		}
		result.ByQuality[quality] = line
	}
	return result
}

var titleCaser = cases.Title(language.English)

// Header returns the CSV column names.
func Header() []string {
	header := []string{"Name", "Min", "Max", "Count", "Sum", "Average", "Min Card", "Max Card", "Min Node", "Max Node"}
	for _, q := range dialogue.Qualities {
		header = append(header, titleCaser.String(string(q))+" Average")
	}
	return header
}

// Record returns r as a CSV row matching Header.
func (r Result) Record() []string {
	record := []string{
		r.Name,
		formatScore(r.Min),
		formatScore(r.Max),
		strconv.Itoa(r.Count),
		formatScore(r.Sum),
		formatScore(r.Average),
		r.MinCard,
		r.MaxCard,
		r.MinNode,
		r.MaxNode,
	}
	for _, q := range dialogue.Qualities {
		stats, ok := r.ByQuality[q]
		if !ok || stats.Count == 0 {
			record = append(record, "")
			continue
		}
		record = append(record, formatScore(stats.Average))
	}
	return record
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes a header and one row per result.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
