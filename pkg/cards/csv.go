package cards

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column headings used by the game's spreadsheets.
const (
	HeadingID       = "Id"
	HeadingText     = "Text"
	HeadingFeatures = "Features"
	HeadingFeature  = "Feature"
	HeadingReaction = "Reaction"
	HeadingScore    = "Score"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidRow    = errors.New("invalid row")
)

// table is a parsed CSV with a header row.
type table struct {
	columns map[string]int
	rows    [][]string
}

func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return &table{columns: map[string]int{}}, nil
	}

	columns := make(map[string]int, len(records[0]))
	for i, heading := range records[0] {
		heading = strings.TrimSpace(heading)
		if _, exists := columns[heading]; !exists {
			columns[heading] = i
		}
	}
	return &table{columns: columns, rows: records[1:]}, nil
}

func (t *table) require(headings ...string) error {
	for _, h := range headings {
		if _, ok := t.columns[h]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, h)
		}
	}
	return nil
}

// get returns the trimmed cell for heading, or "" if the row is short or the
// column does not exist.
func (t *table) get(row []string, heading string) string {
	i, ok := t.columns[heading]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseScoresCSV reads a score table with Feature, Reaction and Score columns.
// Other columns are ignored. Rows without a feature are separators and are
// skipped; a row with a feature and a non-numeric score is an error.
func ParseScoresCSV(r io.Reader) (ScoreTable, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(HeadingFeature, HeadingScore); err != nil {
		return nil, err
	}

	scores := ScoreTable{}
	for i, row := range t.rows {
		feature := t.get(row, HeadingFeature)
		if feature == "" {
			continue
		}
		raw := t.get(row, HeadingScore)
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: score %q is not a number", ErrInvalidRow, i+2, raw)
		}
		scores = append(scores, ScoreRow{
			Feature:  feature,
			Reaction: t.get(row, HeadingReaction),
			Score:    score,
		})
	}
	return scores, nil
}

// ParseCardsCSV reads a card table with Id, Text and Features columns.
// Completely blank rows are skipped. Features may be empty.
func ParseCardsCSV(r io.Reader) (CardTable, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(HeadingID, HeadingText, HeadingFeatures); err != nil {
		return nil, err
	}

	rows := CardTable{}
	for i, row := range t.rows {
		card := CardRow{
			ID:       t.get(row, HeadingID),
			Text:     t.get(row, HeadingText),
			Features: strings.Join(SplitList(t.get(row, HeadingFeatures)), " "),
		}
		if card.ID == "" && card.Text == "" && card.Features == "" {
			continue
		}
		if card.ID == "" || card.Text == "" {
			return nil, fmt.Errorf("%w: line %d: card requires an id and text", ErrInvalidRow, i+2)
		}
		rows = append(rows, card)
	}
	return rows, nil
}

// ParseDeckCSV reads an ordered deck spec from the Id column. Duplicate ids
// are kept; each occurrence becomes one card instance.
func ParseDeckCSV(r io.Reader) ([]string, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(HeadingID); err != nil {
		return nil, err
	}

	ids := []string{}
	for _, row := range t.rows {
		if id := t.get(row, HeadingID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
