package campaign

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

const (
	HeadingSceneName = "Scene Name"
	HeadingPrereq    = "Prereq"
)

var ErrMissingColumn = errors.New("missing column")

// ParseCSV reads a campaign with one row per prerequisite. A scene listed
// with an empty prereq still appears with no prerequisites.
func ParseCSV(r io.Reader) (Mapping, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign csv: %w", err)
	}

	mapping := Mapping{}
	if len(records) == 0 {
		return mapping, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	sceneCol := slices.Index(header, HeadingSceneName)
	prereqCol := slices.Index(header, HeadingPrereq)
	if sceneCol == -1 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, HeadingSceneName)
	}
	if prereqCol == -1 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, HeadingPrereq)
	}

	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for _, row := range records[1:] {
		scene := cell(row, sceneCol)
		if scene == "" {
			continue
		}
		prereqs, ok := mapping[scene]
		if !ok {
			prereqs = []string{}
		}
		if prereq := cell(row, prereqCol); prereq != "" && !slices.Contains(prereqs, prereq) {
			prereqs = append(prereqs, prereq)
		}
		mapping[scene] = prereqs
	}
	return mapping, nil
}

// LoadCSV reads a campaign file.
func LoadCSV(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open campaign: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}
