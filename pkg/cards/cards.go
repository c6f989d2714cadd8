package cards

import (
	"strings"
	"unicode"
)

// CardRow is one card definition from the card table. Many card instances
// may share a single row.
type CardRow struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Features string `json:"features"` // whitespace or comma delimited feature tokens
}

// FeatureSet returns the card's features as a set.
func (c CardRow) FeatureSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range SplitList(c.Features) {
		set[f] = struct{}{}
	}
	return set
}

// CardTable is the ordered list of every card definition in the game.
type CardTable []CardRow

// ByID returns the first card row with the given id.
func (t CardTable) ByID(id string) (CardRow, bool) {
	for _, row := range t {
		if row.ID == id {
			return row, true
		}
	}
	return CardRow{}, false
}

// IDs returns every card id in table order.
func (t CardTable) IDs() []string {
	ids := make([]string, 0, len(t))
	for _, row := range t {
		ids = append(ids, row.ID)
	}
	return ids
}

// SplitList splits a whitespace and/or comma delimited list, dropping empty tokens.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
