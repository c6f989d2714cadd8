package cards

import "strings"

// ScoreRow assigns a score to a feature when a dialogue node reacts to it
// in a particular way. An empty Reaction is the default (no reaction).
type ScoreRow struct {
	Feature  string  `json:"feature"`
	Reaction string  `json:"reaction"`
	Score    float64 `json:"score"`
}

// ScoreTable is an ordered list of score rows. Duplicate (feature, reaction)
// pairs are kept and all contribute to a score.
type ScoreTable []ScoreRow

// ParseFeatureReaction splits a node token such as "agree_bad" on its first
// underscore. A token without an underscore has an empty reaction.
func ParseFeatureReaction(token string) (feature, reaction string) {
	feature, reaction, _ = strings.Cut(token, "_")
	return feature, reaction
}

// EffectiveReactions maps every feature of the card to the reaction the node
// has for it. Card features the node ignores map to "". Node reactions for
// features the card does not have are dropped.
func EffectiveReactions(cardFeatures, nodeFeatureReactions string) map[string]string {
	effective := make(map[string]string)
	for _, f := range SplitList(cardFeatures) {
		effective[f] = ""
	}
	for _, token := range SplitList(nodeFeatureReactions) {
		feature, reaction := ParseFeatureReaction(token)
		if _, ok := effective[feature]; ok {
			effective[feature] = reaction
		}
	}
	return effective
}

// CalculateScore returns the score of playing a card with cardFeatures into a
// node with nodeFeatureReactions. Every matching row of the table is summed.
func CalculateScore(cardFeatures, nodeFeatureReactions string, table ScoreTable) float64 {
	effective := EffectiveReactions(cardFeatures, nodeFeatureReactions)

	var sum float64
	for _, row := range table {
		if reaction, ok := effective[row.Feature]; ok && reaction == row.Reaction {
			sum += row.Score
		}
	}
	return sum
}
