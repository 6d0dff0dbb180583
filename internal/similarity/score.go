// Package similarity scores how close two words are, based on their
// Levenshtein edit distance.
package similarity

import "github.com/agnivade/levenshtein"

// penalty is the score lost per edit, in hundredths.
const penalty = 5

// Distance returns the Levenshtein distance between a and b, counted in
// runes so that accented letters cost a single edit.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Score maps the edit distance between a and b to a similarity in [0, 1]:
// 1 for identical words, minus 0.05 per edit, floored at 0. Edits are
// counted in runes, not bytes: "hâtif" and "hatif" differ by one edit where
// a byte count would see two, so accented words are not penalised twice
// when ResolveRadical ranks candidate radicals.
func Score(a, b string) float64 {
	s := float64(100-penalty*Distance(a, b)) / 100
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
