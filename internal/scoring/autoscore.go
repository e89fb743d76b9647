// Package scoring holds the pure scoring rules: the artifact checklist, the LLM rubric
// scorer with its fallback, and the blend of the two into provisional and final scores.
package scoring

import (
	"strings"
	"unicode/utf8"
)

const (
	// PointsPerCheck is awarded for each satisfied checklist item.
	PointsPerCheck = 5
	// WriteupMinChars is the shortest writeup, in runes, that satisfies the writeup check.
	WriteupMinChars = 400
	MaxAutoScore    = 4 * PointsPerCheck
)

// Artifacts are the optional submission fields the scorers look at. Empty means absent.
type Artifacts struct {
	RepoURL   string
	DeckURL   string
	DemoURL   string
	WriteupMD string
}

type Checks struct {
	Repo    bool `json:"repo"`
	Deck    bool `json:"deck"`
	Demo    bool `json:"demo"`
	Writeup bool `json:"writeup"`
}

type AutoResult struct {
	Checks Checks
	Score  int
}

// AutoScore awards PointsPerCheck for each present link and for a writeup of at least
// WriteupMinChars runes.
func AutoScore(a Artifacts) AutoResult {
	checks := Checks{
		Repo:    present(a.RepoURL),
		Deck:    present(a.DeckURL),
		Demo:    present(a.DemoURL),
		Writeup: utf8.RuneCountInString(a.WriteupMD) >= WriteupMinChars,
	}

	score := 0
	for _, ok := range []bool{checks.Repo, checks.Deck, checks.Demo, checks.Writeup} {
		if ok {
			score += PointsPerCheck
		}
	}

	return AutoResult{Checks: checks, Score: score}
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
