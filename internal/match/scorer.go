package match

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"
)

// Scorer rates how similar two normalized strings are, in [0, 1].
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// #region overlap
const (
	containmentWeight = 0.8
	overlapWeight     = 0.2
)

// OverlapScorer rewards one string containing the other and adds a small
// bonus for the share of distinct characters the two have in common.
type OverlapScorer struct{}

func (OverlapScorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	score := 0.0
	if strings.Contains(longer, shorter) {
		score += containmentWeight
	}
	score += overlapWeight * charJaccard(a, b)

	if score > 1 {
		score = 1
	}
	return score
}

func charJaccard(a, b string) float64 {
	setA := make(map[rune]struct{}, len(a))
	for _, r := range a {
		setA[r] = struct{}{}
	}
	union := make(map[rune]struct{}, len(setA)+len(b))
	for r := range setA {
		union[r] = struct{}{}
	}
	inter := 0
	seen := make(map[rune]struct{}, len(b))
	for _, r := range b {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := setA[r]; ok {
			inter++
		}
		union[r] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

// #endregion overlap

// #region edit
// EditScorer blends Jaro-Winkler and normalized Levenshtein similarity on
// ASCII-transliterated input. Containment still dominates so that a name
// embedded in a longer utterance keeps matching.
type EditScorer struct {
	JaroWeight float64
	LevWeight  float64
}

func (s EditScorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	a, b = transliterate(a), transliterate(b)

	jw, lw := s.JaroWeight, s.LevWeight
	if jw == 0 && lw == 0 {
		jw, lw = 0.7, 0.3
	}
	j := smetrics.JaroWinkler(a, b, 0.7, 4)
	den := max(len(a), len(b))
	lev := 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(den)
	sim := jw*j + lw*lev

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		sim = containmentWeight + overlapWeight*sim
	}
	if sim > 1 {
		sim = 1
	}
	if sim < 0 {
		sim = 0
	}
	return sim
}

func transliterate(s string) string { return strings.ToLower(unidecode.Unidecode(s)) }

// #endregion edit

// ScorerByName returns the scorer registered under name ("overlap" or "edit").
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "overlap":
		return OverlapScorer{}, nil
	case "edit":
		return EditScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}
