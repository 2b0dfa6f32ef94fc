package match

import "strings"

// DefaultThreshold is the minimum fuzzy score accepted as a match.
const DefaultThreshold = 0.6

// DefaultSuggestionLimit caps how many candidates Suggest returns.
const DefaultSuggestionLimit = 4

// Matcher resolves free text against a list of canonical names.
type Matcher struct {
	scorer    Scorer
	threshold float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithScorer replaces the fuzzy scorer.
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scorer = s
		}
	}
}

// WithThreshold sets the minimum accepted fuzzy score.
func WithThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 {
			m.threshold = t
		}
	}
}

// New returns a Matcher using the overlap scorer and the default threshold
// unless overridden.
func New(opts ...Option) *Matcher {
	m := &Matcher{scorer: OverlapScorer{}, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold reports the configured fuzzy threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Resolve maps text to a canonical candidate. An exact (normalized) match
// always wins; otherwise the first candidate with the highest fuzzy score
// at or above the threshold is returned. The returned name keeps the
// candidate's own casing.
func (m *Matcher) Resolve(text string, candidates []string) (string, bool) {
	if name, ok := m.Exact(text, candidates); ok {
		return name, true
	}
	return m.Fuzzy(text, candidates)
}

// Exact returns the first candidate equal to text after normalization.
func (m *Matcher) Exact(text string, candidates []string) (string, bool) {
	norm := Normalize(text)
	if norm == "" {
		return "", false
	}
	for _, c := range candidates {
		if Normalize(c) == norm {
			return c, true
		}
	}
	return "", false
}

// Fuzzy runs only the scored pass.
func (m *Matcher) Fuzzy(text string, candidates []string) (string, bool) {
	norm := Normalize(text)
	if norm == "" {
		return "", false
	}

	best := ""
	bestScore := 0.0
	found := false
	for _, c := range candidates {
		score := m.scorer.Score(norm, Normalize(c))
		if score > bestScore && score >= m.threshold {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

// Suggest returns up to limit candidates whose normalized form contains the
// normalized text. When nothing contains it, the first limit candidates are
// offered instead so the user always sees some valid options.
func (m *Matcher) Suggest(text string, candidates []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	norm := Normalize(text)

	out := make([]string, 0, limit)
	if norm != "" {
		for _, c := range candidates {
			if strings.Contains(Normalize(c), norm) {
				out = append(out, c)
				if len(out) == limit {
					return out
				}
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, c := range candidates {
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}
