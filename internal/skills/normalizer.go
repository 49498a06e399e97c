package skills

import "strings"

type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchAlias MatchType = "alias"
	MatchFuzzy MatchType = "fuzzy"
)

const (
	DefaultFuzzyThreshold = 85
	aliasConfidence       = 0.95
)

// NormalizedSkill is a raw mention resolved to a canonical dictionary entry.
type NormalizedSkill struct {
	Original   string    `json:"original"`
	Canonical  string    `json:"canonical"`
	Domain     string    `json:"domain"`
	Confidence float64   `json:"confidence"`
	MatchType  MatchType `json:"match_type"`
}

// Matcher is one resolution strategy. Match receives an already cleaned
// (trimmed, lowercased) name and reports whether it resolved it.
type Matcher interface {
	Type() MatchType
	Match(cleaned string) (entry *SkillEntry, confidence float64, ok bool)
}

type exactMatcher struct{ dict *Dictionary }

func (m exactMatcher) Type() MatchType { return MatchExact }

func (m exactMatcher) Match(cleaned string) (*SkillEntry, float64, bool) {
	e, ok := m.dict.ByCanonical(cleaned)
	return e, 1.0, ok
}

type aliasMatcher struct{ dict *Dictionary }

func (m aliasMatcher) Type() MatchType { return MatchAlias }

func (m aliasMatcher) Match(cleaned string) (*SkillEntry, float64, bool) {
	e, ok := m.dict.ByAlias(cleaned)
	return e, aliasConfidence, ok
}

type fuzzyMatcher struct {
	dict      *Dictionary
	threshold float64
}

func (m fuzzyMatcher) Type() MatchType { return MatchFuzzy }

// Match picks the name with the highest ratio. Names are scanned in sorted
// order and only a strictly better ratio replaces the current best, so ties
// resolve to the lexicographically smallest name.
func (m fuzzyMatcher) Match(cleaned string) (*SkillEntry, float64, bool) {
	bestName := ""
	bestScore := -1.0
	for _, name := range m.dict.AllNames() {
		if score := Ratio(cleaned, name); score > bestScore {
			bestName, bestScore = name, score
		}
	}
	if bestName == "" || bestScore < m.threshold {
		return nil, 0, false
	}

	e, ok := m.dict.ByName(bestName)
	if !ok {
		return nil, 0, false
	}
	return e, bestScore / 100, true
}

// Normalizer resolves raw mentions through an ordered chain of matchers;
// the first matcher that succeeds wins.
type Normalizer struct {
	dict     *Dictionary
	matchers []Matcher
}

type NormalizerOption func(*normalizerOptions)

type normalizerOptions struct {
	fuzzyThreshold int
}

// WithFuzzyThreshold sets the minimum ratio (0-100) for fuzzy matches.
func WithFuzzyThreshold(threshold int) NormalizerOption {
	return func(o *normalizerOptions) {
		o.fuzzyThreshold = threshold
	}
}

func NewNormalizer(dict *Dictionary, opts ...NormalizerOption) *Normalizer {
	o := normalizerOptions{fuzzyThreshold: DefaultFuzzyThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	return &Normalizer{
		dict: dict,
		matchers: []Matcher{
			exactMatcher{dict: dict},
			aliasMatcher{dict: dict},
			fuzzyMatcher{dict: dict, threshold: float64(o.fuzzyThreshold)},
		},
	}
}

func (n *Normalizer) Dictionary() *Dictionary { return n.dict }

// Normalize resolves raw to a canonical skill. ok is false for empty input
// or when no matcher resolves it; that is not an error.
func (n *Normalizer) Normalize(raw string) (NormalizedSkill, bool) {
	cleaned := CleanSkill(raw)
	if cleaned == "" {
		return NormalizedSkill{}, false
	}

	for _, m := range n.matchers {
		entry, confidence, ok := m.Match(cleaned)
		if !ok {
			continue
		}
		return NormalizedSkill{
			Original:   raw,
			Canonical:  entry.Canonical,
			Domain:     entry.Domain,
			Confidence: confidence,
			MatchType:  m.Type(),
		}, true
	}

	return NormalizedSkill{}, false
}

// CleanSkill trims and lowercases a raw skill mention.
func CleanSkill(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
