package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ExactMatch(t *testing.T) {
	n := NewNormalizer(loadTestDictionary(t))

	got, ok := n.Normalize("Python")
	require.True(t, ok)
	assert.Equal(t, "python", got.Canonical)
	assert.Equal(t, "backend", got.Domain)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, MatchExact, got.MatchType)
	assert.Equal(t, "Python", got.Original)
}

func TestNormalize_AliasMatch(t *testing.T) {
	n := NewNormalizer(loadTestDictionary(t))

	got, ok := n.Normalize("Postgres")
	require.True(t, ok)
	assert.Equal(t, "postgresql", got.Canonical)
	assert.Equal(t, "data", got.Domain)
	assert.Equal(t, 0.95, got.Confidence)
	assert.Equal(t, MatchAlias, got.MatchType)
}

func TestNormalize_FuzzyMatch(t *testing.T) {
	n := NewNormalizer(loadTestDictionary(t))

	got, ok := n.Normalize("pythn")
	require.True(t, ok)
	assert.Equal(t, "python", got.Canonical)
	assert.Equal(t, MatchFuzzy, got.MatchType)
	assert.GreaterOrEqual(t, got.Confidence, 0.85)
	assert.Less(t, got.Confidence, 1.0)
	assert.InDelta(t, 10.0/11.0, got.Confidence, 1e-9)
}

func TestNormalize_CaseAndWhitespaceInvariant(t *testing.T) {
	n := NewNormalizer(loadTestDictionary(t))

	a, okA := n.Normalize(" Python ")
	b, okB := n.Normalize("python")
	c, okC := n.Normalize("PYTHON")
	require.True(t, okA && okB && okC)

	assert.Equal(t, b.Canonical, a.Canonical)
	assert.Equal(t, b.Canonical, c.Canonical)
	assert.Equal(t, b.Confidence, a.Confidence)
	assert.Equal(t, b.MatchType, c.MatchType)
}

func TestNormalize_NoMatch(t *testing.T) {
	n := NewNormalizer(loadTestDictionary(t))

	for _, raw := range []string{"xyz123", "", "   ", "\t\n"} {
		_, ok := n.Normalize(raw)
		assert.False(t, ok, "input %q", raw)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n := NewNormalizer(loadTestDictionary(t))

	inputs := []string{"py", "pythn", "Reactjs", "kubernets", "unknown thing", "postgress"}
	for _, in := range inputs {
		first, ok1 := n.Normalize(in)
		for i := 0; i < 5; i++ {
			again, ok2 := n.Normalize(in)
			assert.Equal(t, ok1, ok2)
			assert.Equal(t, first, again)
		}
	}
}

func TestNormalize_ConfidenceBounds(t *testing.T) {
	n := NewNormalizer(loadTestDictionary(t))

	for _, in := range []string{"python", "js", "typescrpt", "dockr", "scrum"} {
		got, ok := n.Normalize(in)
		if !ok {
			continue
		}
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 1.0)
		switch got.MatchType {
		case MatchExact:
			assert.Equal(t, 1.0, got.Confidence)
		case MatchAlias:
			assert.Equal(t, 0.95, got.Confidence)
		case MatchFuzzy:
			assert.GreaterOrEqual(t, got.Confidence, 0.85)
		}
	}
}

func TestFuzzyMatcher_TieBreaksLexicographically(t *testing.T) {
	doc := `
version: "1"
updated_at: "2024-01-01"
domains: [backend]
skills:
  abcy:
    domain: backend
  abcx:
    domain: backend
`
	dict, err := Parse([]byte(doc))
	require.NoError(t, err)

	n := NewNormalizer(dict, WithFuzzyThreshold(70))
	got, ok := n.Normalize("abcz")
	require.True(t, ok)
	assert.Equal(t, "abcx", got.Canonical)
	assert.Equal(t, 0.75, got.Confidence)
}

func TestFuzzyThreshold_Option(t *testing.T) {
	dict := loadTestDictionary(t)

	_, ok := NewNormalizer(dict, WithFuzzyThreshold(95)).Normalize("pythn")
	assert.False(t, ok)

	_, ok = NewNormalizer(dict).Normalize("pythn")
	assert.True(t, ok)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.Equal(t, 100.0, Ratio("python", "python"))
	assert.InDelta(t, 100*10.0/11.0, Ratio("pythn", "python"), 1e-9)
	assert.Equal(t, Ratio("kubernetes", "kubernets"), Ratio("kubernets", "kubernetes"))
	assert.Equal(t, 75.0, Ratio("über", "uber"))
}
