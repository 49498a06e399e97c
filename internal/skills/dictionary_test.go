package skills

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

func loadTestDictionary(t *testing.T) *Dictionary {
	t.Helper()
	dict, err := Load(filepath.Join("testdata", "skills_dictionary.yaml"))
	require.NoError(t, err)
	return dict
}

func TestLoad_ValidDictionary(t *testing.T) {
	dict := loadTestDictionary(t)

	assert.Equal(t, "1.2.0", dict.Version())
	assert.Equal(t, []string{"backend", "frontend", "data", "devops", "management"}, dict.Domains())
	assert.Equal(t, 12, dict.CanonicalCount())
	require.NotNil(t, dict.UpdatedAt())
	assert.Equal(t, 2025, dict.UpdatedAt().Year())

	entry, ok := dict.ByAlias("py")
	require.True(t, ok)
	assert.Equal(t, "python", entry.Canonical)
	assert.Equal(t, []string{"django", "fastapi"}, entry.Related)
	assert.Equal(t, []string{"pcep"}, entry.Certifications)

	_, ok = dict.ByCanonical("py")
	assert.False(t, ok)

	byName, ok := dict.ByName("k8s")
	require.True(t, ok)
	assert.Equal(t, "kubernetes", byName.Canonical)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAllNames_SortedAndComplete(t *testing.T) {
	dict := loadTestDictionary(t)
	names := dict.AllNames()

	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "python")
	assert.Contains(t, names, "python3")
	assert.Contains(t, names, "fast api")
	assert.Len(t, names, dict.CanonicalCount()+dict.AliasCount())
}

func TestParse_NormalizesCaseAndWhitespace(t *testing.T) {
	doc := `
version: "1"
updated_at: null
domains: [" Backend ", DATA]
skills:
  Go:
    canonical: "  GoLang "
    domain: BACKEND
    aliases: [" GO ", "", go]
`
	dict, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"backend", "data"}, dict.Domains())
	entry, ok := dict.ByCanonical("golang")
	require.True(t, ok)
	assert.Equal(t, "backend", entry.Domain)
	assert.Equal(t, []string{"go"}, entry.Aliases)
	assert.Nil(t, dict.UpdatedAt())
}

func TestParse_AcceptsJSON(t *testing.T) {
	doc := `{"version": "2", "updated_at": "2024-06-01T10:00:00Z", "domains": ["data"], "skills": {"sql": {"domain": "data"}}}`

	dict, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, dict.CanonicalCount())
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		message string
	}{
		{
			name:    "missing domains",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\nskills:\n  python:\n    domain: backend\n",
			message: "domains",
		},
		{
			name:    "empty domains",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: []\nskills:\n  python:\n    domain: backend\n",
			message: "domains",
		},
		{
			name:    "duplicate domains ignoring case",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: [backend, Backend]\nskills:\n  python:\n    domain: backend\n",
			message: "unique",
		},
		{
			name:    "empty skills",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: [backend]\nskills: {}\n",
			message: "skills",
		},
		{
			name:    "blank version",
			doc:     "version: '  '\nupdated_at: '2024-01-01'\ndomains: [backend]\nskills:\n  python:\n    domain: backend\n",
			message: "version",
		},
		{
			name:    "missing entry domain",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: [backend]\nskills:\n  python:\n    aliases: [py]\n",
			message: "missing domain",
		},
		{
			name:    "unknown entry domain",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: [backend]\nskills:\n  python:\n    domain: frontend\n",
			message: "unknown domain",
		},
		{
			name:    "aliases not an array",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: [backend]\nskills:\n  python:\n    domain: backend\n    aliases: py\n",
			message: "aliases",
		},
		{
			name:    "duplicate canonical via override",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: [backend]\nskills:\n  python:\n    domain: backend\n  py3:\n    canonical: Python\n    domain: backend\n",
			message: "duplicate canonical",
		},
		{
			name:    "alias shared by two skills",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: [backend]\nskills:\n  go:\n    domain: backend\n    aliases: [gl]\n  golang:\n    domain: backend\n    aliases: [gl]\n",
			message: "alias",
		},
		{
			name:    "alias equal to another canonical",
			doc:     "version: '1'\nupdated_at: '2024-01-01'\ndomains: [backend]\nskills:\n  java:\n    domain: backend\n  python:\n    domain: backend\n    aliases: [java]\n",
			message: "collides",
		},
		{
			name:    "not a mapping",
			doc:     "- just\n- a list\n",
			message: "YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, dict)
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
