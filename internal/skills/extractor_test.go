package skills

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"alfredoptarigan/profile-matcher/internal/models"
)

func newTestExtractor(t *testing.T) (*Extractor, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	return NewExtractor(NewNormalizer(loadTestDictionary(t)), zap.New(core)), logs
}

func TestExtractFromRaw_CollectsNormalizedAndUnknown(t *testing.T) {
	e, logs := newTestExtractor(t)

	result := e.ExtractFromRaw("cv-test", []string{"Python", "py", "Pythn", "XYZ123 ", ""})

	require.Len(t, result.NormalizedSkills, 3)
	assert.Equal(t, []string{"xyz123"}, result.UnknownSkills)
	assert.Equal(t, "cv-test", result.CVID)
	assert.Equal(t, "1.2.0", result.DictionaryVersion)
	assert.Equal(t, 1, logs.FilterMessage("unknown skill").Len())
}

func TestExtractFromRaw_UnknownKeepsOrderAndDuplicates(t *testing.T) {
	e, _ := newTestExtractor(t)

	result := e.ExtractFromRaw("cv-1", []string{"foo", "bar", "foo"})

	assert.Empty(t, result.NormalizedSkills)
	assert.Equal(t, []string{"foo", "bar", "foo"}, result.UnknownSkills)
}

func TestStats_Percentages(t *testing.T) {
	e, _ := newTestExtractor(t)

	stats := e.ExtractFromRaw("cv-stats", []string{"Python", "py", "Pythn", "xyz123"}).Stats()

	assert.InDelta(t, 25.0, stats.ExactPct, 1e-9)
	assert.InDelta(t, 25.0, stats.AliasPct, 1e-9)
	assert.InDelta(t, 25.0, stats.FuzzyPct, 1e-9)
	assert.InDelta(t, 25.0, stats.UnknownPct, 1e-9)
}

func TestStats_EmptyResult(t *testing.T) {
	e, _ := newTestExtractor(t)

	stats := e.ExtractFromRaw("cv-empty", nil).Stats()

	assert.Equal(t, ExtractionStats{}, stats)
}

func TestExtract_PrefersKeywords(t *testing.T) {
	e, _ := newTestExtractor(t)
	profile := &models.ParsedProfile{
		Metadata: models.CVMetadata{CVID: "cv-1", ResID: 10},
		Skills:   &models.SkillSection{RawText: "Docker, Kubernetes", Keywords: []string{"Python", "FastAPI"}},
		RawText:  "SQL",
	}

	result := e.Extract(profile)

	require.Len(t, result.NormalizedSkills, 2)
	assert.Equal(t, "python", result.NormalizedSkills[0].Canonical)
	assert.Equal(t, "fastapi", result.NormalizedSkills[1].Canonical)
}

func TestExtract_FallsBackToSectionText(t *testing.T) {
	e, _ := newTestExtractor(t)
	profile := &models.ParsedProfile{
		Metadata: models.CVMetadata{CVID: "cv-2"},
		Skills:   &models.SkillSection{RawText: "Docker; K8s | React\nSQL"},
		RawText:  "Java",
	}

	result := e.Extract(profile)

	canonicals := make([]string, 0, len(result.NormalizedSkills))
	for _, s := range result.NormalizedSkills {
		canonicals = append(canonicals, s.Canonical)
	}
	assert.Equal(t, []string{"docker", "kubernetes", "react", "sql"}, canonicals)
}

func TestExtract_FallsBackToRawText(t *testing.T) {
	e, _ := newTestExtractor(t)
	profile := &models.ParsedProfile{
		Metadata: models.CVMetadata{CVID: "cv-3"},
		RawText:  "Java, TypeScript\r\nScrum",
	}

	result := e.Extract(profile)

	require.Len(t, result.NormalizedSkills, 3)
	assert.Equal(t, "scrum", result.NormalizedSkills[2].Canonical)
}

func TestSplitSkillText(t *testing.T) {
	assert.Equal(t, []string{"Python", "Go", "SQL", "Docker", "AWS"}, SplitSkillText(" Python, Go;SQL |Docker\n\nAWS,, "))
	assert.Empty(t, SplitSkillText(""))
	assert.Empty(t, SplitSkillText(" ,;| \n"))
}

func TestUnknownCollector_Report(t *testing.T) {
	c := NewUnknownCollector()
	c.Add(&ExtractionResult{CVID: "a", UnknownSkills: []string{"cobol", "fortran"}})
	c.Add(&ExtractionResult{CVID: "b", UnknownSkills: []string{"cobol"}})
	c.Add(&ExtractionResult{CVID: "c"})
	c.AddFailure("d")

	report := c.Report(0)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.UniqueUnknowns)
	assert.Equal(t, []UnknownCount{{Skill: "cobol", Count: 2}, {Skill: "fortran", Count: 1}}, report.TopUnknowns)
	assert.Equal(t, []string{}, report.PerCV["d"])
	assert.NotContains(t, report.PerCV, "c")

	limited := c.Report(1)
	assert.Len(t, limited.TopUnknowns, 1)

	var csvOut bytes.Buffer
	require.NoError(t, report.WriteCSV(&csvOut))
	assert.Equal(t, "skill,count\ncobol,2\nfortran,1\n", csvOut.String())

	var textOut bytes.Buffer
	require.NoError(t, report.WriteText(&textOut))
	assert.Contains(t, textOut.String(), "Processed CVs: 3")
	assert.Contains(t, textOut.String(), "- cobol: 2")
}
