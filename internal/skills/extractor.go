package skills

import (
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/models"
)

// ExtractionResult holds the normalized and unresolved skills of one CV.
type ExtractionResult struct {
	CVID              string            `json:"cv_id"`
	NormalizedSkills  []NormalizedSkill `json:"normalized_skills"`
	UnknownSkills     []string          `json:"unknown_skills"`
	DictionaryVersion string            `json:"dictionary_version"`
}

// ExtractionStats are match-type percentages (0-100) over all resolved and
// unresolved candidates.
type ExtractionStats struct {
	ExactPct   float64 `json:"exact_pct"`
	AliasPct   float64 `json:"alias_pct"`
	FuzzyPct   float64 `json:"fuzzy_pct"`
	UnknownPct float64 `json:"unknown_pct"`
}

func (r *ExtractionResult) SkillCount() int { return len(r.NormalizedSkills) }

func (r *ExtractionResult) UnknownCount() int { return len(r.UnknownSkills) }

func (r *ExtractionResult) Stats() ExtractionStats {
	total := len(r.NormalizedSkills) + len(r.UnknownSkills)
	if total == 0 {
		return ExtractionStats{}
	}

	counts := make(map[MatchType]int, 3)
	for _, s := range r.NormalizedSkills {
		counts[s.MatchType]++
	}

	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }
	return ExtractionStats{
		ExactPct:   pct(counts[MatchExact]),
		AliasPct:   pct(counts[MatchAlias]),
		FuzzyPct:   pct(counts[MatchFuzzy]),
		UnknownPct: pct(len(r.UnknownSkills)),
	}
}

type Extractor struct {
	normalizer *Normalizer
	logger     *zap.Logger
}

func NewExtractor(normalizer *Normalizer, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{normalizer: normalizer, logger: logger.Named("skills")}
}

// Extract normalizes the skills of a parsed profile. Candidates come from the
// structured keywords when present, then the skills section text, then the
// whole document text.
func (e *Extractor) Extract(profile *models.ParsedProfile) *ExtractionResult {
	return e.ExtractFromRaw(profile.Metadata.CVID, RawCandidates(profile))
}

func (e *Extractor) ExtractFromRaw(cvID string, raw []string) *ExtractionResult {
	result := &ExtractionResult{
		CVID:              cvID,
		NormalizedSkills:  make([]NormalizedSkill, 0, len(raw)),
		UnknownSkills:     make([]string, 0),
		DictionaryVersion: e.normalizer.Dictionary().Version(),
	}

	for _, r := range raw {
		cleaned := CleanSkill(r)
		if cleaned == "" {
			continue
		}

		skill, ok := e.normalizer.Normalize(r)
		if !ok {
			result.UnknownSkills = append(result.UnknownSkills, cleaned)
			e.logger.Warn("unknown skill", zap.String("skill", cleaned), zap.String("cv_id", cvID))
			continue
		}
		result.NormalizedSkills = append(result.NormalizedSkills, skill)
	}

	return result
}

// RawCandidates returns the raw skill mentions of profile in precedence order.
func RawCandidates(profile *models.ParsedProfile) []string {
	if profile.Skills != nil && len(profile.Skills.Keywords) > 0 {
		return profile.Skills.Keywords
	}
	if profile.Skills != nil && strings.TrimSpace(profile.Skills.RawText) != "" {
		return SplitSkillText(profile.Skills.RawText)
	}
	return SplitSkillText(profile.RawText)
}

// SplitSkillText splits free text on newlines, semicolons, pipes and commas.
func SplitSkillText(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '\n', '\r', ';', '|', ',':
			return true
		}
		return false
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
