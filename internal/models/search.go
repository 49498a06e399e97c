package models

// SearchFilters narrows a skill search. Empty slices do not filter.
type SearchFilters struct {
	ResIDs           []int64          `json:"res_ids,omitempty"`
	SkillDomains     []string         `json:"skill_domains,omitempty"`
	Seniorities      []string         `json:"seniorities,omitempty"`
	AvailabilityMode AvailabilityMode `json:"availability,omitempty"`
}

// ProfileMatch is one ranked search hit.
type ProfileMatch struct {
	ResID         int64    `json:"res_id"`
	CVID          string   `json:"cv_id"`
	Score         float64  `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	SkillDomain   string   `json:"skill_domain,omitempty"`
	Seniority     string   `json:"seniority,omitempty"`
}

type SearchResponse struct {
	Results     []ProfileMatch `json:"results"`
	Total       int            `json:"total"`
	Limit       int            `json:"limit"`
	Offset      int            `json:"offset"`
	QueryTimeMS int64          `json:"query_time_ms"`
}
