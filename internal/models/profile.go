package models

import "time"

type CVMetadata struct {
	CVID        string    `json:"cv_id"`
	ResID       int64     `json:"res_id"`
	FileName    string    `json:"file_name"`
	FullName    string    `json:"full_name,omitempty"`
	CurrentRole string    `json:"current_role,omitempty"`
	ParsedAt    time.Time `json:"parsed_at"`
}

type SkillSection struct {
	RawText  string   `json:"raw_text"`
	Keywords []string `json:"skill_keywords"`
}

type ExperienceItem struct {
	Company     string     `json:"company,omitempty"`
	Role        string     `json:"role,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Description string     `json:"description"`
	IsCurrent   bool       `json:"is_current"`
}

// ParsedProfile is the structured form of one CV produced by the parser.
type ParsedProfile struct {
	Metadata       CVMetadata       `json:"metadata"`
	Skills         *SkillSection    `json:"skills,omitempty"`
	Experiences    []ExperienceItem `json:"experiences"`
	Education      []string         `json:"education"`
	Certifications []string         `json:"certifications"`
	RawText        string           `json:"raw_text"`
}
