package services

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/skills"
)

type section string

const (
	sectionUnknown        section = "unknown"
	sectionSkills         section = "skills"
	sectionExperience     section = "experience"
	sectionEducation      section = "education"
	sectionCertifications section = "certifications"
)

// Headings are matched at the start of a line, in this order.
var sectionPatterns = []struct {
	section section
	re      *regexp.Regexp
}{
	{sectionSkills, regexp.MustCompile(`(?i)^(competenze|skills?|technical skills?|conoscenze|tecnologie|tools?|linguaggi|frameworks?|hard skills|soft skills)`)},
	{sectionExperience, regexp.MustCompile(`(?i)^(esperienz[ae]|experience|work history|career|professional experience|posizioni ricoperte|employment)`)},
	{sectionEducation, regexp.MustCompile(`(?i)^(formazione|education|istruzione|studi|titoli di studio|academic)`)},
	{sectionCertifications, regexp.MustCompile(`(?i)^(certificazioni|certifications?|qualifiche|attestati|corsi|training)`)},
}

var (
	namePattern  = regexp.MustCompile(`(?i)^(?:nome\s*e\s*cognome|nome|cognome|name|full\s*name)\s*[:\-]\s*(.+)$`)
	rolePattern  = regexp.MustCompile(`(?i)^(?:ruolo|posizione|job\s*title|current\s*role|current\s*position)\s*[:\-]\s*(.+)$`)
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
	datePattern  = regexp.MustCompile(`(?i)(\d{1,2})/(\d{4})\s*[-–]\s*(?:(\d{1,2})/(\d{4})|(presente|present|current|oggi|attuale))`)
	slugPattern  = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	resIDPattern = regexp.MustCompile(`^(\d+)[_\-\s]`)
)

// CVParser turns extracted CV text into a structured profile using heading
// and layout heuristics.
type CVParser struct {
	extractor PDFParserService
	now       func() time.Time
	logger    *zap.Logger
}

func NewCVParser(extractor PDFParserService, logger *zap.Logger) *CVParser {
	return &CVParser{
		extractor: extractor,
		now:       time.Now,
		logger:    logger.Named("cv_parser"),
	}
}

// ParseFile extracts the text of the file at path and parses it.
func (p *CVParser) ParseFile(path, originalName string, resID int64) (*models.ParsedProfile, error) {
	content, err := p.extractor.ExtractText(path)
	if err != nil {
		return nil, err
	}
	if originalName == "" {
		originalName = filepath.Base(path)
	}
	return p.Parse(content.Text, originalName, resID), nil
}

// Parse builds a profile from plain text. The cv_id is derived from fileName
// only, so parsing the same file again yields the same id.
func (p *CVParser) Parse(text, fileName string, resID int64) *models.ParsedProfile {
	lines := splitLines(text)
	sections := detectSections(lines)
	fullName, role := extractMetadata(lines)

	profile := &models.ParsedProfile{
		Metadata: models.CVMetadata{
			CVID:        BuildCVID(fileName),
			ResID:       resID,
			FileName:    filepath.Base(fileName),
			FullName:    fullName,
			CurrentRole: role,
			ParsedAt:    p.now().UTC(),
		},
		Experiences:    parseExperiences(sections[sectionExperience]),
		Education:      nonNil(sections[sectionEducation]),
		Certifications: nonNil(sections[sectionCertifications]),
		RawText:        strings.Join(lines, "\n"),
	}

	skillsText := strings.Join(sections[sectionSkills], "\n")
	profile.Skills = &models.SkillSection{
		RawText:  skillsText,
		Keywords: skills.SplitSkillText(skillsText),
	}

	p.logger.Debug("cv parsed",
		zap.String("cv_id", profile.Metadata.CVID),
		zap.Int("skill_keywords", len(profile.Skills.Keywords)),
		zap.Int("experiences", len(profile.Experiences)),
	)
	return profile
}

// BuildCVID slugs a file name, without its extension, into a CV id.
func BuildCVID(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	slug := strings.ToLower(strings.Trim(slugPattern.ReplaceAllString(base, "-"), "-"))
	if slug == "" {
		return "cv"
	}
	return slug
}

// ResIDFromFileName reads the numeric resource id prefix of an export file
// name such as "12345_mario_rossi.pdf".
func ResIDFromFileName(fileName string) (int64, bool) {
	m := resIDPattern.FindStringSubmatch(filepath.Base(fileName))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func detectSection(line string) (section, bool) {
	for _, sp := range sectionPatterns {
		if sp.re.MatchString(line) {
			return sp.section, true
		}
	}
	return "", false
}

// detectSections groups lines under the last heading seen. Lines before the
// first heading belong to sectionUnknown.
func detectSections(lines []string) map[section][]string {
	sections := make(map[section][]string)
	current := sectionUnknown
	for _, line := range lines {
		if s, ok := detectSection(line); ok {
			current = s
			continue
		}
		sections[current] = append(sections[current], line)
	}
	return sections
}

func extractMetadata(lines []string) (fullName, role string) {
	for _, line := range lines {
		if emailPattern.MatchString(line) {
			continue
		}
		if fullName == "" {
			if m := namePattern.FindStringSubmatch(line); m != nil && isProbableName(m[1]) {
				fullName = strings.TrimSpace(m[1])
			}
		}
		if role == "" {
			if m := rolePattern.FindStringSubmatch(line); m != nil {
				role = strings.TrimSpace(m[1])
			}
		}
		if fullName != "" && role != "" {
			break
		}
	}

	if fullName == "" {
		for _, line := range lines {
			if isTitleCaseName(line) {
				fullName = line
				break
			}
		}
	}
	return fullName, role
}

func isProbableName(candidate string) bool {
	parts := strings.Fields(candidate)
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		if len([]rune(part)) <= 1 {
			return false
		}
		if len([]rune(part)) > 3 && isUpper(part) {
			return false
		}
	}
	return true
}

// isTitleCaseName matches lines of exactly two capitalized words.
func isTitleCaseName(line string) bool {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		runes := []rune(part)
		if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes[1:] {
			if !unicode.IsLower(r) {
				return false
			}
		}
	}
	return true
}

// parseExperiences starts a new item on upper-case lines and on lines that
// carry a dash, which is how most CVs lay out "Role - Company" headers.
func parseExperiences(lines []string) []models.ExperienceItem {
	items := make([]models.ExperienceItem, 0)
	var buffer []string

	flush := func() {
		if len(buffer) > 0 {
			items = append(items, bufferToExperience(buffer))
		}
	}

	for _, line := range lines {
		if isNewExperienceLine(line) && len(buffer) > 0 {
			flush()
			buffer = nil
		}
		buffer = append(buffer, line)
	}
	flush()

	return items
}

func isNewExperienceLine(line string) bool {
	return isUpper(line) || strings.ContainsAny(line, "-–")
}

func bufferToExperience(lines []string) models.ExperienceItem {
	item := models.ExperienceItem{Description: strings.Join(lines, "\n")}

	header := lines[0]
	m := datePattern.FindStringSubmatch(header)
	if m == nil {
		return item
	}

	item.StartDate = monthYear(m[1], m[2])
	switch {
	case m[5] != "":
		item.IsCurrent = true
	default:
		item.EndDate = monthYear(m[3], m[4])
	}

	title := strings.TrimSpace(datePattern.ReplaceAllString(header, ""))
	title = strings.Trim(title, " -–|,()")
	if role, company, ok := strings.Cut(title, " - "); ok {
		item.Role = strings.TrimSpace(role)
		item.Company = strings.TrimSpace(company)
	} else if role, company, ok := strings.Cut(title, " @ "); ok {
		item.Role = strings.TrimSpace(role)
		item.Company = strings.TrimSpace(company)
	} else {
		item.Role = title
	}

	return item
}

func monthYear(month, year string) *time.Time {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return nil
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return nil
	}
	t := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	return &t
}

// isUpper reports whether s has letters and none of them is lower case.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
