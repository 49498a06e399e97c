package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/skills"
)

type SkillsHandler struct {
	extractor *skills.Extractor
	dict      *skills.Dictionary
}

func NewSkillsHandler(extractor *skills.Extractor, dict *skills.Dictionary) *SkillsHandler {
	return &SkillsHandler{extractor: extractor, dict: dict}
}

// HandleExtract normalizes an explicit skill list, or the skills found in
// free text when no list is given.
func (h *SkillsHandler) HandleExtract(c *fiber.Ctx) error {
	var req models.ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	raw := req.Skills
	if len(raw) == 0 {
		if strings.TrimSpace(req.Text) == "" {
			return badRequest(c, "either skills or text is required")
		}
		raw = skills.SplitSkillText(req.Text)
	}

	result := h.extractor.ExtractFromRaw(req.CVID, raw)

	return c.JSON(fiber.Map{
		"cv_id":              result.CVID,
		"normalized_skills":  result.NormalizedSkills,
		"unknown_skills":     result.UnknownSkills,
		"dictionary_version": result.DictionaryVersion,
		"stats":              result.Stats(),
	})
}

func (h *SkillsHandler) HandleDictionary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version":         h.dict.Version(),
		"updated_at":      h.dict.UpdatedAt(),
		"domains":         h.dict.Domains(),
		"canonical_count": h.dict.CanonicalCount(),
		"alias_count":     h.dict.AliasCount(),
	})
}
