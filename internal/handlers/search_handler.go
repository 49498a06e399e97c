package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/profile-matcher/internal/models"
)

type SkillSearcher interface {
	Search(ctx context.Context, rawSkills []string, filters models.SearchFilters, limit, offset int) (*models.SearchResponse, error)
}

type SearchHandler struct {
	searcher     SkillSearcher
	defaultLimit int
}

func NewSearchHandler(searcher SkillSearcher, defaultLimit int) *SearchHandler {
	return &SearchHandler{searcher: searcher, defaultLimit: defaultLimit}
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if ok, err := validateRequest(c, &req); !ok {
		return err
	}

	limit := h.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	var filters models.SearchFilters
	if req.Filters != nil {
		mode, ok := models.ParseAvailabilityMode(req.Filters.Availability)
		if !ok {
			return badRequest(c, "unknown availability mode %q", req.Filters.Availability)
		}
		filters = models.SearchFilters{
			ResIDs:           req.Filters.ResIDs,
			SkillDomains:     req.Filters.SkillDomains,
			Seniorities:      req.Filters.Seniorities,
			AvailabilityMode: mode,
		}
	}

	resp, err := h.searcher.Search(c.UserContext(), req.Skills, filters, limit, req.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(resp)
}
