package handlers

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/services"
)

type AvailabilityReader interface {
	Get(ctx context.Context, resID int64) (*models.ProfileAvailability, error)
	GetMany(ctx context.Context, resIDs []int64) ([]models.ProfileAvailability, error)
	Stats(ctx context.Context) (*services.AvailabilityStats, error)
	RefreshFromFile(ctx context.Context, path string) (services.LoadResult, error)
	RefreshFromReader(ctx context.Context, r io.Reader) (services.LoadResult, error)
}

type AvailabilityHandler struct {
	availability AvailabilityReader
	csvPath      string
}

func NewAvailabilityHandler(availability AvailabilityReader, csvPath string) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, csvPath: csvPath}
}

func (h *AvailabilityHandler) HandleGet(c *fiber.Ctx) error {
	resID, err := strconv.ParseInt(c.Params("res_id"), 10, 64)
	if err != nil || resID <= 0 {
		return badRequest(c, "res_id must be a positive integer")
	}

	record, err := h.availability.Get(c.UserContext(), resID)
	if err != nil {
		return respondError(c, err)
	}
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "availability not found",
		})
	}
	return c.JSON(record)
}

func (h *AvailabilityHandler) HandleBulk(c *fiber.Ctx) error {
	var req models.BulkAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if ok, err := validateRequest(c, &req); !ok {
		return err
	}

	records, err := h.availability.GetMany(c.UserContext(), req.ResIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"results": records,
		"total":   len(records),
	})
}

func (h *AvailabilityHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.availability.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// HandleRefresh reloads the availability cache from a CSV export.
func (h *AvailabilityHandler) HandleRefresh(c *fiber.Ctx) error {
	var req models.AvailabilityRefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}

	var (
		result services.LoadResult
		err    error
	)
	switch {
	case req.CSVContent != "":
		result, err = h.availability.RefreshFromReader(c.UserContext(), strings.NewReader(req.CSVContent))
	case req.CSVPath != "":
		result, err = h.availability.RefreshFromFile(c.UserContext(), req.CSVPath)
	case h.csvPath != "":
		result, err = h.availability.RefreshFromFile(c.UserContext(), h.csvPath)
	default:
		return badRequest(c, "no CSV source configured")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
