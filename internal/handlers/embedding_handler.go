package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/services"
)

type JobService interface {
	CreateSingle(documentID uuid.UUID, dryRun bool) (*models.EmbeddingJob, error)
	CreateAll(batchSize int, dryRun bool) (*models.EmbeddingJob, error)
	CreateBatch(documentIDs []uuid.UUID, dryRun bool) (*models.EmbeddingJob, error)
	CreateForResource(resID int64, dryRun bool) (*models.EmbeddingJob, error)
	Status(jobID uuid.UUID) (*models.JobStatusResponse, error)
	Stats() (*services.IndexingStats, error)
}

type JobQueue interface {
	EnqueueJob(jobID uuid.UUID)
}

type EmbeddingHandler struct {
	jobs  JobService
	queue JobQueue
}

func NewEmbeddingHandler(jobs JobService, queue JobQueue) *EmbeddingHandler {
	return &EmbeddingHandler{jobs: jobs, queue: queue}
}

func (h *EmbeddingHandler) accepted(c *fiber.Ctx, job *models.EmbeddingJob) error {
	h.queue.EnqueueJob(job.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.TriggerResponse{
		ID:     job.ID.String(),
		Status: string(job.Status),
		Kind:   string(job.Kind),
	})
}

// HandleTriggerAll queues indexing of every stored CV.
func (h *EmbeddingHandler) HandleTriggerAll(c *fiber.Ctx) error {
	var req models.TriggerAllRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	if ok, err := validateRequest(c, &req); !ok {
		return err
	}

	job, err := h.jobs.CreateAll(req.BatchSize, req.DryRun)
	if err != nil {
		return respondError(c, err)
	}
	return h.accepted(c, job)
}

func (h *EmbeddingHandler) HandleTriggerBatch(c *fiber.Ctx) error {
	var req models.TriggerBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if ok, err := validateRequest(c, &req); !ok {
		return err
	}

	ids := make([]uuid.UUID, 0, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid document id %q", raw)
		}
		ids = append(ids, id)
	}

	job, err := h.jobs.CreateBatch(ids, req.DryRun)
	if err != nil {
		return respondError(c, err)
	}
	return h.accepted(c, job)
}

func (h *EmbeddingHandler) HandleTriggerDocument(c *fiber.Ctx) error {
	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid document ID format")
	}

	job, err := h.jobs.CreateSingle(documentID, c.QueryBool("dry_run", false))
	if err != nil {
		return respondError(c, err)
	}
	return h.accepted(c, job)
}

// HandleTriggerResource queues indexing of the latest CV of a resource.
func (h *EmbeddingHandler) HandleTriggerResource(c *fiber.Ctx) error {
	resID, err := strconv.ParseInt(c.Params("res_id"), 10, 64)
	if err != nil || resID <= 0 {
		return badRequest(c, "res_id must be a positive integer")
	}

	job, err := h.jobs.CreateForResource(resID, c.QueryBool("dry_run", false))
	if err != nil {
		return respondError(c, err)
	}
	return h.accepted(c, job)
}

func (h *EmbeddingHandler) HandleStatus(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID format")
	}

	status, err := h.jobs.Status(jobID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (h *EmbeddingHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.jobs.Stats()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
