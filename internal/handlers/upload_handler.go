package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/repositories"
	"alfredoptarigan/profile-matcher/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	maxFileSize    int64
	logger         *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	maxFileSize int64,
	logger *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
		logger:         logger.Named("upload"),
	}
}

// HandleUpload stores a CV PDF ("cv" form file) for the resource in the
// "res_id" form field.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	resID, err := strconv.ParseInt(c.FormValue("res_id"), 10, 64)
	if err != nil || resID <= 0 {
		return badRequest(c, "res_id must be a positive integer")
	}

	cvFile, err := c.FormFile("cv")
	if err != nil {
		return badRequest(c, "no CV uploaded, send the PDF in the 'cv' field")
	}

	if cvFile.Size > h.maxFileSize {
		return badRequest(c, "CV file too large. Max size: %d bytes", h.maxFileSize)
	}

	stored, err := h.storageService.SaveCV(cvFile, resID)
	if err != nil {
		return respondError(c, err)
	}

	doc := models.Document{
		ID:               uuid.New(),
		ResID:            resID,
		CVID:             services.BuildCVID(cvFile.Filename),
		Filename:         stored.FileName,
		OriginalFileName: cvFile.Filename,
		FilePath:         stored.Path,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := h.docRepo.Create(&doc); err != nil {
		// Cleanup uploaded file if database insert fails
		if delErr := h.storageService.Delete(stored.FileName); delErr != nil {
			h.logger.Warn("failed to remove orphan upload", zap.String("file", stored.FileName), zap.Error(delErr))
		}
		return respondError(c, err)
	}

	h.logger.Info("cv uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.Int64("res_id", resID),
		zap.String("cv_id", doc.CVID),
		zap.Int64("bytes", stored.Size),
	)

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		ID:           doc.ID.String(),
		ResID:        doc.ResID,
		CVID:         doc.CVID,
		Filename:     doc.Filename,
		OriginalName: doc.OriginalFileName,
	})
}
