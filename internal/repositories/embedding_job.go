package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/profile-matcher/internal/apperrors"
	"alfredoptarigan/profile-matcher/internal/models"
)

type EmbeddingJobRepository interface {
	Create(job *models.EmbeddingJob) error
	FindByID(id uuid.UUID) (*models.EmbeddingJob, error)
	UpdateStatus(id uuid.UUID, status models.JobStatus) error
	UpdateProgress(id uuid.UUID, percentage float64) error
	UpdateResult(id uuid.UUID, summary *models.JobSummary) error
	UpdateError(id uuid.UUID, errorMsg string) error
	IncrementAttempts(id uuid.UUID) error
	FindPendingJobs(limit int) ([]models.EmbeddingJob, error)
	CountByStatus() (map[models.JobStatus]int64, error)
}

type embeddingJobRepository struct {
	db *gorm.DB
}

func NewEmbeddingJobRepository(db *gorm.DB) EmbeddingJobRepository {
	return &embeddingJobRepository{db: db}
}

func jobNotFound(id uuid.UUID) error {
	return apperrors.NotFound(apperrors.CodeJobNotFound, "embedding job %s not found", id)
}

func (r *embeddingJobRepository) Create(job *models.EmbeddingJob) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create embedding job: %w", err)
	}
	return nil
}

func (r *embeddingJobRepository) FindByID(id uuid.UUID) (*models.EmbeddingJob, error) {
	var job models.EmbeddingJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jobNotFound(id)
		}
		return nil, fmt.Errorf("failed to find embedding job: %w", err)
	}
	return &job, nil
}

func (r *embeddingJobRepository) update(id uuid.UUID, updates map[string]interface{}, action string) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.EmbeddingJob{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", action, result.Error)
	}

	if result.RowsAffected == 0 {
		return jobNotFound(id)
	}

	return nil
}

func (r *embeddingJobRepository) UpdateStatus(id uuid.UUID, status models.JobStatus) error {
	return r.update(id, map[string]interface{}{"status": status}, "status")
}

func (r *embeddingJobRepository) UpdateProgress(id uuid.UUID, percentage float64) error {
	return r.update(id, map[string]interface{}{"percentage": percentage}, "progress")
}

func (r *embeddingJobRepository) UpdateResult(id uuid.UUID, summary *models.JobSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode job summary: %w", err)
	}

	return r.update(id, map[string]interface{}{
		"status":     models.StatusCompleted,
		"percentage": 100.0,
		"result":     string(data),
	}, "result")
}

func (r *embeddingJobRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
	}, "error")
}

func (r *embeddingJobRepository) IncrementAttempts(id uuid.UUID) error {
	return r.update(id, map[string]interface{}{
		"attempts": gorm.Expr("attempts + ?", 1),
	}, "attempts")
}

func (r *embeddingJobRepository) FindPendingJobs(limit int) ([]models.EmbeddingJob, error) {
	var jobs []models.EmbeddingJob
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return jobs, nil
}

func (r *embeddingJobRepository) CountByStatus() (map[models.JobStatus]int64, error) {
	var rows []struct {
		Status models.JobStatus
		Count  int64
	}
	err := r.db.Model(&models.EmbeddingJob{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count embedding jobs: %w", err)
	}

	counts := make(map[models.JobStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
