package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/profile-matcher/internal/apperrors"
	"alfredoptarigan/profile-matcher/internal/models"
)

type DocumentRepository interface {
	Create(document *models.Document) error
	FindByID(id uuid.UUID) (*models.Document, error)
	FindByIDs(ids []uuid.UUID) ([]models.Document, error)
	FindLatestByResID(resID int64) (*models.Document, error)
	FindPage(limit, offset int) ([]models.Document, error)
	Count() (int64, error)
	CountIndexed() (int64, error)
	MarkIndexed(id uuid.UUID, at time.Time) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create implements DocumentRepository.
func (d *documentRepository) Create(document *models.Document) error {
	if err := d.db.Create(document).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// FindByID implements DocumentRepository.
func (d *documentRepository) FindByID(id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := d.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeDocumentNotFound, "document %s not found", id)
		}

		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// FindByIDs implements DocumentRepository.
func (d *documentRepository) FindByIDs(ids []uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	if err := d.db.Where("id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}

	return docs, nil
}

// FindLatestByResID implements DocumentRepository.
func (d *documentRepository) FindLatestByResID(resID int64) (*models.Document, error) {
	var doc models.Document
	err := d.db.Where("res_id = ?", resID).Order("created_at DESC").First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeDocumentNotFound, "no CV found for res_id %d", resID)
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// FindPage implements DocumentRepository.
func (d *documentRepository) FindPage(limit, offset int) ([]models.Document, error) {
	var docs []models.Document
	err := d.db.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// Count implements DocumentRepository.
func (d *documentRepository) Count() (int64, error) {
	var count int64
	if err := d.db.Model(&models.Document{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// CountIndexed implements DocumentRepository.
func (d *documentRepository) CountIndexed() (int64, error) {
	var count int64
	if err := d.db.Model(&models.Document{}).Where("indexed_at IS NOT NULL").Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count indexed documents: %w", err)
	}
	return count, nil
}

// MarkIndexed implements DocumentRepository.
func (d *documentRepository) MarkIndexed(id uuid.UUID, at time.Time) error {
	result := d.db.Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"indexed_at": at,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark document indexed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NotFound(apperrors.CodeDocumentNotFound, "document %s not found", id)
	}

	return nil
}
