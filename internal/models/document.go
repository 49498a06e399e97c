package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded CV file owned by a resource.
type Document struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ResID            int64      `gorm:"not null;index" json:"res_id"`
	CVID             string     `gorm:"type:text;not null;index" json:"cv_id"`
	Filename         string     `gorm:"type:text" json:"filename"`
	OriginalFileName string     `gorm:"type:text" json:"original_filename"`
	FilePath         string     `gorm:"type:text" json:"file_path"`
	IndexedAt        *time.Time `gorm:"type:timestamp" json:"indexed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
