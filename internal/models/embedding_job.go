package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

type JobKind string

const (
	// JobSingle indexes one CV document.
	JobSingle JobKind = "single"
	// JobBatch indexes an explicit list of CV documents.
	JobBatch JobKind = "batch"
	// JobAll indexes every stored CV document in chunks.
	JobAll JobKind = "all"
)

// EmbeddingJob tracks an asynchronous indexing request. Items and Result hold
// JSON documents (see JobItem and JobSummary).
type EmbeddingJob struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Kind         JobKind   `gorm:"type:text;not null" json:"kind"`
	Status       JobStatus `gorm:"not null;default:'queued'" json:"status"`
	Items        string    `gorm:"type:text" json:"-"`
	BatchSize    int       `gorm:"not null;default:500" json:"batch_size"`
	DryRun       bool      `gorm:"not null;default:false" json:"dry_run"`
	Attempts     int       `gorm:"not null;default:0" json:"attempts"`
	Percentage   float64   `gorm:"not null;default:0" json:"percentage"`
	Result       *string   `gorm:"type:text" json:"-"`
	ErrorMessage *string   `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (EmbeddingJob) TableName() string {
	return "embedding_jobs"
}

// JobItem identifies one CV document to index.
type JobItem struct {
	DocumentID uuid.UUID `json:"document_id"`
	ResID      int64     `json:"res_id"`
}

type JobItemError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// JobSummary is the outcome of a job, persisted as JSON in EmbeddingJob.Result.
type JobSummary struct {
	Processed        int            `json:"processed"`
	Failed           int            `json:"failed"`
	SkillPoints      int            `json:"cv_skills"`
	ExperiencePoints int            `json:"cv_experiences"`
	Total            int            `json:"total"`
	DryRun           bool           `json:"dry_run"`
	Errors           []JobItemError `json:"errors,omitempty"`
}

func (s *JobSummary) AddPoints(skills, experiences int) {
	s.SkillPoints += skills
	s.ExperiencePoints += experiences
	s.Total += skills + experiences
}
