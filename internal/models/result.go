package models

type UploadResponse struct {
	ID           string `json:"id"`
	ResID        int64  `json:"res_id"`
	CVID         string `json:"cv_id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
}

type SearchRequest struct {
	Skills  []string           `json:"skills" validate:"required,min=1,dive,required"`
	Filters *SearchFilterInput `json:"filters"`
	Limit   *int               `json:"limit" validate:"omitempty,min=0,max=100"`
	Offset  int                `json:"offset" validate:"min=0,max=10000"`
}

type SearchFilterInput struct {
	ResIDs       []int64  `json:"res_ids" validate:"omitempty,dive,gt=0"`
	SkillDomains []string `json:"skill_domains"`
	Seniorities  []string `json:"seniority"`
	Availability string   `json:"availability"`
}

type ExtractRequest struct {
	CVID   string   `json:"cv_id"`
	Skills []string `json:"skills"`
	Text   string   `json:"text"`
}

type TriggerBatchRequest struct {
	DocumentIDs []string `json:"document_ids" validate:"required,min=1,dive,uuid"`
	DryRun      bool     `json:"dry_run"`
}

type TriggerAllRequest struct {
	BatchSize int  `json:"batch_size" validate:"omitempty,min=1,max=5000"`
	DryRun    bool `json:"dry_run"`
}

type TriggerResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Kind   string `json:"kind"`
}

type JobStatusResponse struct {
	ID           string      `json:"id"`
	Kind         string      `json:"kind"`
	Status       string      `json:"status"`
	Percentage   float64     `json:"percentage"`
	Attempts     int         `json:"attempts"`
	Result       *JobSummary `json:"result,omitempty"`
	ErrorMessage *string     `json:"error_message,omitempty"`
}

type BulkAvailabilityRequest struct {
	ResIDs []int64 `json:"res_ids" validate:"required,min=1,dive,gt=0"`
}

// AvailabilityRefreshRequest reloads the cache from CSVContent when set,
// otherwise from CSVPath or the configured default path.
type AvailabilityRefreshRequest struct {
	CSVPath    string `json:"csv_path"`
	CSVContent string `json:"csv_content"`
}
