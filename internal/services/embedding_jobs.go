package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/repositories"
	"alfredoptarigan/profile-matcher/internal/skills"
)

const DefaultJobBatchSize = 500

// ProfileParser produces a structured profile from a stored CV file.
type ProfileParser interface {
	ParseFile(path, originalName string, resID int64) (*models.ParsedProfile, error)
}

// ProfileIndexer writes the points of one profile.
type ProfileIndexer interface {
	Process(ctx context.Context, profile *models.ParsedProfile, result *skills.ExtractionResult, dryRun bool) (IndexCounts, error)
}

// JobRunner executes a persisted embedding job.
type JobRunner interface {
	Run(ctx context.Context, jobID uuid.UUID) error
}

type EmbeddingJobService struct {
	jobRepo   repositories.EmbeddingJobRepository
	docRepo   repositories.DocumentRepository
	parser    ProfileParser
	extractor *skills.Extractor
	indexer   ProfileIndexer
	retry     RetryPolicy
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

func NewEmbeddingJobService(
	jobRepo repositories.EmbeddingJobRepository,
	docRepo repositories.DocumentRepository,
	parser ProfileParser,
	extractor *skills.Extractor,
	indexer ProfileIndexer,
	retry RetryPolicy,
	batchSize int,
	logger *zap.Logger,
) *EmbeddingJobService {
	if batchSize <= 0 {
		batchSize = DefaultJobBatchSize
	}
	return &EmbeddingJobService{
		jobRepo:   jobRepo,
		docRepo:   docRepo,
		parser:    parser,
		extractor: extractor,
		indexer:   indexer,
		retry:     retry,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger.Named("embedding_jobs"),
	}
}

// CreateSingle queues indexing of one document.
func (s *EmbeddingJobService) CreateSingle(documentID uuid.UUID, dryRun bool) (*models.EmbeddingJob, error) {
	doc, err := s.docRepo.FindByID(documentID)
	if err != nil {
		return nil, err
	}
	return s.create(models.JobSingle, []models.JobItem{{DocumentID: doc.ID, ResID: doc.ResID}}, 0, dryRun)
}

// CreateForResource queues indexing of the latest CV of a resource.
func (s *EmbeddingJobService) CreateForResource(resID int64, dryRun bool) (*models.EmbeddingJob, error) {
	doc, err := s.docRepo.FindLatestByResID(resID)
	if err != nil {
		return nil, err
	}
	return s.create(models.JobSingle, []models.JobItem{{DocumentID: doc.ID, ResID: doc.ResID}}, 0, dryRun)
}

func (s *EmbeddingJobService) CreateBatch(documentIDs []uuid.UUID, dryRun bool) (*models.EmbeddingJob, error) {
	if len(documentIDs) == 0 {
		return nil, apperrors.Validation(apperrors.CodeInvalidInput, "at least one document id is required")
	}

	items := make([]models.JobItem, 0, len(documentIDs))
	for _, id := range documentIDs {
		items = append(items, models.JobItem{DocumentID: id})
	}
	return s.create(models.JobBatch, items, 0, dryRun)
}

func (s *EmbeddingJobService) CreateAll(batchSize int, dryRun bool) (*models.EmbeddingJob, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}
	return s.create(models.JobAll, nil, batchSize, dryRun)
}

func (s *EmbeddingJobService) create(kind models.JobKind, items []models.JobItem, batchSize int, dryRun bool) (*models.EmbeddingJob, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job items: %w", err)
	}

	job := &models.EmbeddingJob{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    models.StatusQueued,
		Items:     string(data),
		BatchSize: max(batchSize, 1),
		DryRun:    dryRun,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}

	s.logger.Info("embedding job queued",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(kind)),
		zap.Int("items", len(items)),
		zap.Bool("dry_run", dryRun),
	)
	return job, nil
}

// Status returns a job with its decoded summary.
func (s *EmbeddingJobService) Status(jobID uuid.UUID) (*models.JobStatusResponse, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, err
	}

	resp := &models.JobStatusResponse{
		ID:           job.ID.String(),
		Kind:         string(job.Kind),
		Status:       string(job.Status),
		Percentage:   job.Percentage,
		Attempts:     job.Attempts,
		ErrorMessage: job.ErrorMessage,
	}
	if job.Result != nil && *job.Result != "" {
		var summary models.JobSummary
		if err := json.Unmarshal([]byte(*job.Result), &summary); err != nil {
			s.logger.Warn("invalid job summary", zap.String("job_id", job.ID.String()), zap.Error(err))
		} else {
			resp.Result = &summary
		}
	}
	return resp, nil
}

type IndexingStats struct {
	Documents int64                      `json:"documents"`
	Indexed   int64                      `json:"indexed"`
	Jobs      map[models.JobStatus]int64 `json:"jobs"`
}

func (s *EmbeddingJobService) Stats() (*IndexingStats, error) {
	documents, err := s.docRepo.Count()
	if err != nil {
		return nil, err
	}
	indexed, err := s.docRepo.CountIndexed()
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	return &IndexingStats{Documents: documents, Indexed: indexed, Jobs: jobs}, nil
}

// Run executes a queued job. Single jobs are retried within the policy;
// batch and all jobs record per-document failures and keep going.
func (s *EmbeddingJobService) Run(ctx context.Context, jobID uuid.UUID) error {
	start := time.Now()

	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return err
	}
	if err := s.jobRepo.UpdateStatus(jobID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	log := s.logger.With(zap.String("job_id", jobID.String()), zap.String("kind", string(job.Kind)))
	log.Info("embedding job started")

	var items []models.JobItem
	if job.Items != "" {
		if err := json.Unmarshal([]byte(job.Items), &items); err != nil {
			return s.fail(job, apperrors.Validation(apperrors.CodeInvalidInput, "invalid job items: %v", err))
		}
	}

	var summary *models.JobSummary
	switch job.Kind {
	case models.JobSingle:
		summary, err = s.runSingle(ctx, job, items)
	case models.JobBatch:
		summary, err = s.runBatch(ctx, job, items)
	case models.JobAll:
		summary, err = s.runAll(ctx, job)
	default:
		err = apperrors.Validation(apperrors.CodeInvalidInput, "unknown job kind %q", job.Kind)
	}
	if err != nil {
		return s.fail(job, err)
	}

	if err := s.jobRepo.UpdateResult(jobID, summary); err != nil {
		return s.fail(job, fmt.Errorf("failed to save results: %w", err))
	}

	EmbeddingJobsCompleted.WithLabelValues(string(job.Kind)).Inc()
	EmbeddingJobDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())
	log.Info("embedding job completed",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Int("total_points", summary.Total),
	)
	return nil
}

func (s *EmbeddingJobService) fail(job *models.EmbeddingJob, err error) error {
	EmbeddingJobsFailed.WithLabelValues(string(job.Kind), string(apperrors.KindOf(err))).Inc()
	if updateErr := s.jobRepo.UpdateError(job.ID, err.Error()); updateErr != nil {
		s.logger.Error("failed to record job error", zap.String("job_id", job.ID.String()), zap.Error(updateErr))
	}
	s.logger.Error("embedding job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	return err
}

func (s *EmbeddingJobService) runSingle(ctx context.Context, job *models.EmbeddingJob, items []models.JobItem) (*models.JobSummary, error) {
	if len(items) != 1 {
		return nil, apperrors.Validation(apperrors.CodeInvalidInput, "single job needs exactly one item, got %d", len(items))
	}

	doc, err := s.docRepo.FindByID(items[0].DocumentID)
	if err != nil {
		return nil, err
	}

	// A bad file or malformed profile is still retried up to the job budget.
	policy := s.retry
	policy.ShouldRetry = RetryAnyFailure

	var counts IndexCounts
	err = RetryWithBackoff(ctx, policy, func(ctx context.Context) error {
		if err := s.jobRepo.IncrementAttempts(job.ID); err != nil {
			s.logger.Warn("failed to count attempt", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		var err error
		counts, err = s.IndexDocument(ctx, doc, job.DryRun)
		return err
	})
	if err != nil {
		return nil, err
	}

	summary := &models.JobSummary{DryRun: job.DryRun, Processed: 1}
	summary.AddPoints(counts.Skills, counts.Experiences)
	return summary, nil
}

func (s *EmbeddingJobService) runBatch(ctx context.Context, job *models.EmbeddingJob, items []models.JobItem) (*models.JobSummary, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.DocumentID)
	}
	docs, err := s.docRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	summary := &models.JobSummary{DryRun: job.DryRun, Errors: []models.JobItemError{}}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, ok := byID[id]
		if !ok {
			summary.Failed++
			summary.Errors = append(summary.Errors, models.JobItemError{File: id.String(), Error: "document not found"})
		} else {
			s.indexInto(ctx, summary, &doc, job.DryRun)
		}
		s.progress(job.ID, i+1, len(ids))
	}
	return summary, nil
}

func (s *EmbeddingJobService) runAll(ctx context.Context, job *models.EmbeddingJob) (*models.JobSummary, error) {
	total, err := s.docRepo.Count()
	if err != nil {
		return nil, err
	}

	summary := &models.JobSummary{DryRun: job.DryRun, Errors: []models.JobItemError{}}
	done := 0
	for offset := 0; ; offset += job.BatchSize {
		docs, err := s.docRepo.FindPage(job.BatchSize, offset)
		if err != nil {
			return nil, err
		}

		for i := range docs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s.indexInto(ctx, summary, &docs[i], job.DryRun)
			done++
		}
		s.progress(job.ID, done, int(total))

		if len(docs) < job.BatchSize {
			break
		}
	}
	return summary, nil
}

// indexInto indexes one document and records the outcome in summary.
func (s *EmbeddingJobService) indexInto(ctx context.Context, summary *models.JobSummary, doc *models.Document, dryRun bool) {
	counts, err := s.IndexDocument(ctx, doc, dryRun)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, models.JobItemError{File: doc.OriginalFileName, Error: err.Error()})
		s.logger.Warn("document indexing failed",
			zap.String("document_id", doc.ID.String()),
			zap.String("file", doc.OriginalFileName),
			zap.Error(err),
		)
		return
	}
	summary.Processed++
	summary.AddPoints(counts.Skills, counts.Experiences)
}

func (s *EmbeddingJobService) progress(jobID uuid.UUID, done, total int) {
	pct := 100.0
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	if err := s.jobRepo.UpdateProgress(jobID, min(pct, 100)); err != nil {
		s.logger.Warn("failed to update progress", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

// IndexDocument parses, extracts and indexes one stored CV.
func (s *EmbeddingJobService) IndexDocument(ctx context.Context, doc *models.Document, dryRun bool) (IndexCounts, error) {
	profile, err := s.parser.ParseFile(doc.FilePath, doc.OriginalFileName, doc.ResID)
	if err != nil {
		return IndexCounts{}, err
	}
	if doc.CVID != "" {
		profile.Metadata.CVID = doc.CVID
	}

	counts, err := IndexProfile(ctx, s.extractor, s.indexer, profile, dryRun)
	if err != nil {
		return IndexCounts{}, err
	}

	if !dryRun {
		if err := s.docRepo.MarkIndexed(doc.ID, s.now()); err != nil {
			s.logger.Warn("failed to mark document indexed", zap.String("document_id", doc.ID.String()), zap.Error(err))
		}
	}
	return counts, nil
}

// IndexProfile extracts the skills of profile and indexes it.
func IndexProfile(ctx context.Context, extractor *skills.Extractor, indexer ProfileIndexer, profile *models.ParsedProfile, dryRun bool) (IndexCounts, error) {
	result := extractor.Extract(profile)
	for _, skill := range result.NormalizedSkills {
		SkillMatches.WithLabelValues(string(skill.MatchType)).Inc()
	}
	SkillMatches.WithLabelValues("unknown").Add(float64(len(result.UnknownSkills)))

	return indexer.Process(ctx, profile, result, dryRun)
}
