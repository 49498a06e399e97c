package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/skills"
)

type memDocumentRepo struct {
	mu      sync.Mutex
	docs    []models.Document
	indexed map[uuid.UUID]time.Time
}

func newMemDocumentRepo(docs ...models.Document) *memDocumentRepo {
	return &memDocumentRepo{docs: docs, indexed: make(map[uuid.UUID]time.Time)}
}

func (r *memDocumentRepo) Create(doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, *doc)
	return nil
}

func (r *memDocumentRepo) FindByID(id uuid.UUID) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.docs {
		if r.docs[i].ID == id {
			doc := r.docs[i]
			return &doc, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeDocumentNotFound, "document %s not found", id)
}

func (r *memDocumentRepo) FindByIDs(ids []uuid.UUID) ([]models.Document, error) {
	var out []models.Document
	for _, id := range ids {
		if doc, err := r.FindByID(id); err == nil {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (r *memDocumentRepo) FindLatestByResID(resID int64) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Document
	for i := range r.docs {
		if r.docs[i].ResID == resID && (latest == nil || r.docs[i].CreatedAt.After(latest.CreatedAt)) {
			latest = &r.docs[i]
		}
	}
	if latest == nil {
		return nil, apperrors.NotFound(apperrors.CodeDocumentNotFound, "no document for res_id %d", resID)
	}
	doc := *latest
	return &doc, nil
}

func (r *memDocumentRepo) FindPage(limit, offset int) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset >= len(r.docs) {
		return nil, nil
	}
	end := min(offset+limit, len(r.docs))
	return append([]models.Document(nil), r.docs[offset:end]...), nil
}

func (r *memDocumentRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.docs)), nil
}

func (r *memDocumentRepo) CountIndexed() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.indexed)), nil
}

func (r *memDocumentRepo) MarkIndexed(id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed[id] = at
	return nil
}

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.EmbeddingJob
	// progress records every percentage written, in order.
	progress  []float64
	summary   map[uuid.UUID]*models.JobSummary
	resultErr error
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{
		jobs:    make(map[uuid.UUID]*models.EmbeddingJob),
		summary: make(map[uuid.UUID]*models.JobSummary),
	}
}

func (r *memJobRepo) Create(job *models.EmbeddingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memJobRepo) FindByID(id uuid.UUID) (*models.EmbeddingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeJobNotFound, "job %s not found", id)
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) with(id uuid.UUID, fn func(*models.EmbeddingJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return apperrors.NotFound(apperrors.CodeJobNotFound, "job %s not found", id)
	}
	fn(job)
	return nil
}

func (r *memJobRepo) UpdateStatus(id uuid.UUID, status models.JobStatus) error {
	return r.with(id, func(j *models.EmbeddingJob) { j.Status = status })
}

func (r *memJobRepo) UpdateProgress(id uuid.UUID, percentage float64) error {
	return r.with(id, func(j *models.EmbeddingJob) {
		j.Percentage = percentage
		r.progress = append(r.progress, percentage)
	})
}

func (r *memJobRepo) UpdateResult(id uuid.UUID, summary *models.JobSummary) error {
	if r.resultErr != nil {
		return r.resultErr
	}
	return r.with(id, func(j *models.EmbeddingJob) {
		j.Status = models.StatusCompleted
		j.Percentage = 100
		r.summary[id] = summary
		data, _ := json.Marshal(summary)
		result := string(data)
		j.Result = &result
	})
}

func (r *memJobRepo) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.with(id, func(j *models.EmbeddingJob) {
		j.Status = models.StatusFailed
		j.ErrorMessage = &errorMsg
	})
}

func (r *memJobRepo) IncrementAttempts(id uuid.UUID) error {
	return r.with(id, func(j *models.EmbeddingJob) { j.Attempts++ })
}

func (r *memJobRepo) FindPendingJobs(limit int) ([]models.EmbeddingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.EmbeddingJob
	for _, j := range r.jobs {
		if j.Status == models.StatusQueued && len(out) < limit {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

func (r *memJobRepo) CountByStatus() (map[models.JobStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.JobStatus]int64)
	for _, j := range r.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

// profileParserFunc adapts a function to ProfileParser.
type profileParserFunc func(path, originalName string, resID int64) (*models.ParsedProfile, error)

func (f profileParserFunc) ParseFile(path, originalName string, resID int64) (*models.ParsedProfile, error) {
	return f(path, originalName, resID)
}

func skillProfileParser(failPaths ...string) profileParserFunc {
	return func(path, originalName string, resID int64) (*models.ParsedProfile, error) {
		for _, p := range failPaths {
			if p == path {
				return nil, apperrors.Validation(apperrors.CodeInvalidInput, "no text in %s", path)
			}
		}
		return &models.ParsedProfile{
			Metadata: models.CVMetadata{CVID: BuildCVID(originalName), ResID: resID, FileName: originalName},
			Skills:   &models.SkillSection{Keywords: []string{"Python", "k8s", "cobol"}},
			Experiences: []models.ExperienceItem{
				{Description: "Built services"},
			},
		}, nil
	}
}

type jobFixture struct {
	svc      *EmbeddingJobService
	docs     *memDocumentRepo
	jobs     *memJobRepo
	store    *fakeVectorStore
	embedder *mockEmbedder
}

func newJobFixture(t *testing.T, parser ProfileParser, docs ...models.Document) *jobFixture {
	t.Helper()
	docRepo := newMemDocumentRepo(docs...)
	jobRepo := newMemJobRepo()
	store := newFakeVectorStore()
	embedder := &mockEmbedder{}
	pipeline := NewEmbeddingPipeline(embedder, store, PipelineConfig{
		SkillsCollection:     "cv_skills",
		ExperienceCollection: "cv_experiences",
	}, zap.NewNop())
	extractor := skills.NewExtractor(testNormalizer(t), zap.NewNop())

	svc := NewEmbeddingJobService(jobRepo, docRepo, parser, extractor, pipeline, fastPolicy(3), 2, zap.NewNop())
	return &jobFixture{svc: svc, docs: docRepo, jobs: jobRepo, store: store, embedder: embedder}
}

func document(resID int64, name string, created time.Time) models.Document {
	return models.Document{
		ID:               uuid.New(),
		ResID:            resID,
		CVID:             BuildCVID(name),
		Filename:         name,
		OriginalFileName: name,
		FilePath:         "/uploads/" + name,
		CreatedAt:        created,
	}
}

func TestEmbeddingJobs_SingleJobIndexesDocument(t *testing.T) {
	doc := document(12345, "mario.pdf", time.Now())
	f := newJobFixture(t, skillProfileParser(), doc)

	job, err := f.svc.CreateSingle(doc.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.JobSingle, job.Kind)
	assert.Equal(t, models.StatusQueued, job.Status)

	require.NoError(t, f.svc.Run(context.Background(), job.ID))

	stored, err := f.jobs.FindByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.Attempts)

	summary := f.jobs.summary[job.ID]
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.SkillPoints)
	assert.Equal(t, 1, summary.ExperiencePoints)
	assert.Equal(t, 2, summary.Total)

	skillPoint, ok := f.store.points["cv_skills"][PointID("mario_skills")]
	require.True(t, ok)
	assert.Equal(t, []string{"python", "kubernetes"}, skillPoint.Payload["normalized_skills"])
	assert.Contains(t, f.docs.indexed, doc.ID)
}

func TestEmbeddingJobs_DryRunLeavesStoreUntouched(t *testing.T) {
	doc := document(1, "dry.pdf", time.Now())
	f := newJobFixture(t, skillProfileParser(), doc)

	job, err := f.svc.CreateSingle(doc.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.svc.Run(context.Background(), job.ID))

	assert.Zero(t, f.store.upserts)
	assert.Empty(t, f.docs.indexed)
	summary := f.jobs.summary[job.ID]
	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.Total)
}

func TestEmbeddingJobs_SingleJobRetriesTransientFailures(t *testing.T) {
	doc := document(1, "flaky.pdf", time.Now())
	f := newJobFixture(t, skillProfileParser(), doc)
	calls := 0
	f.embedder.EmbedFunc = func(_ context.Context, text string) ([]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("503 from embedding API")
		}
		return deterministicVector(text), nil
	}

	job, err := f.svc.CreateSingle(doc.ID, false)
	require.NoError(t, err)
	require.NoError(t, f.svc.Run(context.Background(), job.ID))

	stored, _ := f.jobs.FindByID(job.ID)
	assert.Equal(t, 3, stored.Attempts)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestEmbeddingJobs_SingleJobRetriesBadFileThenFails(t *testing.T) {
	doc := document(1, "empty.pdf", time.Now())
	f := newJobFixture(t, skillProfileParser(doc.FilePath), doc)

	job, err := f.svc.CreateSingle(doc.ID, false)
	require.NoError(t, err)

	err = f.svc.Run(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	stored, _ := f.jobs.FindByID(job.ID)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "no text")
	assert.Zero(t, f.store.upserts)
}

func TestEmbeddingJobs_FailedResultSaveMarksJobFailed(t *testing.T) {
	doc := document(1, "mario.pdf", time.Now())
	f := newJobFixture(t, skillProfileParser(), doc)
	f.jobs.resultErr = errors.New("connection reset")

	job, err := f.svc.CreateSingle(doc.ID, false)
	require.NoError(t, err)

	err = f.svc.Run(context.Background(), job.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save results")

	stored, _ := f.jobs.FindByID(job.ID)
	assert.Equal(t, models.StatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "connection reset")
}

func TestEmbeddingJobs_BatchIsolatesFailures(t *testing.T) {
	good := document(1, "good.pdf", time.Now())
	bad := document(2, "bad.pdf", time.Now())
	f := newJobFixture(t, skillProfileParser(bad.FilePath), good, bad)
	unknown := uuid.New()

	job, err := f.svc.CreateBatch([]uuid.UUID{good.ID, bad.ID, unknown}, false)
	require.NoError(t, err)
	require.NoError(t, f.svc.Run(context.Background(), job.ID))

	summary := f.jobs.summary[job.ID]
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Errors, 2)
	assert.Equal(t, "bad.pdf", summary.Errors[0].File)
	assert.Equal(t, unknown.String(), summary.Errors[1].File)
	assert.InDelta(t, 100, f.jobs.progress[len(f.jobs.progress)-1], 1e-9)
}

func TestEmbeddingJobs_AllWalksEveryPage(t *testing.T) {
	var docs []models.Document
	for i := 1; i <= 5; i++ {
		docs = append(docs, document(int64(i), "cv"+strconv.Itoa(i)+".pdf", time.Now()))
	}
	f := newJobFixture(t, skillProfileParser(), docs...)

	job, err := f.svc.CreateAll(0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, job.BatchSize)
	require.NoError(t, f.svc.Run(context.Background(), job.ID))

	summary := f.jobs.summary[job.ID]
	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 5, f.store.count("cv_skills"))
	assert.Len(t, f.jobs.progress, 3)
}

func TestEmbeddingJobs_CreateForResourcePicksLatest(t *testing.T) {
	older := document(42, "old.pdf", time.Now().Add(-time.Hour))
	newer := document(42, "new.pdf", time.Now())
	f := newJobFixture(t, skillProfileParser(), older, newer)

	job, err := f.svc.CreateForResource(42, false)
	require.NoError(t, err)
	require.NoError(t, f.svc.Run(context.Background(), job.ID))

	assert.Contains(t, f.docs.indexed, newer.ID)
	assert.NotContains(t, f.docs.indexed, older.ID)

	_, err = f.svc.CreateForResource(7, false)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEmbeddingJobs_CreateBatchRequiresIDs(t *testing.T) {
	f := newJobFixture(t, skillProfileParser())

	_, err := f.svc.CreateBatch(nil, false)

	assert.True(t, apperrors.IsValidation(err))
}

func TestEmbeddingJobs_StatusAndStats(t *testing.T) {
	doc := document(1, "stats.pdf", time.Now())
	f := newJobFixture(t, skillProfileParser(), doc)

	job, err := f.svc.CreateSingle(doc.ID, false)
	require.NoError(t, err)
	require.NoError(t, f.svc.Run(context.Background(), job.ID))

	status, err := f.svc.Status(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", status.Status)
	require.NotNil(t, status.Result)
	assert.Equal(t, 1, status.Result.Processed)

	stats, err := f.svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Documents)
	assert.Equal(t, int64(1), stats.Indexed)
	assert.Equal(t, int64(1), stats.Jobs[models.StatusCompleted])

	_, err = f.svc.Status(uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
