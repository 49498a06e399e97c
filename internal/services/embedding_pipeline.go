package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/skills"
)

const (
	DefaultEmbeddingBatchSize = 100
	unknownDomain             = "unknown"
	unknownSeniority          = "unknown"
)

// pointNamespace scopes the name-based UUIDs derived from logical point keys.
var pointNamespace = uuid.MustParse("6f1b3c2e-8a4d-5e7f-9b0c-1d2e3f4a5b6c")

// PointID maps a logical point key such as "<cv_id>_skills" to the UUID the
// vector store addresses it by. The mapping is stable across runs.
func PointID(key string) string {
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

func SkillsPointKey(cvID string) string {
	return cvID + "_skills"
}

func ExperiencePointKey(cvID string, position int) string {
	return cvID + "_exp_" + strconv.Itoa(position)
}

// IndexCounts reports the points one profile produced.
type IndexCounts struct {
	Skills      int `json:"cv_skills"`
	Experiences int `json:"cv_experiences"`
	Total       int `json:"total"`
}

type PipelineConfig struct {
	SkillsCollection     string
	ExperienceCollection string
	BatchSize            int
}

// EmbeddingPipeline turns a parsed profile and its extraction result into
// skill and experience points.
type EmbeddingPipeline struct {
	embedder Embedder
	store    VectorStore
	cfg      PipelineConfig
	now      func() time.Time
	logger   *zap.Logger
}

type PipelineOption func(*EmbeddingPipeline)

// WithClock replaces the clock used for created_at and for the duration of
// current roles.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *EmbeddingPipeline) { p.now = now }
}

func NewEmbeddingPipeline(embedder Embedder, store VectorStore, cfg PipelineConfig, logger *zap.Logger, opts ...PipelineOption) *EmbeddingPipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbeddingBatchSize
	}
	p := &EmbeddingPipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process embeds and stores the points of one profile. With dryRun the
// embeddings are still computed but nothing is written, so the counts match a
// live run for the same input.
func (p *EmbeddingPipeline) Process(ctx context.Context, profile *models.ParsedProfile, result *skills.ExtractionResult, dryRun bool) (IndexCounts, error) {
	createdAt := p.now().UTC()

	skillPoints, err := p.buildSkillPoints(ctx, profile, result, createdAt)
	if err != nil {
		return IndexCounts{}, err
	}

	expPoints, err := p.buildExperiencePoints(ctx, profile, result, createdAt)
	if err != nil {
		return IndexCounts{}, err
	}

	if !dryRun {
		if err := p.store.Upsert(ctx, p.cfg.SkillsCollection, skillPoints); err != nil {
			return IndexCounts{}, err
		}
		if err := p.store.Upsert(ctx, p.cfg.ExperienceCollection, expPoints); err != nil {
			return IndexCounts{}, err
		}
	}

	dryRunLabel := strconv.FormatBool(dryRun)
	PointsIndexed.WithLabelValues(p.cfg.SkillsCollection, dryRunLabel).Add(float64(len(skillPoints)))
	PointsIndexed.WithLabelValues(p.cfg.ExperienceCollection, dryRunLabel).Add(float64(len(expPoints)))

	counts := IndexCounts{
		Skills:      len(skillPoints),
		Experiences: len(expPoints),
		Total:       len(skillPoints) + len(expPoints),
	}
	p.logger.Info("profile indexed",
		zap.String("cv_id", profile.Metadata.CVID),
		zap.Int64("res_id", profile.Metadata.ResID),
		zap.Int("cv_skills", counts.Skills),
		zap.Int("cv_experiences", counts.Experiences),
		zap.Bool("dry_run", dryRun),
	)

	return counts, nil
}

func (p *EmbeddingPipeline) buildSkillPoints(ctx context.Context, profile *models.ParsedProfile, result *skills.ExtractionResult, createdAt time.Time) ([]Point, error) {
	names := DedupeSkills(result.NormalizedSkills)
	if len(names) == 0 {
		return nil, nil
	}

	vector, err := p.embedder.Embed(ctx, strings.Join(names, ", "))
	if err != nil {
		return nil, err
	}

	cvID := profile.Metadata.CVID
	key := SkillsPointKey(cvID)
	return []Point{{
		ID:     PointID(key),
		Vector: vector,
		Payload: map[string]any{
			"point_key":          key,
			"cv_id":              cvID,
			"res_id":             profile.Metadata.ResID,
			"section_type":       "skills",
			"normalized_skills":  names,
			"skill_domain":       PrimaryDomain(result.NormalizedSkills),
			"seniority_bucket":   unknownSeniority,
			"dictionary_version": result.DictionaryVersion,
			"created_at":         createdAt.Format(time.RFC3339),
		},
	}}, nil
}

type experienceCandidate struct {
	position int
	text     string
	item     models.ExperienceItem
}

func (p *EmbeddingPipeline) buildExperiencePoints(ctx context.Context, profile *models.ParsedProfile, result *skills.ExtractionResult, createdAt time.Time) ([]Point, error) {
	candidates := make([]experienceCandidate, 0, len(profile.Experiences))
	for i, exp := range profile.Experiences {
		text := strings.TrimSpace(exp.Description)
		if text == "" {
			continue
		}
		candidates = append(candidates, experienceCandidate{position: i, text: text, item: exp})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	cvID := profile.Metadata.CVID
	related := DedupeSkills(result.NormalizedSkills)
	now := p.now()

	points := make([]Point, 0, len(candidates))
	for start := 0; start < len(candidates); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(candidates))
		batch := candidates[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.text
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) < len(batch) {
			p.logger.Warn("embedding count mismatch",
				zap.String("cv_id", cvID),
				zap.Int("requested", len(batch)),
				zap.Int("returned", len(vectors)),
			)
		}

		for i, vector := range vectors {
			if i >= len(batch) {
				break
			}
			c := batch[i]
			key := ExperiencePointKey(cvID, c.position)

			var years any
			if y, ok := ExperienceYears(c.item, now); ok {
				years = y
			}

			points = append(points, Point{
				ID:     PointID(key),
				Vector: vector,
				Payload: map[string]any{
					"point_key":        key,
					"cv_id":            cvID,
					"res_id":           profile.Metadata.ResID,
					"section_type":     "experience",
					"related_skills":   related,
					"experience_years": years,
					"created_at":       createdAt.Format(time.RFC3339),
				},
			})
		}
	}

	return points, nil
}

// DedupeSkills returns canonical names with case and whitespace variants
// collapsed, keeping first-seen order.
func DedupeSkills(normalized []skills.NormalizedSkill) []string {
	seen := make(map[string]struct{}, len(normalized))
	names := make([]string, 0, len(normalized))
	for _, s := range normalized {
		name := strings.TrimSpace(s.Canonical)
		key := strings.ToLower(name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

// PrimaryDomain is the most frequent domain among normalized; ties go to the
// domain seen first.
func PrimaryDomain(normalized []skills.NormalizedSkill) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, s := range normalized {
		if s.Domain == "" {
			continue
		}
		if _, ok := counts[s.Domain]; !ok {
			order = append(order, s.Domain)
		}
		counts[s.Domain]++
	}

	best := unknownDomain
	bestCount := 0
	for _, d := range order {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}

// ExperienceYears is the whole-year length of an experience, computed as
// floor(days/365). Current roles without an end date are measured to now.
func ExperienceYears(item models.ExperienceItem, now time.Time) (int, bool) {
	if item.StartDate == nil {
		return 0, false
	}

	var end time.Time
	switch {
	case item.EndDate != nil:
		end = *item.EndDate
	case item.IsCurrent:
		end = now
	default:
		return 0, false
	}

	days := int(math.Floor(end.Sub(*item.StartDate).Hours() / 24))
	if days < 0 {
		return 0, false
	}
	return days / 365, true
}
