package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
	"alfredoptarigan/profile-matcher/internal/models"
	"alfredoptarigan/profile-matcher/internal/skills"
)

// noMatchResID never belongs to a resource; filtering on it yields no hits.
const noMatchResID int64 = -1

// MaxSearchWindow caps limit+offset, the number of candidates fetched from
// the vector store for one page.
const MaxSearchWindow = 10000

// AvailabilityFilter narrows resource ids to those whose availability passes
// a mode. With no ids it considers every cached resource.
type AvailabilityFilter interface {
	FilterResIDs(ctx context.Context, resIDs []int64, mode models.AvailabilityMode) ([]int64, error)
}

type SkillSearchService struct {
	normalizer   *skills.Normalizer
	embedder     Embedder
	store        VectorStore
	availability AvailabilityFilter
	collection   string
	weights      ScoreWeights
	logger       *zap.Logger
}

func NewSkillSearchService(
	normalizer *skills.Normalizer,
	embedder Embedder,
	store VectorStore,
	availability AvailabilityFilter,
	collection string,
	weights ScoreWeights,
	logger *zap.Logger,
) *SkillSearchService {
	return &SkillSearchService{
		normalizer:   normalizer,
		embedder:     embedder,
		store:        store,
		availability: availability,
		collection:   collection,
		weights:      weights,
		logger:       logger.Named("search"),
	}
}

// Search ranks profiles against the query skills. Terms that do not resolve
// to a dictionary skill are ignored; if none resolve the query is rejected.
func (s *SkillSearchService) Search(ctx context.Context, rawSkills []string, filters models.SearchFilters, limit, offset int) (*models.SearchResponse, error) {
	start := time.Now()

	resp, err := s.search(ctx, rawSkills, filters, limit, offset)

	SearchDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		SearchRequests.WithLabelValues("ok").Inc()
		resp.QueryTimeMS = time.Since(start).Milliseconds()
	case apperrors.IsValidation(err):
		SearchRequests.WithLabelValues("invalid").Inc()
	default:
		SearchRequests.WithLabelValues("error").Inc()
	}

	return resp, err
}

func (s *SkillSearchService) search(ctx context.Context, rawSkills []string, filters models.SearchFilters, limit, offset int) (*models.SearchResponse, error) {
	if limit < 0 || offset < 0 {
		return nil, apperrors.Validation(apperrors.CodeInvalidQuery, "limit and offset must be non-negative")
	}

	dict := s.normalizer.Dictionary()
	for _, domain := range filters.SkillDomains {
		if strings.TrimSpace(domain) != "" && !dict.HasDomain(domain) {
			return nil, apperrors.Validation(apperrors.CodeInvalidQuery, "unknown skill domain %q", domain).
				WithDetails("domains: " + strings.Join(dict.Domains(), ", "))
		}
	}

	query := s.normalizeQuery(rawSkills)
	if len(query) == 0 {
		return nil, apperrors.Validation(apperrors.CodeInvalidQuery, "no valid skill terms").
			WithDetails("skills: " + strings.Join(rawSkills, ", "))
	}

	vector, err := s.embedder.Embed(ctx, strings.Join(query, ", "))
	if err != nil {
		return nil, err
	}

	filter := s.buildFilter(ctx, filters)

	hits, err := s.store.Search(ctx, s.collection, vector, filter, searchWindow(limit, offset))
	if err != nil {
		return nil, err
	}

	matches := make([]models.ProfileMatch, 0, len(hits))
	for _, hit := range hits {
		match, ok := s.scoreHit(hit, query)
		if !ok {
			s.logger.Warn("malformed search hit", zap.String("point_id", hit.ID))
			continue
		}
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return len(matches[i].MatchedSkills) > len(matches[j].MatchedSkills)
	})

	total := len(matches)
	from := min(offset, total)
	to := from + min(limit, total-from)

	return &models.SearchResponse{
		Results: matches[from:to],
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// searchWindow returns limit+offset clamped to [1, MaxSearchWindow] without
// overflowing.
func searchWindow(limit, offset int) int {
	if offset >= MaxSearchWindow || limit >= MaxSearchWindow-offset {
		return MaxSearchWindow
	}
	return max(1, limit+offset)
}

// normalizeQuery resolves raw terms to canonical names, dropping unknown
// terms and duplicates.
func (s *SkillSearchService) normalizeQuery(rawSkills []string) []string {
	seen := make(map[string]struct{}, len(rawSkills))
	query := make([]string, 0, len(rawSkills))
	for _, raw := range rawSkills {
		skill, ok := s.normalizer.Normalize(raw)
		if !ok {
			s.logger.Debug("query term not in dictionary", zap.String("term", raw))
			continue
		}
		if _, dup := seen[skill.Canonical]; dup {
			continue
		}
		seen[skill.Canonical] = struct{}{}
		query = append(query, skill.Canonical)
	}
	return query
}

func (s *SkillSearchService) buildFilter(ctx context.Context, filters models.SearchFilters) *PointFilter {
	filter := &PointFilter{}

	resIDs := filters.ResIDs
	if len(resIDs) > 0 {
		filter.Must = append(filter.Must, FieldMatch{Key: "res_id", Integers: resIDs})
	}
	if domains := lowerAll(filters.SkillDomains); len(domains) > 0 {
		filter.Must = append(filter.Must, FieldMatch{Key: "skill_domain", Keywords: domains})
	}
	if seniorities := lowerAll(filters.Seniorities); len(seniorities) > 0 {
		filter.Must = append(filter.Must, FieldMatch{Key: "seniority_bucket", Keywords: seniorities})
	}

	mode := filters.AvailabilityMode
	if mode == "" || mode == models.ModeAny {
		return filter
	}
	if s.availability == nil {
		s.degradeAvailability(mode, errAvailabilityNotConfigured)
		return filter
	}

	allowed, err := s.availability.FilterResIDs(ctx, resIDs, mode)
	if err != nil {
		s.degradeAvailability(mode, err)
		return filter
	}
	if len(allowed) == 0 {
		allowed = []int64{noMatchResID}
	}
	filter.Must = append(filter.Must, FieldMatch{Key: "res_id", Integers: allowed})

	return filter
}

var errAvailabilityNotConfigured = errors.New("availability source not configured")

// degradeAvailability records a search that runs as if the mode were "any".
func (s *SkillSearchService) degradeAvailability(mode models.AvailabilityMode, err error) {
	AvailabilityDegraded.Inc()
	s.logger.Warn("availability filter skipped",
		zap.String("mode", string(mode)),
		zap.Error(err),
	)
}

func (s *SkillSearchService) scoreHit(hit ScoredPoint, query []string) (models.ProfileMatch, bool) {
	resID, _ := payloadInt(hit.Payload, "res_id")
	cvID, _ := payloadString(hit.Payload, "cv_id")
	if resID <= 0 || cvID == "" {
		return models.ProfileMatch{}, false
	}

	have := make(map[string]struct{})
	for _, name := range payloadStrings(hit.Payload, "normalized_skills") {
		have[strings.ToLower(name)] = struct{}{}
	}

	matched := make([]string, 0, len(query))
	missing := make([]string, 0, len(query))
	for _, q := range query {
		if _, ok := have[q]; ok {
			matched = append(matched, q)
		} else {
			missing = append(missing, q)
		}
	}

	domain, _ := payloadString(hit.Payload, "skill_domain")
	seniority, _ := payloadString(hit.Payload, "seniority_bucket")

	return models.ProfileMatch{
		ResID:         resID,
		CVID:          cvID,
		Score:         FinalScore(hit.Score, MatchRatio(matched, query), s.weights),
		MatchedSkills: matched,
		MissingSkills: missing,
		SkillDomain:   domain,
		Seniority:     seniority,
	}, true
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func payloadString(payload map[string]any, key string) (string, bool) {
	s, ok := payload[key].(string)
	return s, ok
}

func payloadInt(payload map[string]any, key string) (int64, bool) {
	switch v := payload[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

func payloadStrings(payload map[string]any, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
