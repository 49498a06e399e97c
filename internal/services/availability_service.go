package services

import (
	"context"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/models"
)

// AvailabilityStore is the cache the availability service reads and writes.
type AvailabilityStore interface {
	Get(ctx context.Context, resID int64) (*models.ProfileAvailability, error)
	GetMany(ctx context.Context, resIDs []int64) (map[int64]*models.ProfileAvailability, error)
	ScanAll(ctx context.Context) (map[int64]*models.ProfileAvailability, error)
	SetMany(ctx context.Context, records []models.ProfileAvailability) error
	Invalidate(ctx context.Context, resID int64) error
}

type AvailabilityStats struct {
	Total         int                               `json:"total"`
	ByStatus      map[models.AvailabilityStatus]int `json:"by_status"`
	LastUpdatedAt *time.Time                        `json:"last_updated_at,omitempty"`
}

type AvailabilityService struct {
	store  AvailabilityStore
	loader *AvailabilityLoader
	logger *zap.Logger
}

func NewAvailabilityService(store AvailabilityStore, loader *AvailabilityLoader, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		loader: loader,
		logger: logger.Named("availability"),
	}
}

func (s *AvailabilityService) Get(ctx context.Context, resID int64) (*models.ProfileAvailability, error) {
	return s.store.Get(ctx, resID)
}

// GetMany returns the cached records of resIDs in input order; ids without a
// record are omitted.
func (s *AvailabilityService) GetMany(ctx context.Context, resIDs []int64) ([]models.ProfileAvailability, error) {
	ids := positiveIDs(resIDs)
	if len(ids) == 0 {
		return []models.ProfileAvailability{}, nil
	}

	records, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProfileAvailability, 0, len(records))
	for _, id := range ids {
		if rec, ok := records[id]; ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// FilterResIDs keeps the ids whose cached status passes mode. Given ids keep
// their order; with no ids every cached resource is considered and the result
// is sorted. ModeAny returns resIDs unchanged.
func (s *AvailabilityService) FilterResIDs(ctx context.Context, resIDs []int64, mode models.AvailabilityMode) ([]int64, error) {
	ids := positiveIDs(resIDs)
	if mode == "" || mode == models.ModeAny {
		return ids, nil
	}

	var (
		records map[int64]*models.ProfileAvailability
		err     error
	)
	if len(ids) > 0 {
		records, err = s.store.GetMany(ctx, ids)
	} else {
		records, err = s.store.ScanAll(ctx)
		for id := range records {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	if err != nil {
		return nil, err
	}

	allowed := make([]int64, 0, len(ids))
	for _, id := range ids {
		if rec, ok := records[id]; ok && mode.Admits(rec.Status) {
			allowed = append(allowed, id)
		}
	}

	s.logger.Debug("availability filter resolved",
		zap.String("mode", string(mode)),
		zap.Int("candidates", len(ids)),
		zap.Int("allowed", len(allowed)),
	)
	return allowed, nil
}

func (s *AvailabilityService) Stats(ctx context.Context) (*AvailabilityStats, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &AvailabilityStats{
		Total:    len(records),
		ByStatus: make(map[models.AvailabilityStatus]int),
	}
	for _, rec := range records {
		stats.ByStatus[rec.Status]++
		if stats.LastUpdatedAt == nil || rec.UpdatedAt.After(*stats.LastUpdatedAt) {
			updated := rec.UpdatedAt
			stats.LastUpdatedAt = &updated
		}
	}
	return stats, nil
}

// RefreshFromFile loads the CSV at path into the cache.
func (s *AvailabilityService) RefreshFromFile(ctx context.Context, path string) (LoadResult, error) {
	records, result, err := s.loader.LoadFile(path)
	if err != nil {
		return LoadResult{}, err
	}
	return s.saveRecords(ctx, records, result)
}

// RefreshFromReader loads CSV content from r into the cache.
func (s *AvailabilityService) RefreshFromReader(ctx context.Context, r io.Reader) (LoadResult, error) {
	records, result, err := s.loader.Load(r)
	if err != nil {
		return LoadResult{}, err
	}
	return s.saveRecords(ctx, records, result)
}

// saveRecords replaces the cached snapshot: loaded records are written and
// resources missing from the load are evicted.
func (s *AvailabilityService) saveRecords(ctx context.Context, records []models.ProfileAvailability, result LoadResult) (LoadResult, error) {
	previous, err := s.store.ScanAll(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	if err := s.store.SetMany(ctx, records); err != nil {
		return LoadResult{}, err
	}

	loaded := make(map[int64]struct{}, len(records))
	for _, rec := range records {
		loaded[rec.ResID] = struct{}{}
	}
	for id := range previous {
		if _, ok := loaded[id]; ok {
			continue
		}
		if err := s.store.Invalidate(ctx, id); err != nil {
			return LoadResult{}, err
		}
		result.Evicted++
	}

	s.logger.Info("availability refreshed",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("loaded", result.Loaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("evicted", result.Evicted),
	)
	return result, nil
}

func positiveIDs(resIDs []int64) []int64 {
	ids := make([]int64, 0, len(resIDs))
	for _, id := range resIDs {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
