package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
	"alfredoptarigan/profile-matcher/internal/models"
)

const (
	DefaultAvailabilityPrefix = "profilebot:availability"
	DefaultAvailabilityTTL    = time.Hour
	scanBatchSize             = 500
)

// AvailabilityCache stores one availability record per resource under
// "<prefix>:<res_id>".
type AvailabilityCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewAvailabilityCache(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *AvailabilityCache {
	if prefix == "" {
		prefix = DefaultAvailabilityPrefix
	}
	if ttl <= 0 {
		ttl = DefaultAvailabilityTTL
	}
	return &AvailabilityCache{
		client: client,
		prefix: strings.TrimSuffix(prefix, ":"),
		ttl:    ttl,
		logger: logger.Named("availability_cache"),
	}
}

func (c *AvailabilityCache) key(resID int64) string {
	return c.prefix + ":" + strconv.FormatInt(resID, 10)
}

// Get returns the record for resID, or nil when none is cached.
func (c *AvailabilityCache) Get(ctx context.Context, resID int64) (*models.ProfileAvailability, error) {
	raw, err := c.client.Get(ctx, c.key(resID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err, "failed to read availability")
	}
	return c.decode(raw), nil
}

// GetMany returns the cached records of resIDs keyed by res_id. Missing and
// undecodable records are left out. Non-positive ids are ignored.
func (c *AvailabilityCache) GetMany(ctx context.Context, resIDs []int64) (map[int64]*models.ProfileAvailability, error) {
	keys := make([]string, 0, len(resIDs))
	for _, id := range resIDs {
		if id > 0 {
			keys = append(keys, c.key(id))
		}
	}
	if len(keys) == 0 {
		return map[int64]*models.ProfileAvailability{}, nil
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err, "failed to read availability")
	}
	return c.collect(values), nil
}

// ScanAll returns every cached record keyed by res_id.
func (c *AvailabilityCache) ScanAll(ctx context.Context) (map[int64]*models.ProfileAvailability, error) {
	records := make(map[int64]*models.ProfileAvailability)
	pattern := c.prefix + ":*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, unavailable(err, "failed to scan availability")
		}

		if len(keys) > 0 {
			values, err := c.client.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, unavailable(err, "failed to read availability")
			}
			for id, rec := range c.collect(values) {
				records[id] = rec
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return records, nil
}

// SetMany writes records with the cache TTL in one pipeline.
func (c *AvailabilityCache) SetMany(ctx context.Context, records []models.ProfileAvailability) error {
	if len(records) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return apperrors.Internal(err, "failed to encode availability for res_id %d", rec.ResID)
		}
		pipe.SetEx(ctx, c.key(rec.ResID), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable(err, "failed to write availability")
	}
	return nil
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, resID int64) error {
	if err := c.client.Del(ctx, c.key(resID)).Err(); err != nil {
		return unavailable(err, "failed to invalidate availability")
	}
	return nil
}

func (c *AvailabilityCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return unavailable(err, "redis ping failed")
	}
	return nil
}

func (c *AvailabilityCache) collect(values []interface{}) map[int64]*models.ProfileAvailability {
	records := make(map[int64]*models.ProfileAvailability, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if rec := c.decode(raw); rec != nil {
			records[rec.ResID] = rec
		}
	}
	return records
}

func (c *AvailabilityCache) decode(raw string) *models.ProfileAvailability {
	var rec models.ProfileAvailability
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		c.logger.Warn("invalid availability record", zap.Error(err))
		return nil
	}
	if rec.ResID <= 0 || !rec.Status.Valid() {
		c.logger.Warn("invalid availability record", zap.Int64("res_id", rec.ResID), zap.String("status", string(rec.Status)))
		return nil
	}
	return &rec
}

func unavailable(err error, msg string) error {
	return apperrors.Transient(apperrors.CodeCacheUnavailable, err, "%s", msg)
}
