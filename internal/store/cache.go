package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"score-handler/internal/common/logger"
	"score-handler/internal/models"
)

const (
	profileKeyPrefix = "risk:profile:"
	planKeyPrefix    = "risk:plan:"
)

// CachedStore fronts a Store with Redis for per-user reads. Writes go to the
// backing store first and then refresh the cache. The reference population is
// never cached; it is read only on model rebuilds.
type CachedStore struct {
	Store
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(backing Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		Store:  backing,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "store-cache"}),
	}
}

func (c *CachedStore) GetUserRiskProfile(ctx context.Context, userID string) (*models.UserRiskProfile, error) {
	cacheKey := profileKeyPrefix + userID

	var cached models.UserRiskProfile
	if c.get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	p, err := c.Store.GetUserRiskProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, cacheKey, p)
	return p, nil
}

func (c *CachedStore) UpsertUserRiskProfile(ctx context.Context, profile *models.UserRiskProfile) error {
	if err := c.Store.UpsertUserRiskProfile(ctx, profile); err != nil {
		return err
	}
	c.set(ctx, profileKeyPrefix+profile.UserID, profile)
	return nil
}

func (c *CachedStore) GetAmortizationRecord(ctx context.Context, userID string) (*models.AmortizationRecord, error) {
	cacheKey := planKeyPrefix + userID

	var cached models.AmortizationRecord
	if c.get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	r, err := c.Store.GetAmortizationRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, cacheKey, r)
	return r, nil
}

func (c *CachedStore) UpsertAmortizationRecord(ctx context.Context, record *models.AmortizationRecord) error {
	if err := c.Store.UpsertAmortizationRecord(ctx, record); err != nil {
		return err
	}
	c.set(ctx, planKeyPrefix+record.UserID, record)
	return nil
}

func (c *CachedStore) get(ctx context.Context, key string, dest interface{}) bool {
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (c *CachedStore) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
