package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/prop-projector/internal/models"
)

// CachedStore is a read-through redis cache in front of another ModelStore.
// Redis failures are logged and the backing store answers instead.
type CachedStore struct {
	backing ModelStore
	client  *redis.Client
	ttl     time.Duration
	logger  *logrus.Logger
}

func NewCachedStore(backing ModelStore, client *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedStore{backing: backing, client: client, ttl: ttl, logger: log}
}

// ModelCacheKey is the redis key for one model
func ModelCacheKey(key models.ModelKey) string {
	return fmt.Sprintf("regression_model:%s", key)
}

func (s *CachedStore) Save(ctx context.Context, model *models.RegressionModel) error {
	if err := s.backing.Save(ctx, model); err != nil {
		return err
	}
	s.invalidate(ctx, model.Key())
	return nil
}

func (s *CachedStore) Load(ctx context.Context, key models.ModelKey) (*models.RegressionModel, bool, error) {
	cacheKey := ModelCacheKey(key)

	data, err := s.client.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var model models.RegressionModel
		jsonErr := json.Unmarshal(data, &model)
		if jsonErr == nil {
			return &model, true, nil
		}
		s.logger.WithError(jsonErr).WithField("cache_key", cacheKey).Warn("Discarding undecodable cached model")
	case !errors.Is(err, redis.Nil):
		s.logger.WithError(err).WithField("cache_key", cacheKey).Warn("Model cache read failed, using backing store")
	}

	model, found, err := s.backing.Load(ctx, key)
	if err != nil || !found {
		return model, found, err
	}

	payload, err := json.Marshal(model)
	if err == nil {
		err = s.client.Set(ctx, cacheKey, payload, s.ttl).Err()
	}
	if err != nil {
		s.logger.WithError(err).WithField("cache_key", cacheKey).Warn("Failed to cache model")
	}
	return model, true, nil
}

func (s *CachedStore) Exists(ctx context.Context, key models.ModelKey) (bool, error) {
	n, err := s.client.Exists(ctx, ModelCacheKey(key)).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	return s.backing.Exists(ctx, key)
}

func (s *CachedStore) List(ctx context.Context, filter ListFilter) ([]models.ModelSummary, error) {
	return s.backing.List(ctx, filter)
}

func (s *CachedStore) Delete(ctx context.Context, key models.ModelKey) error {
	if err := s.backing.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, key models.ModelKey) {
	if err := s.client.Del(ctx, ModelCacheKey(key)).Err(); err != nil {
		s.logger.WithError(err).WithField("cache_key", ModelCacheKey(key)).Warn("Failed to invalidate cached model")
	}
}
