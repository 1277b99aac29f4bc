package store

import (
	"context"
	"sort"
	"sync"

	"github.com/stitts-dev/prop-projector/internal/models"
)

// MemoryStore keeps models in a map. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	models map[models.ModelKey]*models.RegressionModel
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{models: make(map[models.ModelKey]*models.RegressionModel)}
}

func (s *MemoryStore) Save(ctx context.Context, model *models.RegressionModel) error {
	if err := model.Key().Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[model.Key()] = cloneModel(model)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key models.ModelKey) (*models.RegressionModel, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[key]
	if !ok {
		return nil, false, nil
	}
	return cloneModel(m), true, nil
}

func (s *MemoryStore) Exists(ctx context.Context, key models.ModelKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.models[key]
	return ok, nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]models.ModelSummary, error) {
	s.mu.RLock()
	out := make([]models.ModelSummary, 0, len(s.models))
	for key, m := range s.models {
		if filter.matches(key) {
			out = append(out, summaryOf(m))
		}
	}
	s.mu.RUnlock()

	sortSummaries(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key models.ModelKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.models, key)
	return nil
}

// sortSummaries orders by scope, stat, then season, matching the gorm ordering
func sortSummaries(list []models.ModelSummary) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.PlayerScope != b.PlayerScope {
			return a.PlayerScope < b.PlayerScope
		}
		if a.StatType != b.StatType {
			return a.StatType < b.StatType
		}
		return a.Season < b.Season
	})
}
