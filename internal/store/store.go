package store

import (
	"context"
	"errors"

	"github.com/stitts-dev/prop-projector/internal/models"
)

// ErrModelNotFound is returned by callers that require a model to exist
var ErrModelNotFound = errors.New("regression model not found")

// ListFilter narrows List results; empty fields match everything
type ListFilter struct {
	PlayerScope string          `json:"player_scope,omitempty" form:"player_scope"`
	StatType    models.StatType `json:"stat_type,omitempty" form:"stat_type"`
	Season      string          `json:"season,omitempty" form:"season"`
	Limit       int             `json:"limit,omitempty" form:"limit"`
}

// ModelStore persists trained models keyed by (player scope, stat type, season).
// Save is a blind upsert; callers serialize writes per key.
type ModelStore interface {
	Save(ctx context.Context, model *models.RegressionModel) error
	// Load reports false on a miss; a miss is not an error
	Load(ctx context.Context, key models.ModelKey) (*models.RegressionModel, bool, error)
	Exists(ctx context.Context, key models.ModelKey) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]models.ModelSummary, error)
	Delete(ctx context.Context, key models.ModelKey) error
}

func summaryOf(m *models.RegressionModel) models.ModelSummary {
	return models.ModelSummary{
		ModelKey:             m.Key(),
		FeatureSchemaVersion: m.FeatureSchemaVersion,
		RSquared:             m.Metrics.RSquared,
		RMSE:                 m.Metrics.RMSE,
		TrainingDataSize:     m.TrainingDataSize,
		LastTrained:          m.LastTrained,
	}
}

func (f ListFilter) matches(key models.ModelKey) bool {
	if f.PlayerScope != "" && f.PlayerScope != key.PlayerScope {
		return false
	}
	if f.StatType != "" && f.StatType != key.StatType {
		return false
	}
	if f.Season != "" && f.Season != key.Season {
		return false
	}
	return true
}

func cloneModel(m *models.RegressionModel) *models.RegressionModel {
	out := *m
	out.Coefficients = append([]float64(nil), m.Coefficients...)
	out.FeatureNames = append([]string(nil), m.FeatureNames...)
	return &out
}
