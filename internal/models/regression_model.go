package models

import (
	"fmt"
	"time"
)

// GeneralScope is the player scope of a model pooled across all players
const GeneralScope = "GENERAL"

// ModelKey uniquely identifies a persisted regression model
type ModelKey struct {
	PlayerScope string   `json:"player_scope"`
	StatType    StatType `json:"stat_type"`
	Season      string   `json:"season"`
}

// String renders the key as scope:stat:season
func (k ModelKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.PlayerScope, k.StatType, k.Season)
}

// Validate checks that every key component is set
func (k ModelKey) Validate() error {
	if k.PlayerScope == "" {
		return fmt.Errorf("model key: player scope is required")
	}
	if !k.StatType.Valid() {
		return fmt.Errorf("model key: invalid stat type %q", k.StatType)
	}
	if k.Season == "" {
		return fmt.Errorf("model key: season is required")
	}
	return nil
}

// Solver methods recorded on a trained model
const (
	SolverLU  = "lu"
	SolverSVD = "svd"
)

// ModelMetrics are goodness-of-fit statistics computed after fitting
type ModelMetrics struct {
	RSquared         float64 `json:"r_squared"`
	AdjustedRSquared float64 `json:"adjusted_r_squared"`
	RMSE             float64 `json:"rmse"`
	MAE              float64 `json:"mae"`
	StandardError    float64 `json:"standard_error"`
}

// RegressionModel is a fitted ridge model for one (scope, stat, season)
type RegressionModel struct {
	PlayerScope          string       `json:"player_scope"`
	StatType             StatType     `json:"stat_type"`
	Season               string       `json:"season"`
	Intercept            float64      `json:"intercept"`
	Coefficients         []float64    `json:"coefficients"`
	FeatureNames         []string     `json:"feature_names"`
	FeatureSchemaVersion string       `json:"feature_schema_version"`
	Metrics              ModelMetrics `json:"metrics"`
	TrainingDataSize     int          `json:"training_data_size"`
	LastTrained          time.Time    `json:"last_trained"`
	ResidualStdDev       float64      `json:"residual_standard_deviation"`
	Lambda               float64      `json:"lambda"`
	PenalizedIntercept   bool         `json:"penalized_intercept"`
	Solver               string       `json:"solver"`
}

// Key returns the composite key of the model
func (m *RegressionModel) Key() ModelKey {
	return ModelKey{PlayerScope: m.PlayerScope, StatType: m.StatType, Season: m.Season}
}

// ModelSummary is the listing view of a stored model without coefficients
type ModelSummary struct {
	ModelKey
	FeatureSchemaVersion string    `json:"feature_schema_version"`
	RSquared             float64   `json:"r_squared"`
	RMSE                 float64   `json:"rmse"`
	TrainingDataSize     int       `json:"training_data_size"`
	LastTrained          time.Time `json:"last_trained"`
}
