package models

import "time"

// RiskLevel buckets the combined uncertainty
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Recommendation is the rule-derived label against the market line
type Recommendation string

const (
	RecommendOver  Recommendation = "OVER"
	RecommendUnder Recommendation = "UNDER"
	RecommendPass  Recommendation = "PASS"
)

// Projection sources
const (
	SourceHeuristic = "heuristic"
	SourceEnsemble  = "ensemble"
)

// Interval is a symmetric band around a point estimate
type Interval struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the regression output for a single feature vector
type Prediction struct {
	PredictedValue     float64            `json:"predicted_value"`
	StandardDeviation  float64            `json:"standard_deviation"`
	ConfidenceInterval Interval           `json:"confidence_interval"`
	PredictionInterval Interval           `json:"prediction_interval"`
	FeatureImportance  map[string]float64 `json:"feature_importance"`
	ModelConfidence    float64            `json:"model_confidence"`
	ModelKey           ModelKey           `json:"model_key"`
}

// ProjectionRequest is what callers supply to get a projection
type ProjectionRequest struct {
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	StatType   StatType  `json:"stat_type"`
	Team       string    `json:"team"`
	Opponent   string    `json:"opponent"`
	IsHome     bool      `json:"is_home"`
	Season     string    `json:"season"`
	GameDate   time.Time `json:"game_date"`
	MarketLine *float64  `json:"market_line,omitempty"`
}

// HasLine reports whether a market line was supplied
func (r ProjectionRequest) HasLine() bool {
	return r.MarketLine != nil
}

// HeuristicProjection is produced by the external rules engine
type HeuristicProjection struct {
	ProjectedValue  float64            `json:"projected_value"`
	ConfidenceScore float64            `json:"confidence_score"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	Edge            float64            `json:"edge"`
	Recommendation  Recommendation     `json:"recommendation"`
	Factors         map[string]float64 `json:"factors,omitempty"`
}

// ProjectionResult is the externally visible output of the engine
type ProjectionResult struct {
	ID              string             `json:"id"`
	ProjectedValue  float64            `json:"projected_value"`
	ConfidenceScore float64            `json:"confidence_score"`
	RiskLevel       RiskLevel          `json:"risk_level"`
	Edge            float64            `json:"edge"`
	Recommendation  Recommendation     `json:"recommendation"`
	Uncertainty     float64            `json:"uncertainty"`
	Factors         map[string]float64 `json:"factors"`
	Source          string             `json:"source"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
