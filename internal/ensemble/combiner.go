package ensemble

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

const (
	baseHeuristicWeight = 0.7
	heuristicSDScale    = 0.3
	confidenceShift     = 0.1

	lowRiskUncertainty    = 2.0
	mediumRiskUncertainty = 4.0
)

// Factor keys attached to every result
const (
	FactorHeuristicWeight  = "heuristic_weight"
	FactorRegressionWeight = "regression_weight"
	FactorHeuristicValue   = "heuristic_value"
	FactorRegressionValue  = "regression_value"
	FactorHeuristicSD      = "heuristic_sd"
	FactorRegressionSD     = "regression_sd"
	FactorModelConfidence  = "model_confidence"
)

// Weights are the blend proportions; they always sum to 1
type Weights struct {
	Heuristic  float64 `json:"heuristic"`
	Regression float64 `json:"regression"`
}

// Combiner blends a heuristic projection with a regression prediction. It is
// stateless and never fails; anything it cannot blend falls back to the heuristic.
type Combiner struct {
	logger *logrus.Logger
	now    func() time.Time
}

func NewCombiner(log *logrus.Logger) *Combiner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Combiner{logger: log, now: time.Now}
}

// WithClock overrides the clock used for GeneratedAt
func (c *Combiner) WithClock(now func() time.Time) *Combiner {
	c.now = now
	return c
}

// Combine merges the heuristic projection with the prediction. A nil prediction
// passes the heuristic through.
func (c *Combiner) Combine(req models.ProjectionRequest, heuristic models.HeuristicProjection, reg *models.Prediction) models.ProjectionResult {
	if reg == nil {
		return c.heuristicOnly(req, heuristic)
	}

	weights := DynamicWeights(heuristic.ConfidenceScore, reg.ModelConfidence)
	value := weights.Heuristic*heuristic.ProjectedValue + weights.Regression*reg.PredictedValue

	heuristicSD := HeuristicStdDev(heuristic)
	uncertainty := math.Sqrt(heuristicSD*heuristicSD + reg.StandardDeviation*reg.StandardDeviation)
	confidence := clamp01(0.6*heuristic.ConfidenceScore + 0.4*reg.ModelConfidence)

	edge := 0.0
	if req.HasLine() {
		edge = value - *req.MarketLine
	}

	if !finite(value, uncertainty, confidence, edge) {
		c.logger.WithFields(logrus.Fields{
			"player_id":        req.PlayerID,
			"stat_type":        req.StatType,
			"heuristic_value":  heuristic.ProjectedValue,
			"regression_value": reg.PredictedValue,
			"regression_sd":    reg.StandardDeviation,
		}).Warn("Non-finite ensemble output, falling back to heuristic projection")
		return c.heuristicOnly(req, heuristic)
	}

	factors := copyFactors(heuristic.Factors)
	factors[FactorHeuristicWeight] = weights.Heuristic
	factors[FactorRegressionWeight] = weights.Regression
	factors[FactorHeuristicValue] = heuristic.ProjectedValue
	factors[FactorRegressionValue] = reg.PredictedValue
	factors[FactorHeuristicSD] = heuristicSD
	factors[FactorRegressionSD] = reg.StandardDeviation
	factors[FactorModelConfidence] = reg.ModelConfidence

	return models.ProjectionResult{
		ProjectedValue:  value,
		ConfidenceScore: confidence,
		RiskLevel:       RiskFor(uncertainty),
		Edge:            edge,
		Recommendation:  Recommend(req.HasLine(), edge, uncertainty),
		Uncertainty:     uncertainty,
		Factors:         factors,
		Source:          models.SourceEnsemble,
		GeneratedAt:     c.now().UTC(),
	}
}

// heuristicOnly passes the heuristic through; without a market line there is
// nothing to bet against, so edge is 0 and the label is PASS.
func (c *Combiner) heuristicOnly(req models.ProjectionRequest, heuristic models.HeuristicProjection) models.ProjectionResult {
	factors := copyFactors(heuristic.Factors)
	factors[FactorRegressionWeight] = 0
	factors[FactorRegressionValue] = 0

	uncertainty := HeuristicStdDev(heuristic)
	if !finite(uncertainty) {
		uncertainty = 0
	}

	edge, recommendation := heuristic.Edge, heuristic.Recommendation
	if !req.HasLine() {
		edge, recommendation = 0, models.RecommendPass
	}

	return models.ProjectionResult{
		ProjectedValue:  heuristic.ProjectedValue,
		ConfidenceScore: heuristic.ConfidenceScore,
		RiskLevel:       heuristic.RiskLevel,
		Edge:            edge,
		Recommendation:  recommendation,
		Uncertainty:     uncertainty,
		Factors:         factors,
		Source:          models.SourceHeuristic,
		GeneratedAt:     c.now().UTC(),
	}
}

// DynamicWeights shifts weight toward whichever source is more confident
func DynamicWeights(heuristicConfidence, modelConfidence float64) Weights {
	h := baseHeuristicWeight
	switch {
	case modelConfidence > 0.8:
		h = 0.5
	case modelConfidence < 0.5:
		h = 0.8
	}
	r := 1 - h

	switch {
	case heuristicConfidence > 0.8:
		h += confidenceShift
		r -= confidenceShift
	case heuristicConfidence < 0.5:
		h -= confidenceShift
		r += confidenceShift
	}

	h = math.Max(0, h)
	r = math.Max(0, r)
	total := h + r
	if total == 0 {
		return Weights{Heuristic: 1}
	}
	return Weights{Heuristic: h / total, Regression: r / total}
}

// HeuristicStdDev is the standard deviation implied by the heuristic's confidence
func HeuristicStdDev(h models.HeuristicProjection) float64 {
	return (1 - h.ConfidenceScore) * h.ProjectedValue * heuristicSDScale
}

// RiskFor buckets an uncertainty into a risk level
func RiskFor(uncertainty float64) models.RiskLevel {
	switch {
	case uncertainty < lowRiskUncertainty:
		return models.RiskLow
	case uncertainty < mediumRiskUncertainty:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// Recommend labels the edge against its uncertainty. Without a line, or with an
// edge inside one uncertainty unit, the answer is PASS.
func Recommend(hasLine bool, edge, uncertainty float64) models.Recommendation {
	if !hasLine || edge == 0 {
		return models.RecommendPass
	}
	if uncertainty > 0 && math.Abs(edge)/uncertainty < 1 {
		return models.RecommendPass
	}
	if edge > 0 {
		return models.RecommendOver
	}
	return models.RecommendUnder
}

func copyFactors(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in)+7)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
