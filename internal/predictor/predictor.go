package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/store"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

var (
	// ErrSchemaMismatch means the model was trained on a different feature layout
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrUnsupportedConfidence is returned for levels other than 0.90, 0.95 and 0.99
	ErrUnsupportedConfidence = errors.New("unsupported confidence level")
)

// DefaultConfidence is used when the caller passes 0
const DefaultConfidence = 0.95

// fullConfidenceSamples is the training size at which sample-size confidence saturates
const fullConfidenceSamples = 50

var zScores = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// ZScore returns the two-sided normal quantile for a supported confidence level
func ZScore(confidence float64) (float64, error) {
	if confidence == 0 {
		confidence = DefaultConfidence
	}
	z, ok := zScores[confidence]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedConfidence, confidence)
	}
	return z, nil
}

// Predictor applies stored regression models to feature vectors. It holds no
// mutable state and is safe for concurrent use.
type Predictor struct {
	store  store.ModelStore
	logger *logrus.Logger
}

// NewPredictor creates a predictor; store may be nil when only Predict is used
func NewPredictor(modelStore store.ModelStore, log *logrus.Logger) *Predictor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Predictor{store: modelStore, logger: log}
}

// Predict evaluates the model at fv
func (p *Predictor) Predict(model *models.RegressionModel, fv features.FeatureVector, confidence float64) (*models.Prediction, error) {
	if confidence == 0 {
		confidence = DefaultConfidence
	}
	z, err := ZScore(confidence)
	if err != nil {
		return nil, err
	}
	if fv.SchemaVersion != features.SchemaVersion ||
		!features.MatchesSchema(model.FeatureNames, model.FeatureSchemaVersion) ||
		len(model.Coefficients) != features.FeatureCount {
		return nil, fmt.Errorf("%w: model %s uses %q, vector uses %q",
			ErrSchemaMismatch, model.Key(), model.FeatureSchemaVersion, fv.SchemaVersion)
	}
	if err := fv.Validate(); err != nil {
		return nil, err
	}

	estimate := model.Intercept
	for i, c := range model.Coefficients {
		estimate += c * fv.Values[i]
	}
	estimate = math.Max(0, estimate)

	ciHalf := z * model.Metrics.StandardError
	piHalf := z * model.ResidualStdDev

	return &models.Prediction{
		PredictedValue:     estimate,
		StandardDeviation:  model.ResidualStdDev,
		ConfidenceInterval: interval(estimate, ciHalf, confidence),
		PredictionInterval: interval(estimate, piHalf, confidence),
		FeatureImportance:  featureImportance(model),
		ModelConfidence:    modelConfidence(model),
		ModelKey:           model.Key(),
	}, nil
}

// PredictForKey loads the model for key and evaluates it at fv
func (p *Predictor) PredictForKey(ctx context.Context, key models.ModelKey, fv features.FeatureVector, confidence float64) (*models.Prediction, error) {
	if p.store == nil {
		return nil, fmt.Errorf("%w: %s (no model store configured)", store.ErrModelNotFound, key)
	}
	model, found, err := p.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", store.ErrModelNotFound, key)
	}

	prediction, err := p.Predict(model, fv, confidence)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"model_key": key.String(),
			"error":     err.Error(),
		}).Warn("Prediction failed")
		return nil, err
	}
	return prediction, nil
}

// interval is symmetric around the estimate with the lower bound floored at 0
func interval(estimate, halfWidth, confidence float64) models.Interval {
	return models.Interval{
		Lower:      math.Max(0, estimate-halfWidth),
		Upper:      estimate + halfWidth,
		Confidence: confidence,
	}
}

// featureImportance normalizes |coefficient| by the largest magnitude
func featureImportance(model *models.RegressionModel) map[string]float64 {
	maxAbs := 0.0
	for _, c := range model.Coefficients {
		maxAbs = math.Max(maxAbs, math.Abs(c))
	}
	importance := make(map[string]float64, len(model.Coefficients))
	for i, c := range model.Coefficients {
		if maxAbs == 0 {
			importance[model.FeatureNames[i]] = 0
			continue
		}
		importance[model.FeatureNames[i]] = math.Abs(c) / maxAbs
	}
	return importance
}

func modelConfidence(model *models.RegressionModel) float64 {
	fit := math.Max(0, model.Metrics.RSquared)
	size := math.Min(1, float64(model.TrainingDataSize)/fullConfidenceSamples)
	return 0.7*fit + 0.3*size
}
