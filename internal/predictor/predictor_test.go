package predictor

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/store"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// testModel predicts 2 + 0.5*recent_form - 1*is_injured
func testModel() *models.RegressionModel {
	coefficients := make([]float64, features.FeatureCount)
	coefficients[features.FeatRecentForm] = 0.5
	coefficients[features.FeatIsInjured] = -1
	return &models.RegressionModel{
		PlayerScope:          "p1",
		StatType:             models.StatPoints,
		Season:               "2024-25",
		Intercept:            2,
		Coefficients:         coefficients,
		FeatureNames:         features.FeatureNames(),
		FeatureSchemaVersion: features.SchemaVersion,
		Metrics:              models.ModelMetrics{RSquared: 0.6, StandardError: 1.5},
		TrainingDataSize:     25,
		ResidualStdDev:       4,
	}
}

func vectorWithForm(form float64) features.FeatureVector {
	fv := features.NewFeatureVector()
	fv.Values[features.FeatRecentForm] = form
	return fv
}

func TestPredict(t *testing.T) {
	p := NewPredictor(nil, quietLogger())

	prediction, err := p.Predict(testModel(), vectorWithForm(20), 0.95)
	require.NoError(t, err)

	assert.InDelta(t, 12, prediction.PredictedValue, 1e-12)
	assert.Equal(t, 4.0, prediction.StandardDeviation)
	assert.InDelta(t, 12-1.96*1.5, prediction.ConfidenceInterval.Lower, 1e-12)
	assert.InDelta(t, 12+1.96*1.5, prediction.ConfidenceInterval.Upper, 1e-12)
	assert.InDelta(t, 12-1.96*4, prediction.PredictionInterval.Lower, 1e-12)
	assert.InDelta(t, 12+1.96*4, prediction.PredictionInterval.Upper, 1e-12)
	assert.Equal(t, 0.95, prediction.PredictionInterval.Confidence)
	// 0.7*0.6 + 0.3*(25/50)
	assert.InDelta(t, 0.57, prediction.ModelConfidence, 1e-12)
	assert.Equal(t, testModel().Key(), prediction.ModelKey)
}

func TestPredictConfidenceLevels(t *testing.T) {
	tests := []struct {
		confidence float64
		wantZ      float64
		wantErr    bool
	}{
		{confidence: 0, wantZ: 1.96},
		{confidence: 0.90, wantZ: 1.645},
		{confidence: 0.95, wantZ: 1.96},
		{confidence: 0.99, wantZ: 2.576},
		{confidence: 0.80, wantErr: true},
		{confidence: 1, wantErr: true},
	}

	p := NewPredictor(nil, quietLogger())
	for _, tt := range tests {
		prediction, err := p.Predict(testModel(), vectorWithForm(20), tt.confidence)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedConfidence, "confidence %v", tt.confidence)
			continue
		}
		require.NoError(t, err)
		assert.InDelta(t, 12+tt.wantZ*4, prediction.PredictionInterval.Upper, 1e-12, "confidence %v", tt.confidence)
	}
}

func TestPredictClampsAtZero(t *testing.T) {
	fv := vectorWithForm(0)
	fv.Values[features.FeatIsInjured] = 5

	prediction, err := NewPredictor(nil, quietLogger()).Predict(testModel(), fv, 0.95)
	require.NoError(t, err)

	assert.Equal(t, 0.0, prediction.PredictedValue)
	assert.Equal(t, 0.0, prediction.ConfidenceInterval.Lower)
	assert.Equal(t, 0.0, prediction.PredictionInterval.Lower)
	assert.InDelta(t, 1.96*4, prediction.PredictionInterval.Upper, 1e-12)
}

func TestPredictIsDeterministic(t *testing.T) {
	p := NewPredictor(nil, quietLogger())
	first, err := p.Predict(testModel(), vectorWithForm(17.3), 0.9)
	require.NoError(t, err)
	second, err := p.Predict(testModel(), vectorWithForm(17.3), 0.9)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFeatureImportance(t *testing.T) {
	prediction, err := NewPredictor(nil, quietLogger()).Predict(testModel(), vectorWithForm(10), 0)
	require.NoError(t, err)

	assert.Len(t, prediction.FeatureImportance, features.FeatureCount)
	assert.Equal(t, 1.0, prediction.FeatureImportance["is_injured"])
	assert.Equal(t, 0.5, prediction.FeatureImportance["recent_form"])
	for name, v := range prediction.FeatureImportance {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}

	zero := testModel()
	zero.Coefficients = make([]float64, features.FeatureCount)
	prediction, err = NewPredictor(nil, quietLogger()).Predict(zero, vectorWithForm(10), 0)
	require.NoError(t, err)
	for _, v := range prediction.FeatureImportance {
		assert.Equal(t, 0.0, v)
	}
}

func TestModelConfidence(t *testing.T) {
	tests := []struct {
		name     string
		rSquared float64
		size     int
		want     float64
	}{
		{name: "negative fit floors at zero", rSquared: -0.4, size: 100, want: 0.3},
		{name: "size saturates at fifty", rSquared: 1, size: 500, want: 1},
		{name: "small sample", rSquared: 0.5, size: 10, want: 0.35 + 0.06},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel()
			m.Metrics.RSquared = tt.rSquared
			m.TrainingDataSize = tt.size
			assert.InDelta(t, tt.want, modelConfidence(m), 1e-12)
		})
	}
}

func TestPredictRejectsInvalidInput(t *testing.T) {
	p := NewPredictor(nil, quietLogger())

	fv := vectorWithForm(10)
	fv.Values[features.FeatTeamPace] = math.Inf(1)
	_, err := p.Predict(testModel(), fv, 0.95)
	var invalid *features.InvalidFeatureError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "team_pace", invalid.Feature)

	stale := testModel()
	stale.FeatureSchemaVersion = "player-form-v0"
	_, err = p.Predict(stale, vectorWithForm(10), 0.95)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	foreign := vectorWithForm(10)
	foreign.SchemaVersion = "player-form-v2"
	_, err = p.Predict(testModel(), foreign, 0.95)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestPredictForKey(t *testing.T) {
	ctx := context.Background()
	modelStore := store.NewMemoryStore()
	require.NoError(t, modelStore.Save(ctx, testModel()))
	p := NewPredictor(modelStore, quietLogger())

	prediction, err := p.PredictForKey(ctx, testModel().Key(), vectorWithForm(20), 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 12, prediction.PredictedValue, 1e-12)

	_, err = p.PredictForKey(ctx, models.ModelKey{
		PlayerScope: "p9", StatType: models.StatPoints, Season: "2024-25",
	}, vectorWithForm(20), 0.95)
	assert.True(t, errors.Is(err, store.ErrModelNotFound))
}
