package regression

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

// TrainerConfig controls the ridge solve
type TrainerConfig struct {
	// PenalizeIntercept applies λ to the intercept as well. Off by default.
	PenalizeIntercept  bool    `json:"penalize_intercept"`
	ConditionThreshold float64 `json:"condition_threshold"`
	MinSamples         int     `json:"min_samples"`
}

// DefaultTrainerConfig returns the production settings
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		PenalizeIntercept:  false,
		ConditionThreshold: 1e12,
		MinSamples:         10,
	}
}

// Trainer fits weighted ridge regression models
type Trainer struct {
	config TrainerConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewTrainer creates a trainer; a nil logger uses the package default
func NewTrainer(config TrainerConfig, log *logrus.Logger) *Trainer {
	if log == nil {
		log = logger.GetLogger()
	}
	if config.MinSamples <= 0 {
		config.MinSamples = DefaultTrainerConfig().MinSamples
	}
	if config.ConditionThreshold <= 0 {
		config.ConditionThreshold = DefaultTrainerConfig().ConditionThreshold
	}
	return &Trainer{config: config, logger: log, now: time.Now}
}

// WithClock overrides the clock used to stamp LastTrained
func (t *Trainer) WithClock(now func() time.Time) *Trainer {
	t.now = now
	return t
}

// Config returns the trainer configuration
func (t *Trainer) Config() TrainerConfig {
	return t.config
}

// Train fits (XᵀWX + λD)β = XᵀWy over the valid samples and returns the model
// for (scope, stat, season). Samples with a foreign schema, a non-finite value
// or a non-positive weight are ignored.
func (t *Trainer) Train(
	ctx context.Context,
	scope string,
	stat models.StatType,
	season string,
	samples []features.TrainingSample,
	lambda float64,
) (*models.RegressionModel, error) {
	key := models.ModelKey{PlayerScope: scope, StatType: stat, Season: season}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if lambda < 0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLambda, lambda)
	}

	log := logger.WithTrainingContext(t.logger, scope, string(stat), season)

	valid, excluded := validSamples(samples)
	if excluded.total() > 0 {
		log.WithFields(logrus.Fields{
			"excluded_schema":   excluded.schema,
			"excluded_features": excluded.features,
			"excluded_target":   excluded.target,
			"excluded_weight":   excluded.weight,
		}).Warn("Excluded invalid training samples")
	}
	if len(valid) < t.config.MinSamples {
		return nil, fmt.Errorf("%w: %d valid samples, need %d",
			ErrInsufficientData, len(valid), t.config.MinSamples)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(valid)
	k := features.FeatureCount + 1
	x := mat.NewDense(n, k, nil)
	y := make([]float64, n)
	w := make([]float64, n)
	for i, s := range valid {
		x.Set(i, 0, 1)
		for j, v := range s.Features.Values {
			x.Set(i, j+1, v)
		}
		y[i] = s.Target
		w[i] = s.SampleWeight
	}

	a, b := normalEquations(x, y, w, lambda, t.config.PenalizeIntercept)
	sol, ok := solveLU(a, b, t.config.ConditionThreshold)
	if !ok {
		log.WithFields(logrus.Fields{
			"warning":        "NumericalInstabilityWarning",
			"condition":      sol.cond,
			"threshold":      t.config.ConditionThreshold,
			"training_size":  n,
			"ridge_lambda":   lambda,
			"fallback_solve": models.SolverSVD,
		}).Warn("Normal equations ill-conditioned, falling back to SVD")

		var err error
		sol, err = solveSVD(a, b)
		if err != nil {
			log.WithError(err).Error("SVD fallback failed")
			return nil, err
		}
	}

	fitted := make([]float64, n)
	var fv mat.VecDense
	fv.MulVec(x, mat.NewVecDense(k, sol.beta))
	for i := range fitted {
		fitted[i] = fv.AtVec(i)
	}
	fit := computeMetrics(y, fitted, features.FeatureCount)

	model := &models.RegressionModel{
		PlayerScope:          scope,
		StatType:             stat,
		Season:               season,
		Intercept:            sol.beta[0],
		Coefficients:         append([]float64(nil), sol.beta[1:]...),
		FeatureNames:         features.FeatureNames(),
		FeatureSchemaVersion: features.SchemaVersion,
		Metrics:              fit.metrics,
		TrainingDataSize:     n,
		LastTrained:          t.now().UTC(),
		ResidualStdDev:       fit.residualStdDev,
		Lambda:               lambda,
		PenalizedIntercept:   t.config.PenalizeIntercept,
		Solver:               sol.solver,
	}

	log.WithFields(logrus.Fields{
		"training_size": n,
		"r_squared":     model.Metrics.RSquared,
		"rmse":          model.Metrics.RMSE,
		"solver":        model.Solver,
	}).Info("Regression model trained")

	return model, nil
}

// sampleExclusions counts dropped samples per reason
type sampleExclusions struct {
	schema, features, target, weight int
}

func (e sampleExclusions) total() int {
	return e.schema + e.features + e.target + e.weight
}

func validSamples(samples []features.TrainingSample) ([]features.TrainingSample, sampleExclusions) {
	var excluded sampleExclusions
	valid := make([]features.TrainingSample, 0, len(samples))
	for _, s := range samples {
		switch {
		case s.Features.SchemaVersion != features.SchemaVersion:
			excluded.schema++
		case s.Features.Validate() != nil:
			excluded.features++
		case math.IsNaN(s.Target) || math.IsInf(s.Target, 0):
			excluded.target++
		case !(s.SampleWeight > 0) || math.IsInf(s.SampleWeight, 0):
			excluded.weight++
		default:
			valid = append(valid, s)
		}
	}
	return valid, excluded
}
