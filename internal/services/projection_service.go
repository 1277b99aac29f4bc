package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stitts-dev/prop-projector/internal/ensemble"
	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/predictor"
	"github.com/stitts-dev/prop-projector/internal/store"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

// Fallback reasons recorded when a projection is served without a regression model
const (
	FallbackNoModel             = "no_model"
	FallbackInsufficientHistory = "insufficient_history"
	FallbackDataUnavailable     = "data_unavailable"
	FallbackBreakerOpen         = "breaker_open"
	FallbackPredictionFailed    = "prediction_failed"
)

// ProjectionConfig holds the projection defaults
type ProjectionConfig struct {
	CurrentSeason string
	Confidence    float64
}

// ProjectionService produces ensemble projections. It never returns an error;
// every failure degrades to the heuristic projection.
type ProjectionService struct {
	repo      GameLogRepository
	extractor *features.Extractor
	predictor *predictor.Predictor
	combiner  *ensemble.Combiner
	breakers  *CircuitBreakerService
	metrics   *Metrics
	config    ProjectionConfig
	logger    *logrus.Logger
}

func NewProjectionService(
	repo GameLogRepository,
	extractor *features.Extractor,
	pred *predictor.Predictor,
	combiner *ensemble.Combiner,
	breakers *CircuitBreakerService,
	metrics *Metrics,
	config ProjectionConfig,
	logger *logrus.Logger,
) *ProjectionService {
	if config.Confidence == 0 {
		config.Confidence = predictor.DefaultConfidence
	}
	return &ProjectionService{
		repo:      repo,
		extractor: extractor,
		predictor: pred,
		combiner:  combiner,
		breakers:  breakers,
		metrics:   metrics,
		config:    config,
		logger:    logger,
	}
}

// IsInfrastructureFailure reports whether err should trip a breaker. Domain
// outcomes such as a missing model are answers, not outages.
func IsInfrastructureFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, store.ErrModelNotFound) &&
		!errors.Is(err, predictor.ErrSchemaMismatch) &&
		!errors.Is(err, predictor.ErrUnsupportedConfidence) &&
		!errors.Is(err, features.ErrInvalidFeature) &&
		!errors.Is(err, context.Canceled)
}

// Project blends the player's regression prediction with the heuristic. The
// player model is tried first, then the GENERAL model for the stat type.
func (s *ProjectionService) Project(ctx context.Context, req models.ProjectionRequest, heuristic models.HeuristicProjection) models.ProjectionResult {
	id := uuid.New().String()
	if req.Season == "" {
		req.Season = s.config.CurrentSeason
	}
	if req.GameDate.IsZero() {
		req.GameDate = time.Now().UTC()
	}
	log := logger.WithProjectionContext(s.logger, id, req.PlayerID, string(req.StatType))

	prediction, reason := s.predict(ctx, req, log)
	if prediction == nil {
		s.metrics.Fallback(reason)
		log.WithField("reason", reason).Info("Serving heuristic-only projection")
	}

	result := s.combiner.Combine(req, heuristic, prediction)
	result.ID = id
	s.metrics.Projection(result.Source, string(result.Recommendation))

	log.WithFields(logrus.Fields{
		"source":          result.Source,
		"projected_value": result.ProjectedValue,
		"recommendation":  result.Recommendation,
	}).Debug("Projection generated")
	return result
}

// predict returns nil and a fallback reason when no regression output is usable
func (s *ProjectionService) predict(ctx context.Context, req models.ProjectionRequest, log *logrus.Entry) (*models.Prediction, string) {
	history, err := s.guard(BreakerGameLogs, func() (interface{}, error) {
		return s.repo.PlayerHistory(ctx, req.PlayerID, nil)
	})
	if err != nil {
		return nil, s.failureReason(err, log, "Failed to load game history")
	}
	ref, err := s.guard(BreakerGameLogs, func() (interface{}, error) {
		return s.repo.ReferenceData(ctx, []string{req.Season})
	})
	if err != nil {
		return nil, s.failureReason(err, log, "Failed to load reference data")
	}

	target := models.GameContext{
		PlayerID: req.PlayerID,
		Season:   req.Season,
		GameDate: req.GameDate,
		Team:     req.Team,
		Opponent: req.Opponent,
		IsHome:   req.IsHome,
	}
	fv, err := s.extractor.ExtractGame(history.([]models.GameRecord), target, req.StatType, ref.(*features.ReferenceData))
	if err != nil {
		if errors.Is(err, features.ErrInsufficientHistory) {
			return nil, FallbackInsufficientHistory
		}
		log.WithError(err).Warn("Feature extraction failed")
		return nil, FallbackPredictionFailed
	}

	for _, scope := range []string{req.PlayerID, models.GeneralScope} {
		key := models.ModelKey{PlayerScope: scope, StatType: req.StatType, Season: req.Season}
		out, err := s.guard(BreakerModelStore, func() (interface{}, error) {
			return s.predictor.PredictForKey(ctx, key, fv, s.config.Confidence)
		})
		switch {
		case err == nil:
			return out.(*models.Prediction), ""
		case errors.Is(err, store.ErrModelNotFound):
			continue
		default:
			return nil, s.failureReason(err, log, "Regression prediction failed")
		}
	}
	return nil, FallbackNoModel
}

func (s *ProjectionService) guard(target string, fn func() (interface{}, error)) (interface{}, error) {
	if s.breakers == nil {
		return fn()
	}
	return s.breakers.Execute(target, fn)
}

func (s *ProjectionService) failureReason(err error, log *logrus.Entry, msg string) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return FallbackBreakerOpen
	}
	log.WithError(err).Warn(msg)
	if IsInfrastructureFailure(err) {
		return FallbackDataUnavailable
	}
	return FallbackPredictionFailed
}
