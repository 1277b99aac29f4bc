package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/regression"
	"github.com/stitts-dev/prop-projector/internal/store"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

// Training outcomes recorded in metrics and reports
const (
	OutcomeTrained      = "trained"
	OutcomeInsufficient = "insufficient_data"
	OutcomeFailed       = "failed"
)

// TrainingConfig holds the training defaults
type TrainingConfig struct {
	Lambda              float64
	CurrentSeason       string
	CurrentSeasonWeight float64
	Workers             int
	// PriorSeasons are pooled with the target season when a request names none
	PriorSeasons int
}

// TrainRequest trains one model. Seasons lists every season pooled into the
// sample set; it defaults to Season alone. A nil Lambda uses the configured default.
type TrainRequest struct {
	PlayerScope string          `json:"player_scope" binding:"required"`
	StatType    models.StatType `json:"stat_type" binding:"required"`
	Season      string          `json:"season"`
	Seasons     []string        `json:"seasons,omitempty"`
	Lambda      *float64        `json:"lambda,omitempty"`
}

// TrainAllRequest trains every (player, stat) pair with enough history, plus
// the GENERAL model per stat when IncludeGeneral is set
type TrainAllRequest struct {
	Season         string            `json:"season"`
	Seasons        []string          `json:"seasons,omitempty"`
	StatTypes      []models.StatType `json:"stat_types,omitempty"`
	PlayerIDs      []string          `json:"player_ids,omitempty"`
	IncludeGeneral bool              `json:"include_general"`
	Lambda         *float64          `json:"lambda,omitempty"`
}

// TrainOutcome is the result for one key in a TrainAll run
type TrainOutcome struct {
	Key     models.ModelKey `json:"key"`
	Outcome string          `json:"outcome"`
	Samples int             `json:"samples"`
	Error   string          `json:"error,omitempty"`
}

// TrainAllReport summarizes a TrainAll run
type TrainAllReport struct {
	Trained      int            `json:"trained"`
	Insufficient int            `json:"insufficient"`
	Failed       int            `json:"failed"`
	Outcomes     []TrainOutcome `json:"outcomes"`
	Duration     time.Duration  `json:"duration"`
}

// TrainingService loads history, extracts samples, fits and persists models
type TrainingService struct {
	repo      GameLogRepository
	extractor *features.Extractor
	trainer   *regression.Trainer
	store     store.ModelStore
	metrics   *Metrics
	config    TrainingConfig
	logger    *logrus.Logger
}

func NewTrainingService(
	repo GameLogRepository,
	extractor *features.Extractor,
	trainer *regression.Trainer,
	modelStore store.ModelStore,
	metrics *Metrics,
	config TrainingConfig,
	logger *logrus.Logger,
) *TrainingService {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.CurrentSeasonWeight <= 0 {
		config.CurrentSeasonWeight = 1.5
	}
	return &TrainingService{
		repo:      repo,
		extractor: extractor,
		trainer:   trainer,
		store:     modelStore,
		metrics:   metrics,
		config:    config,
		logger:    logger,
	}
}

// Train fits and persists the model for one player scope. GENERAL scope pools
// every player with enough history.
func (s *TrainingService) Train(ctx context.Context, req TrainRequest) (*models.RegressionModel, error) {
	req = s.normalize(req)
	if req.PlayerScope == models.GeneralScope {
		return s.TrainGeneral(ctx, req)
	}

	samples, err := s.playerSamples(ctx, req.PlayerScope, req, nil)
	if err != nil {
		return nil, err
	}
	return s.TrainSamples(ctx, req.PlayerScope, req.StatType, req.Season, samples, *req.Lambda)
}

// TrainGeneral pools samples across every player with enough history
func (s *TrainingService) TrainGeneral(ctx context.Context, req TrainRequest) (*models.RegressionModel, error) {
	req = s.normalize(req)
	req.PlayerScope = models.GeneralScope

	playerIDs, err := s.repo.PlayersWithHistory(ctx, req.Seasons, s.extractor.Config().MinPriorGames)
	if err != nil {
		return nil, err
	}
	ref, err := s.repo.ReferenceData(ctx, req.Seasons)
	if err != nil {
		return nil, err
	}

	var pooled []features.TrainingSample
	for _, id := range playerIDs {
		samples, err := s.playerSamples(ctx, id, req, ref)
		if err != nil {
			return nil, err
		}
		pooled = append(pooled, samples...)
	}

	s.logger.WithFields(logrus.Fields{
		"stat_type": req.StatType,
		"season":    req.Season,
		"players":   len(playerIDs),
		"samples":   len(pooled),
	}).Info("Pooled samples for general model")

	return s.TrainSamples(ctx, models.GeneralScope, req.StatType, req.Season, pooled, *req.Lambda)
}

// TrainSamples fits a model from prepared samples and persists it
func (s *TrainingService) TrainSamples(
	ctx context.Context,
	scope string,
	stat models.StatType,
	season string,
	samples []features.TrainingSample,
	lambda float64,
) (*models.RegressionModel, error) {
	start := time.Now()
	model, err := s.trainer.Train(ctx, scope, stat, season, samples, lambda)
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, regression.ErrInsufficientData) {
			outcome = OutcomeInsufficient
		}
		s.metrics.Training(string(stat), outcome, time.Since(start))
		return nil, err
	}

	if err := s.store.Save(ctx, model); err != nil {
		s.metrics.Training(string(stat), OutcomeFailed, time.Since(start))
		return nil, err
	}
	s.metrics.Training(string(stat), OutcomeTrained, time.Since(start))
	return model, nil
}

// TrainAll trains the requested keys concurrently with at most Workers in
// flight. Every key appears once; per-key failures are reported, not returned.
func (s *TrainingService) TrainAll(ctx context.Context, req TrainAllRequest) (*TrainAllReport, error) {
	start := time.Now()
	if req.Season == "" {
		req.Season = s.config.CurrentSeason
	}
	stats := req.StatTypes
	if len(stats) == 0 {
		stats = models.AllStatTypes
	}

	playerIDs := req.PlayerIDs
	if len(playerIDs) == 0 {
		seasons := req.Seasons
		if len(seasons) == 0 {
			seasons = s.Seasons(req.Season)
		}
		ids, err := s.repo.PlayersWithHistory(ctx, seasons, s.extractor.Config().MinPriorGames)
		if err != nil {
			return nil, err
		}
		playerIDs = ids
	}

	keys := uniqueKeys(playerIDs, stats, req.Season, req.IncludeGeneral)

	var mu sync.Mutex
	report := &TrainAllReport{Outcomes: make([]TrainOutcome, 0, len(keys))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			model, err := s.Train(gctx, TrainRequest{
				PlayerScope: key.PlayerScope,
				StatType:    key.StatType,
				Season:      key.Season,
				Seasons:     req.Seasons,
				Lambda:      req.Lambda,
			})

			outcome := TrainOutcome{Key: key, Outcome: OutcomeTrained}
			switch {
			case err == nil:
				outcome.Samples = model.TrainingDataSize
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case errors.Is(err, regression.ErrInsufficientData):
				outcome.Outcome = OutcomeInsufficient
				outcome.Error = err.Error()
			default:
				outcome.Outcome = OutcomeFailed
				outcome.Error = err.Error()
				logger.WithTrainingContext(s.logger, key.PlayerScope, string(key.StatType), key.Season).
					WithError(err).Error("Model training failed")
			}

			mu.Lock()
			report.Outcomes = append(report.Outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].Key.String() < report.Outcomes[j].Key.String()
	})
	for _, o := range report.Outcomes {
		switch o.Outcome {
		case OutcomeTrained:
			report.Trained++
		case OutcomeInsufficient:
			report.Insufficient++
		default:
			report.Failed++
		}
	}
	report.Duration = time.Since(start)

	s.logger.WithFields(logrus.Fields{
		"season":       req.Season,
		"keys":         len(keys),
		"trained":      report.Trained,
		"insufficient": report.Insufficient,
		"failed":       report.Failed,
		"duration_ms":  report.Duration.Milliseconds(),
	}).Info("Batch training completed")

	return report, nil
}

// ListModels returns stored model summaries
func (s *TrainingService) ListModels(ctx context.Context, filter store.ListFilter) ([]models.ModelSummary, error) {
	return s.store.List(ctx, filter)
}

// GetModel loads one stored model
func (s *TrainingService) GetModel(ctx context.Context, key models.ModelKey) (*models.RegressionModel, error) {
	model, found, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", store.ErrModelNotFound, key)
	}
	return model, nil
}

// DeleteModel removes one stored model
func (s *TrainingService) DeleteModel(ctx context.Context, key models.ModelKey) error {
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", store.ErrModelNotFound, key)
	}
	return s.store.Delete(ctx, key)
}

// Seasons returns the configured prior seasons followed by season. An
// unrecognized label is trained on alone.
func (s *TrainingService) Seasons(season string) []string {
	if season == "" {
		season = s.config.CurrentSeason
	}
	seasons, err := models.SeasonsEndingAt(season, s.config.PriorSeasons)
	if err != nil {
		s.logger.WithError(err).WithField("season", season).Warn("Unrecognized season label, training on it alone")
		return []string{season}
	}
	return seasons
}

func (s *TrainingService) normalize(req TrainRequest) TrainRequest {
	if req.Season == "" {
		req.Season = s.config.CurrentSeason
	}
	if len(req.Seasons) == 0 {
		req.Seasons = s.Seasons(req.Season)
	}
	if req.Lambda == nil {
		lambda := s.config.Lambda
		req.Lambda = &lambda
	}
	return req
}

// playerSamples extracts one player's samples; ref is loaded when nil
func (s *TrainingService) playerSamples(
	ctx context.Context,
	playerID string,
	req TrainRequest,
	ref *features.ReferenceData,
) ([]features.TrainingSample, error) {
	history, err := s.repo.PlayerHistory(ctx, playerID, req.Seasons)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		if ref, err = s.repo.ReferenceData(ctx, req.Seasons); err != nil {
			return nil, err
		}
	}

	opts := features.DefaultSampleOptions(req.Season)
	opts.CurrentSeasonWeight = s.config.CurrentSeasonWeight

	samples, report, err := s.extractor.ExtractTrainingSamples(ctx, history, req.StatType, ref, opts)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"player_id":            playerID,
		"stat_type":            req.StatType,
		"season":               req.Season,
		"games_seen":           report.GamesSeen,
		"samples_built":        report.SamplesBuilt,
		"skipped_history":      report.SkippedHistory,
		"skipped_minutes":      report.SkippedMinutes,
		"skipped_missing_stat": report.SkippedMissingStat,
		"skipped_invalid":      report.SkippedInvalid,
	}).Debug("Extracted training samples")

	return samples, nil
}

// uniqueKeys builds the distinct model keys for a batch run
func uniqueKeys(playerIDs []string, stats []models.StatType, season string, includeGeneral bool) []models.ModelKey {
	seen := make(map[models.ModelKey]bool)
	var keys []models.ModelKey
	add := func(scope string, stat models.StatType) {
		key := models.ModelKey{PlayerScope: scope, StatType: stat, Season: season}
		if seen[key] {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}
	for _, stat := range stats {
		if includeGeneral {
			add(models.GeneralScope, stat)
		}
		for _, id := range playerIDs {
			add(id, stat)
		}
	}
	return keys
}
