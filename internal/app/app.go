package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/prop-projector/internal/ensemble"
	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/predictor"
	"github.com/stitts-dev/prop-projector/internal/regression"
	"github.com/stitts-dev/prop-projector/internal/services"
	"github.com/stitts-dev/prop-projector/internal/store"
	"github.com/stitts-dev/prop-projector/pkg/config"
	"github.com/stitts-dev/prop-projector/pkg/database"
)

// App holds the wired services shared by the server and the CLI
type App struct {
	Config     *config.Config
	Logger     *logrus.Logger
	DB         *database.DB
	Redis      *redis.Client
	Registry   *prometheus.Registry
	Metrics    *services.Metrics
	Store      store.ModelStore
	Repository *services.GormGameLogRepository
	Breakers   *services.CircuitBreakerService
	Training   *services.TrainingService
	Projection *services.ProjectionService
}

// New connects to the database and redis and builds the service graph.
// Redis is optional: an empty REDIS_URL serves models straight from the database.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	db, err := database.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Registry: prometheus.NewRegistry(),
	}
	a.Metrics = services.NewMetrics(a.Registry)

	var modelStore store.ModelStore = store.NewGormStore(db.DB)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		a.Redis = redis.NewClient(opt)
		if err := a.Redis.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("Redis unavailable, model cache will degrade to the database")
		}
		modelStore = store.NewCachedStore(modelStore, a.Redis, cfg.ModelCacheTTL, log)
	}
	a.Store = modelStore
	a.Repository = services.NewGameLogRepository(db.DB)

	extractorConfig := features.DefaultExtractorConfig()
	extractorConfig.MinPriorGames = cfg.MinPriorGames
	extractorConfig.TimeDecayLambda = cfg.TimeDecayLambda
	extractor := features.NewExtractor(extractorConfig, log)

	trainerConfig := regression.DefaultTrainerConfig()
	trainerConfig.PenalizeIntercept = cfg.PenalizeIntercept
	trainerConfig.ConditionThreshold = cfg.ConditionThreshold
	trainer := regression.NewTrainer(trainerConfig, log)

	a.Breakers = services.NewCircuitBreakerService(
		cfg.BreakerThreshold,
		cfg.BreakerTimeout,
		func(err error) bool { return !services.IsInfrastructureFailure(err) },
		a.Metrics,
		log,
	)

	a.Training = services.NewTrainingService(a.Repository, extractor, trainer, modelStore, a.Metrics, services.TrainingConfig{
		Lambda:              cfg.RidgeLambda,
		CurrentSeason:       cfg.CurrentSeason,
		CurrentSeasonWeight: cfg.CurrentSeasonWeight,
		Workers:             cfg.TrainingWorkers,
		PriorSeasons:        cfg.PriorSeasons,
	}, log)

	a.Projection = services.NewProjectionService(
		a.Repository,
		extractor,
		predictor.NewPredictor(modelStore, log),
		ensemble.NewCombiner(log),
		a.Breakers,
		a.Metrics,
		services.ProjectionConfig{CurrentSeason: cfg.CurrentSeason, Confidence: cfg.DefaultConfidence},
		log,
	)

	return a, nil
}

// Migrate creates the game log, reference and model tables
func (a *App) Migrate() error {
	tables := append(models.Tables(), &store.ModelRecord{})
	return a.DB.Migrate(tables...)
}

// TrainingSeasons returns the seasons pooled into a training run ending at season
func (a *App) TrainingSeasons(season string) []string {
	return a.Training.Seasons(season)
}

// RetrainRequest is the batch request issued by the scheduled retrain job
func (a *App) RetrainRequest() services.TrainAllRequest {
	return services.TrainAllRequest{
		Season:         a.Config.CurrentSeason,
		Seasons:        a.TrainingSeasons(a.Config.CurrentSeason),
		IncludeGeneral: true,
	}
}

// Close releases the database and redis connections
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.WithError(err).Warn("Failed to close database")
	}
}
