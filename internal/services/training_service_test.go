package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/regression"
	"github.com/stitts-dev/prop-projector/internal/store"
)

func newTestTrainingService(repo GameLogRepository, modelStore store.ModelStore, metrics *Metrics) *TrainingService {
	log := quietLogger()
	return NewTrainingService(
		repo,
		features.NewExtractor(features.DefaultExtractorConfig(), log),
		regression.NewTrainer(regression.DefaultTrainerConfig(), log),
		modelStore,
		metrics,
		TrainingConfig{Lambda: 1, CurrentSeason: testSeason, CurrentSeasonWeight: 1.5, Workers: 2},
		log,
	)
}

func TestTrainPersistsPlayerModel(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t, gameLog("p1", 40, 20))
	modelStore := store.NewMemoryStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := newTestTrainingService(repo, modelStore, metrics)

	model, err := svc.Train(ctx, TrainRequest{PlayerScope: "p1", StatType: models.StatPoints})
	require.NoError(t, err)

	assert.Equal(t, testSeason, model.Season)
	assert.Equal(t, 25, model.TrainingDataSize)
	assert.Equal(t, 1.0, model.Lambda)

	stored, err := svc.GetModel(ctx, model.Key())
	require.NoError(t, err)
	assert.Equal(t, model.Coefficients, stored.Coefficients)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.trainingsTotal.WithLabelValues("points", OutcomeTrained)))
}

func TestTrainInsufficientHistory(t *testing.T) {
	repo := seededRepository(t, gameLog("p2", 20, 10))
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := newTestTrainingService(repo, store.NewMemoryStore(), metrics)

	_, err := svc.Train(context.Background(), TrainRequest{PlayerScope: "p2", StatType: models.StatPoints})
	assert.ErrorIs(t, err, regression.ErrInsufficientData)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.trainingsTotal.WithLabelValues("points", OutcomeInsufficient)))
}

func TestTrainGeneralPoolsPlayers(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t, gameLog("p1", 40, 20), gameLog("p2", 20, 10), gameLog("p3", 30, 12))
	svc := newTestTrainingService(repo, store.NewMemoryStore(), nil)

	model, err := svc.Train(ctx, TrainRequest{PlayerScope: models.GeneralScope, StatType: models.StatRebounds})
	require.NoError(t, err)

	assert.Equal(t, models.GeneralScope, model.PlayerScope)
	assert.Equal(t, 25+5+15, model.TrainingDataSize)
}

func TestTrainRepositoryError(t *testing.T) {
	repo := new(MockGameLogRepository)
	repo.On("PlayerHistory", mock.Anything, "p1", []string{testSeason}).
		Return(nil, errors.New("connection reset"))
	svc := newTestTrainingService(repo, store.NewMemoryStore(), nil)

	_, err := svc.Train(context.Background(), TrainRequest{PlayerScope: "p1", StatType: models.StatPoints})
	assert.EqualError(t, err, "connection reset")
	repo.AssertExpectations(t)
}

func TestTrainPoolsPriorSeasonsByDefault(t *testing.T) {
	pooled := []string{"2023-24", testSeason}
	repo := new(MockGameLogRepository)
	repo.On("PlayerHistory", mock.Anything, "p1", pooled).Return(nil, errors.New("connection reset")).Once()
	repo.On("PlayersWithHistory", mock.Anything, pooled, 15).Return(nil, errors.New("connection reset")).Once()

	log := quietLogger()
	svc := NewTrainingService(
		repo,
		features.NewExtractor(features.DefaultExtractorConfig(), log),
		regression.NewTrainer(regression.DefaultTrainerConfig(), log),
		store.NewMemoryStore(),
		nil,
		TrainingConfig{Lambda: 1, CurrentSeason: testSeason, Workers: 1, PriorSeasons: 1},
		log,
	)

	assert.Equal(t, pooled, svc.Seasons(""))
	assert.Equal(t, []string{"odd"}, svc.Seasons("odd"))

	_, err := svc.Train(context.Background(), TrainRequest{PlayerScope: "p1", StatType: models.StatPoints})
	assert.Error(t, err)
	_, err = svc.TrainAll(context.Background(), TrainAllRequest{})
	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestTrainAll(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t, gameLog("p1", 40, 20), gameLog("p2", 20, 10), gameLog("p3", 30, 12))
	modelStore := store.NewMemoryStore()
	svc := newTestTrainingService(repo, modelStore, nil)

	report, err := svc.TrainAll(ctx, TrainAllRequest{
		StatTypes:      []models.StatType{models.StatPoints, models.StatRebounds},
		IncludeGeneral: true,
	})
	require.NoError(t, err)

	assert.Len(t, report.Outcomes, 8)
	assert.Equal(t, 6, report.Trained)
	assert.Equal(t, 2, report.Insufficient)
	assert.Equal(t, 0, report.Failed)

	stored, err := modelStore.List(ctx, store.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 6)

	seen := make(map[models.ModelKey]bool)
	for _, o := range report.Outcomes {
		assert.False(t, seen[o.Key], "key %s trained twice", o.Key)
		seen[o.Key] = true
	}
}

func TestTrainAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := seededRepository(t, gameLog("p1", 40, 20))
	svc := newTestTrainingService(repo, store.NewMemoryStore(), nil)

	_, err := svc.TrainAll(ctx, TrainAllRequest{PlayerIDs: []string{"p1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteModel(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t, gameLog("p1", 40, 20))
	svc := newTestTrainingService(repo, store.NewMemoryStore(), nil)

	model, err := svc.Train(ctx, TrainRequest{PlayerScope: "p1", StatType: models.StatAssists})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteModel(ctx, model.Key()))
	assert.ErrorIs(t, svc.DeleteModel(ctx, model.Key()), store.ErrModelNotFound)
	_, err = svc.GetModel(ctx, model.Key())
	assert.ErrorIs(t, err, store.ErrModelNotFound)
}

func TestUniqueKeys(t *testing.T) {
	keys := uniqueKeys([]string{"p1", "p1", "p2"}, []models.StatType{models.StatPoints, models.StatPoints}, testSeason, true)
	assert.Len(t, keys, 3)
	assert.Equal(t, models.GeneralScope, keys[0].PlayerScope)
}
