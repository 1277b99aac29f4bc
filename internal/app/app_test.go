package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/services"
	"github.com/stitts-dev/prop-projector/internal/store"
	"github.com/stitts-dev/prop-projector/pkg/config"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

func testConfig(redisURL string) *config.Config {
	return &config.Config{
		Env:                 "test",
		DatabaseDriver:      "sqlite",
		DatabaseURL:         ":memory:",
		RedisURL:            redisURL,
		ModelCacheTTL:       time.Hour,
		RidgeLambda:         1.0,
		ConditionThreshold:  1e12,
		MinPriorGames:       15,
		CurrentSeason:       "2024-25",
		CurrentSeasonWeight: 1.5,
		TimeDecayLambda:     0.001,
		TrainingWorkers:     2,
		PriorSeasons:        1,
		DefaultConfidence:   0.95,
		BreakerThreshold:    5,
		BreakerTimeout:      time.Second,
	}
}

func playerGames(playerID string, n int) []models.GameRecord {
	opener := time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)
	games := make([]models.GameRecord, 0, n)
	for i := 0; i < n; i++ {
		games = append(games, models.GameRecord{
			PlayerID:            playerID,
			Season:              "2024-25",
			GameDate:            opener.AddDate(0, 0, 2*i),
			Team:                "BOS",
			Opponent:            []string{"NYK", "MIA", "LAL"}[i%3],
			IsHome:              i%2 == 0,
			Minutes:             float64(27 + (i*5)%8),
			Points:              models.IntPtr(15 + (i*7)%12),
			Rebounds:            models.IntPtr(5 + (i*3)%4),
			Assists:             models.IntPtr(2 + (i*5)%6),
			FieldGoalsAttempted: 13 + i%6,
			FieldGoalsMade:      6 + i%4,
		})
	}
	return games
}

func TestNewWithoutRedis(t *testing.T) {
	a, err := New(testConfig(""), logger.New("error", false, io.Discard))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Migrate())
	assert.Nil(t, a.Redis)
	assert.IsType(t, &store.GormStore{}, a.Store)

	assert.Equal(t, []string{"2023-24", "2024-25"}, a.TrainingSeasons(""))
	assert.Equal(t, []string{"odd"}, a.TrainingSeasons("odd"))

	req := a.RetrainRequest()
	assert.Equal(t, "2024-25", req.Season)
	assert.True(t, req.IncludeGeneral)
	assert.Equal(t, []string{"2023-24", "2024-25"}, req.Seasons)
}

func TestNewRejectsBadRedisURL(t *testing.T) {
	_, err := New(testConfig("not-a-url://"), logger.New("error", false, io.Discard))
	assert.Error(t, err)
}

func TestTrainAndProjectThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	a, err := New(testConfig("redis://"+mr.Addr()+"/0"), logger.New("error", false, io.Discard))
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Migrate())

	ctx := context.Background()
	require.NoError(t, a.Repository.SaveGames(ctx, playerGames("p1", 40)))

	model, err := a.Training.Train(ctx, services.TrainRequest{
		PlayerScope: "p1",
		StatType:    models.StatPoints,
		Seasons:     a.TrainingSeasons(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-25", model.Season)

	line := 18.5
	result := a.Projection.Project(ctx, models.ProjectionRequest{
		PlayerID:   "p1",
		StatType:   models.StatPoints,
		Team:       "BOS",
		Opponent:   "NYK",
		IsHome:     true,
		Season:     "2024-25",
		GameDate:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		MarketLine: &line,
	}, models.HeuristicProjection{ProjectedValue: 19, ConfidenceScore: 0.6, RiskLevel: models.RiskMedium, Recommendation: models.RecommendPass})

	assert.Equal(t, models.SourceEnsemble, result.Source)
	assert.True(t, mr.Exists(store.ModelCacheKey(model.Key())))
}
