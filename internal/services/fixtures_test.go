package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stitts-dev/prop-projector/internal/features"
	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/store"
)

const testSeason = "2024-25"

var seasonOpener = time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// gameLog builds n games two days apart with varied box scores
func gameLog(playerID string, n int, base int) []models.GameRecord {
	opponents := []string{"NYK", "MIA", "LAL", "DEN", "PHX"}
	games := make([]models.GameRecord, 0, n)
	for i := 0; i < n; i++ {
		games = append(games, models.GameRecord{
			PlayerID:               playerID,
			PlayerName:             "Player " + playerID,
			Season:                 testSeason,
			GameDate:               seasonOpener.AddDate(0, 0, 2*i),
			Team:                   "BOS",
			Opponent:               opponents[i%len(opponents)],
			IsHome:                 i%2 == 0,
			Minutes:                float64(26 + (i*3)%9),
			Points:                 models.IntPtr(base + (i*7)%11),
			Rebounds:               models.IntPtr(4 + (i*5)%6),
			Assists:                models.IntPtr(3 + (i*3)%5),
			FieldGoalsAttempted:    14 + i%5,
			FieldGoalsMade:         6 + i%4,
			ThreePointersAttempted: 5 + i%3,
			ThreePointersMade:      2 + i%2,
		})
	}
	return games
}

func teamRows() []models.TeamSeasonStats {
	return []models.TeamSeasonStats{
		{Team: "BOS", Season: testSeason, Pace: 98.5, PointsScored: 120.1, PointsAllowed: 109.2, ThreePointPctAllowed: 0.351, PaintPointsAllowed: 44},
		{Team: "NYK", Season: testSeason, Pace: 96.1, PointsScored: 115.0, PointsAllowed: 110.5, ThreePointPctAllowed: 0.360, PaintPointsAllowed: 47},
		{Team: "MIA", Season: testSeason, Pace: 97.0, PointsScored: 110.2, PointsAllowed: 108.0, ThreePointPctAllowed: 0.349, PaintPointsAllowed: 45},
		{Team: "LAL", Season: testSeason, Pace: 101.3, PointsScored: 116.4, PointsAllowed: 115.1, ThreePointPctAllowed: 0.372, PaintPointsAllowed: 53},
		{Team: "DEN", Season: testSeason, Pace: 98.0, PointsScored: 117.9, PointsAllowed: 112.3, ThreePointPctAllowed: 0.366, PaintPointsAllowed: 50},
		{Team: "PHX", Season: testSeason, Pace: 99.2, PointsScored: 113.7, PointsAllowed: 113.9, ThreePointPctAllowed: 0.368, PaintPointsAllowed: 51},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.Tables()...))
	require.NoError(t, db.AutoMigrate(&store.ModelRecord{}))
	return db
}

// seededRepository stores the given games plus the team table
func seededRepository(t *testing.T, games ...[]models.GameRecord) *GormGameLogRepository {
	t.Helper()
	db := newTestDB(t)
	repo := NewGameLogRepository(db)
	for _, g := range games {
		require.NoError(t, repo.SaveGames(context.Background(), g))
	}
	rows := teamRows()
	require.NoError(t, db.Create(&rows).Error)
	return repo
}

// MockGameLogRepository for testing
type MockGameLogRepository struct {
	mock.Mock
}

func (m *MockGameLogRepository) PlayerHistory(ctx context.Context, playerID string, seasons []string) ([]models.GameRecord, error) {
	args := m.Called(ctx, playerID, seasons)
	games, _ := args.Get(0).([]models.GameRecord)
	return games, args.Error(1)
}

func (m *MockGameLogRepository) PlayersWithHistory(ctx context.Context, seasons []string, minGames int) ([]string, error) {
	args := m.Called(ctx, seasons, minGames)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockGameLogRepository) ReferenceData(ctx context.Context, seasons []string) (*features.ReferenceData, error) {
	args := m.Called(ctx, seasons)
	ref, _ := args.Get(0).(*features.ReferenceData)
	return ref, args.Error(1)
}
