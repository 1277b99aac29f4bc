package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/prop-projector/internal/models"
)

func TestPlayerHistoryIsOrderedAndFiltered(t *testing.T) {
	ctx := context.Background()
	older := gameLog("p1", 3, 20)
	for i := range older {
		older[i].Season = "2023-24"
		older[i].GameDate = older[i].GameDate.AddDate(-1, 0, 0)
	}
	recent := gameLog("p1", 5, 20)
	// insert out of order
	repo := seededRepository(t, recent[3:], older, recent[:3], gameLog("p2", 4, 10))

	all, err := repo.PlayerHistory(ctx, "p1", nil)
	require.NoError(t, err)
	require.Len(t, all, 8)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].GameDate.Before(all[i].GameDate))
	}

	current, err := repo.PlayerHistory(ctx, "p1", []string{testSeason})
	require.NoError(t, err)
	assert.Len(t, current, 5)
	require.NotNil(t, current[0].Points)
	assert.Equal(t, *recent[0].Points, *current[0].Points)
}

func TestPlayersWithHistory(t *testing.T) {
	repo := seededRepository(t, gameLog("p1", 20, 20), gameLog("p2", 15, 10), gameLog("p3", 30, 12))

	ids, err := repo.PlayersWithHistory(context.Background(), []string{testSeason}, 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids)
}

func TestReferenceData(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t)
	require.NoError(t, repo.db.Create(&[]models.PlayerInjury{
		{PlayerID: "p1", Status: "out", Active: true},
		{PlayerID: "p2", Status: "probable", Active: false},
	}).Error)
	require.NoError(t, repo.db.Create(&models.PlayerUsage{PlayerID: "p1", Season: testSeason, UsageRate: 0.31}).Error)

	ref, err := repo.ReferenceData(ctx, []string{testSeason})
	require.NoError(t, err)

	assert.Equal(t, 101.3, ref.TeamPace(testSeason, "LAL"))
	assert.True(t, ref.Injured("p1"))
	assert.False(t, ref.Injured("p2"))
	usage, ok := ref.UsageRate(testSeason, "p1")
	assert.True(t, ok)
	assert.Equal(t, 0.31, usage)

	other, err := repo.ReferenceData(ctx, []string{"2019-20"})
	require.NoError(t, err)
	_, found := other.Team("2019-20", "LAL")
	assert.False(t, found)
}

func TestSaveGamesUpserts(t *testing.T) {
	ctx := context.Background()
	games := gameLog("p1", 3, 20)
	repo := seededRepository(t, games)

	games[0].Points = models.IntPtr(41)
	require.NoError(t, repo.SaveGames(ctx, games[:1]))

	history, err := repo.PlayerHistory(ctx, "p1", nil)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 41, *history[0].Points)
}
