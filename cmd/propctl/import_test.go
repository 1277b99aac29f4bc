package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/prop-projector/internal/models"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "games.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadGames(t *testing.T) {
	path := writeFile(t, `[
		{"player_id":"p1","season":"2024-25","game_date":"2024-10-22T00:00:00Z","opponent":"BOS","minutes":31.5,"points":22},
		{"player_id":"p1","season":"2024-25","game_date":"2024-10-24T00:00:00Z","opponent":"NYK","minutes":28}
	]`)

	games, err := readGames(path)
	require.NoError(t, err)
	require.Len(t, games, 2)
	require.NotNil(t, games[0].Points)
	assert.Equal(t, 22, *games[0].Points)
	assert.Nil(t, games[1].Points)
}

func TestReadGamesRejectsIncompleteRows(t *testing.T) {
	path := writeFile(t, `[{"player_id":"p1","opponent":"BOS"}]`)
	_, err := readGames(path)
	assert.Error(t, err)

	_, err = readGames(writeFile(t, `{not json`))
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key, err := parseKey([]string{"GENERAL", "pra", "2024-25"})
	require.NoError(t, err)
	assert.Equal(t, models.ModelKey{PlayerScope: "GENERAL", StatType: models.StatPointsReboundsAssists, Season: "2024-25"}, key)

	_, err = parseKey([]string{"p1", "blocks", "2024-25"})
	assert.Error(t, err)

	_, err = parseKey([]string{"p1", "points", ""})
	assert.Error(t, err)
}

func TestParseStats(t *testing.T) {
	stats, err := parseStats([]string{"pts", "Rebounds"})
	require.NoError(t, err)
	assert.Equal(t, []models.StatType{models.StatPoints, models.StatRebounds}, stats)

	_, err = parseStats([]string{"steals"})
	assert.Error(t, err)
}
