package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/prop-projector/internal/models"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load player game logs from a JSON file",
	Long: `Upsert a JSON array of game log rows into the game log table.

Rows are keyed by (player_id, game_date); re-importing a file updates the
existing rows in place.

Example:
  propctl import --file games-2024-25.json`,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	RunE: func(cmd *cobra.Command, _ []string) error {
		games, err := readGames(importFile)
		if err != nil {
			return err
		}
		if err := application.Repository.SaveGames(commandContext(cmd), games); err != nil {
			return err
		}
		cmd.Printf("Imported %d game logs\n", len(games))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "JSON file holding an array of game logs")
	_ = importCmd.MarkFlagRequired("file")
}

func readGames(path string) ([]models.GameRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var games []models.GameRecord
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	for i, g := range games {
		if g.PlayerID == "" || g.Season == "" || g.GameDate.IsZero() {
			return nil, fmt.Errorf("row %d: player_id, season and game_date are required", i)
		}
	}
	return games, nil
}
