package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/prop-projector/internal/models"
)

var projectFlags struct {
	player     string
	stat       string
	opponent   string
	home       bool
	date       string
	line       float64
	heuristic  float64
	confidence float64
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Blend a heuristic projection with the regression model",
	Long: `Run one projection through the ensemble and print the result.

Without --line the recommendation is always PASS.

Example:
  propctl project --player 203999 --stat pra --opponent BOS --home --heuristic 41.5 --line 40.5`,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	RunE: func(cmd *cobra.Command, _ []string) error {
		stat, err := models.ParseStatType(projectFlags.stat)
		if err != nil {
			return err
		}
		req := models.ProjectionRequest{
			PlayerID: projectFlags.player,
			StatType: stat,
			Opponent: projectFlags.opponent,
			IsHome:   projectFlags.home,
			Season:   application.Config.CurrentSeason,
		}
		if projectFlags.date != "" {
			req.GameDate, err = time.Parse("2006-01-02", projectFlags.date)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
		}
		if cmd.Flags().Changed("line") {
			line := projectFlags.line
			req.MarketLine = &line
		}
		heuristic := models.HeuristicProjection{
			ProjectedValue:  projectFlags.heuristic,
			ConfidenceScore: projectFlags.confidence,
			RiskLevel:       models.RiskMedium,
			Recommendation:  models.RecommendPass,
		}

		result := application.Projection.Project(commandContext(cmd), req, heuristic)
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	f := projectCmd.Flags()
	f.StringVar(&projectFlags.player, "player", "", "player id")
	f.StringVar(&projectFlags.stat, "stat", "points", "stat type")
	f.StringVar(&projectFlags.opponent, "opponent", "", "opponent team abbreviation")
	f.BoolVar(&projectFlags.home, "home", false, "player's team is at home")
	f.StringVar(&projectFlags.date, "date", "", "game date YYYY-MM-DD, default today")
	f.Float64Var(&projectFlags.line, "line", 0, "market line")
	f.Float64Var(&projectFlags.heuristic, "heuristic", 0, "heuristic projected value")
	f.Float64Var(&projectFlags.confidence, "confidence", 0.5, "heuristic confidence score in [0,1]")
	_ = projectCmd.MarkFlagRequired("player")
	_ = projectCmd.MarkFlagRequired("opponent")
	_ = projectCmd.MarkFlagRequired("heuristic")
}
