package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/services"
)

var trainFlags struct {
	scope   string
	stat    string
	stats   []string
	season  string
	lambda  float64
	all     bool
	general bool
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit and store ridge regression models",
	Long: `Train one model for a player scope and stat, or every eligible model with --all.

The configured PRIOR_SEASONS are pooled with the target season; the target
season's games carry CURRENT_SEASON_WEIGHT.

Examples:
  # One player
  propctl train --scope 203999 --stat points

  # The pooled model used when a player has none
  propctl train --scope GENERAL --stat pra

  # Everything for the current season
  propctl train --all --general`,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var lambda *float64
		if cmd.Flags().Changed("lambda") {
			lambda = &trainFlags.lambda
		}
		seasons := application.TrainingSeasons(trainFlags.season)
		season := seasons[len(seasons)-1]

		if trainFlags.all {
			stats, err := parseStats(trainFlags.stats)
			if err != nil {
				return err
			}
			report, err := application.Training.TrainAll(commandContext(cmd), services.TrainAllRequest{
				Season:         season,
				Seasons:        seasons,
				StatTypes:      stats,
				IncludeGeneral: trainFlags.general,
				Lambda:         lambda,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Trained %d, insufficient data %d, failed %d in %s\n",
				report.Trained, report.Insufficient, report.Failed, report.Duration)
			return nil
		}

		if trainFlags.scope == "" || trainFlags.stat == "" {
			return fmt.Errorf("--scope and --stat are required unless --all is set")
		}
		stat, err := models.ParseStatType(trainFlags.stat)
		if err != nil {
			return err
		}
		model, err := application.Training.Train(commandContext(cmd), services.TrainRequest{
			PlayerScope: trainFlags.scope,
			StatType:    stat,
			Season:      season,
			Seasons:     seasons,
			Lambda:      lambda,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), model)
	},
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainFlags.scope, "scope", "", "player id or GENERAL")
	f.StringVar(&trainFlags.stat, "stat", "", "stat type (points, rebounds, assists, pr, pa, ra, pra)")
	f.StringSliceVar(&trainFlags.stats, "stats", nil, "stat types for --all (default every stat type)")
	f.StringVar(&trainFlags.season, "season", "", "target season, default CURRENT_SEASON")
	f.Float64Var(&trainFlags.lambda, "lambda", 0, "ridge penalty, default RIDGE_LAMBDA")
	f.BoolVar(&trainFlags.all, "all", false, "train every player with enough history")
	f.BoolVar(&trainFlags.general, "general", false, "with --all, also train the GENERAL models")
}

func parseStats(raw []string) ([]models.StatType, error) {
	out := make([]models.StatType, 0, len(raw))
	for _, s := range raw {
		stat, err := models.ParseStatType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, stat)
	}
	return out, nil
}
