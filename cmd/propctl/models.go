package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/stitts-dev/prop-projector/internal/models"
	"github.com/stitts-dev/prop-projector/internal/store"
)

var modelsCmd = &cobra.Command{
	Use:               "models",
	Short:             "Inspect and delete stored models",
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

var listFilter store.ListFilter
var listStat string

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored models with their fit statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if listStat != "" {
			stat, err := models.ParseStatType(listStat)
			if err != nil {
				return err
			}
			listFilter.StatType = stat
		}
		summaries, err := application.Training.ListModels(commandContext(cmd), listFilter)
		if err != nil {
			return err
		}

		return printSummaryTable(cmd.OutOrStdout(), summaries)
	},
}

var modelsShowCmd = &cobra.Command{
	Use:   "show <scope> <stat> <season>",
	Short: "Print one model with its coefficients",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args)
		if err != nil {
			return err
		}
		model, err := application.Training.GetModel(commandContext(cmd), key)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), model)
	},
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <scope> <stat> <season>",
	Short: "Delete one stored model",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args)
		if err != nil {
			return err
		}
		if err := application.Training.DeleteModel(commandContext(cmd), key); err != nil {
			return err
		}
		cmd.Printf("Deleted %s\n", key)
		return nil
	},
}

func init() {
	f := modelsListCmd.Flags()
	f.StringVar(&listFilter.PlayerScope, "scope", "", "filter by player id or GENERAL")
	f.StringVar(&listStat, "stat", "", "filter by stat type")
	f.StringVar(&listFilter.Season, "season", "", "filter by season")
	f.IntVar(&listFilter.Limit, "limit", 50, "maximum rows")
	modelsCmd.AddCommand(modelsListCmd, modelsShowCmd, modelsDeleteCmd)
}

func parseKey(args []string) (models.ModelKey, error) {
	stat, err := models.ParseStatType(args[1])
	if err != nil {
		return models.ModelKey{}, err
	}
	key := models.ModelKey{PlayerScope: args[0], StatType: stat, Season: args[2]}
	return key, key.Validate()
}

// printSummaryTable renders model summaries as a right-aligned table
func printSummaryTable(w io.Writer, summaries []models.ModelSummary) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Scope", "Stat", "Season", "R2", "RMSE", "N", "Trained"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		data = append(data, []string{
			s.PlayerScope,
			string(s.StatType),
			s.Season,
			fmt.Sprintf("%.3f", s.RSquared),
			fmt.Sprintf("%.3f", s.RMSE),
			strconv.Itoa(s.TrainingDataSize),
			s.LastTrained.Format("2006-01-02 15:04"),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
