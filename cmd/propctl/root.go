package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/prop-projector/internal/app"
	"github.com/stitts-dev/prop-projector/pkg/config"
	"github.com/stitts-dev/prop-projector/pkg/logger"
)

// configPath is set by the persistent --config flag.
var configPath string

// application is built in PersistentPreRunE for commands that need services.
var application *app.App

var rootCmd = &cobra.Command{
	Use:           "propctl",
	Short:         "Operate the player prop projection engine.",
	Long:          `propctl trains, inspects and queries the ridge regression models behind the projection service.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a .env or yaml config file")
	rootCmd.AddCommand(migrateCmd, importCmd, trainCmd, projectCmd, modelsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the explicit config file when given, else .env and the environment.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFile(configPath)
	}
	return config.LoadConfig()
}

// setup builds the service graph and migrates the schema.
func setup(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	application, err = app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	return application.Migrate()
}

func teardown(_ *cobra.Command, _ []string) {
	if application != nil {
		application.Close()
		application = nil
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
