package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:               "migrate",
	Short:             "Create or update the database tables",
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.Println("Database schema is up to date")
		return nil
	},
}
