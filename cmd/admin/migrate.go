package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/mis-educa-api/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the document tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logr, err := bootstrap()
		if err != nil {
			return err
		}
		defer logr.Sync() //nolint:errcheck

		db, err := connect(cfg)
		if err != nil {
			return fmt.Errorf("connect %s: %w", cfg.ActiveProject, err)
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema ready on %s\n", cfg.ActiveProject)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
