package main

import (
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/mis-educa-api/pkg/config"
	"github.com/noah-isme/mis-educa-api/pkg/database"
	"github.com/noah-isme/mis-educa-api/pkg/logger"
)

var project string

var rootCmd = &cobra.Command{
	Use:          "mis-admin",
	Short:        "Maintenance tasks for the MIS Educa API",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&project, "project", "", "backend project to operate on (primary or secondary); defaults to ACTIVE_PROJECT")
}

// bootstrap loads configuration and a logger, honouring --project.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if project != "" {
		cfg.ActiveProject = project
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logr, nil
}

func connect(cfg *config.Config) (*sqlx.DB, error) {
	return database.NewPostgres(cfg.ActiveDatabase())
}
