package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/mis-educa-api/internal/repository"
	"github.com/noah-isme/mis-educa-api/internal/service"
	"github.com/noah-isme/mis-educa-api/pkg/cache"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
)

var dryRun bool

var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Move legacy attendance records to their canonical date_activity[_district] keys",
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

		ctx := cmd.Context()
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, cached sessions expire on their own", "error", err)
		}
		cacheRepo := repository.NewCacheRepository(redisClient, cfg.ActiveProject)
		defer cacheRepo.Close() //nolint:errcheck

		rules := service.NewAttendanceRules(cfg.Attendance)
		records := repository.NewAttendanceRepository(docstore.New(db), rules.KeyedActivities(), rules.ListDistricts())
		cacheSvc := service.NewCacheService(cacheRepo, nil, cfg.Cache.SessionTTL, logr, cacheRepo.Enabled())

		report, err := service.NewMaintenanceService(records, rules, cacheSvc, logr).Rekey(ctx, dryRun)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		verb, rewrite := "moved", "rewrote"
		if dryRun {
			verb, rewrite = "would move", "would rewrite"
		}
		fmt.Fprintf(out, "scanned %d records (%d unreadable), %s %d, %s %d in place\n",
			report.Scanned, report.Skipped, verb, report.Moved, rewrite, report.Rewritten)
		for _, key := range report.Conflicts {
			fmt.Fprintf(out, "conflict: %s (canonical key already recorded)\n", key)
		}
		return nil
	},
}

func init() {
	rekeyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would move without writing")
	rootCmd.AddCommand(rekeyCmd)
}
