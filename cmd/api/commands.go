package main

import (
	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			version, err := database.MigrationVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			log.Info("Database migrated", zap.Int64("version", version))
			return nil
		},
	}
}

func newSeedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account from ADMIN_EMAIL and ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			return database.SeedAdmin(cmd.Context(), db, cfg, log)
		},
	}
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Retry calendar events that failed to sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApplication(cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.service.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("Reconciliation complete",
				zap.Int("checked", report.Checked),
				zap.Int("repaired", report.Repaired),
				zap.Int("failed", report.Failed),
			)
			return nil
		},
	}
}
