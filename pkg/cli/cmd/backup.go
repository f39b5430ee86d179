package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/repovault/repovault/internal/config"
	"github.com/repovault/repovault/pkg/backup"
	"github.com/repovault/repovault/pkg/cli/format"
	"github.com/repovault/repovault/pkg/log"
)

var backupSchedule string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive every visible repository to S3",
	Long: `Back up every repository visible to the configured GitHub App
installation. Each repository's default branch is downloaded as a zip
archive and uploaded under <prefix>/<timestamp>/<repository>.zip, where
the timestamp is shared by all repositories in the run.

A single repository failing does not abort the run; the remaining
repositories are still attempted and the failures are reported at the
end. With --schedule the command stays resident and runs on the given
cron expression until interrupted.`,
	Example: `  # One backup run
  repovault backup

  # Nightly at 02:30
  repovault backup --schedule "30 2 * * *"`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVar(&backupSchedule, "schedule", "", "cron expression; run backups on this schedule instead of once")
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if backupSchedule != "" {
		return runScheduled(cmd.Context(), cfg)
	}
	return runBackupOnce(cmd.Context(), cfg)
}

// runBackupOnce executes a single backup run: authenticate, list, archive,
// report.
func runBackupOnce(ctx context.Context, cfg *config.Config) error {
	client, err := authenticate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("authenticating with GitHub: %w", err)
	}

	store, err := newStorageClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to bucket %s: %w", cfg.Storage.Bucket, err)
	}

	runner := backup.NewRunner(client, store, cfg.Storage.Prefix, log.GetDefaultLogger())
	report, err := runner.BackupAll(ctx)
	if err != nil {
		return err
	}

	if report.Attempted == 0 {
		fmt.Println(format.Warning("No repositories visible to this installation"))
		return nil
	}

	for _, failure := range report.Failures {
		fmt.Println(format.Error("  %s: %v", failure.Repository, failure.Err))
	}
	printBatchSummary("Backup", report.Attempted, report.Succeeded, report.Failed)
	return nil
}

// runScheduled runs backups on a cron schedule until SIGINT or SIGTERM.
// Each tick is an independent run; a failed run is logged and the schedule
// keeps going.
func runScheduled(ctx context.Context, cfg *config.Config) error {
	logger := log.GetDefaultLogger().WithComponent("scheduler")

	scheduler := cron.New()
	_, err := scheduler.AddFunc(backupSchedule, func() {
		if err := runBackupOnce(ctx, cfg); err != nil {
			logger.Error("scheduled backup run failed", log.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", backupSchedule, err)
	}

	scheduler.Start()
	logger.Info("backup scheduler started", log.Str("schedule", backupSchedule))
	fmt.Println(format.Info("Running backups on schedule %q, press Ctrl+C to stop", backupSchedule))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info("shutting down", log.Str("signal", sig.String()))
	case <-ctx.Done():
	}

	// Let an in-flight run finish before exiting.
	<-scheduler.Stop().Done()
	return nil
}
