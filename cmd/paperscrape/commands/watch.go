package commands

import (
	"fmt"
	"log/slog"
	"paperscrape/internal/components/chrono"
	"paperscrape/internal/components/telemetry"
	"paperscrape/internal/config"
	"time"

	"github.com/spf13/cobra"
)

var (
	watchFlags batchFlags
	watchCron  *string
)

func init() {
	watchFlags = addBatchFlags(watchCmd)
	watchCron = watchCmd.Flags().String("cron", "", "The cron schedule batches run on. (default from config)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--cron \"@daily\"] [fetch flags]",
	Short: "Runs the fetch batch on a cron schedule until interrupted, a batch that is still running skips the next tick.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := watchFlags.apply()
		if err != nil {
			return err
		}
		err = cfg.Override(config.Config{Watch: config.WatchConfig{Cron: *watchCron}})
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if cfg.Watch.PerfStatsSeconds > 0 {
			telemetry.InstrumentPerfStats(ctx, tel, time.Duration(cfg.Watch.PerfStatsSeconds)*time.Second)
		}

		cron := chrono.NewStandardCron(telemetry.NewScopedAPI("watch", tel))
		err = cron.Cron(cfg.Watch.Cron, func() {
			summary, err := runBatch(ctx, *watchFlags.noDownload)
			if err != nil {
				slog.Error("scheduled batch failed", "err", err)
				return
			}
			if len(summary.Outcomes) > 0 {
				printSummary(summary)
			}
		})
		if err != nil {
			cron.Stop()
			return fmt.Errorf("invalid cron schedule %q: %w", cfg.Watch.Cron, err)
		}

		slog.Info("watching", "cron", cfg.Watch.Cron)
		<-ctx.Done()
		cron.Stop()
		return nil
	},
}
