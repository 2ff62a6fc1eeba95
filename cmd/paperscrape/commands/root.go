package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"paperscrape/internal/components/telemetry"
	"paperscrape/internal/config"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	debugFlag  *bool
)

// set up by the root command before any subcommand runs
var (
	cfg       config.Config
	tel       telemetry.API
	logCloser io.Closer
	otelSetup telemetry.Otel
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", config.DefaultPath, "The config file to read.")
	debugFlag = rootCmd.PersistentFlags().Bool("debug", false, "Log debug messages.")
}

var rootCmd = &cobra.Command{
	Use:           "paperscrape",
	Short:         "paperscrape resolves and downloads documents from a mirror and scrapes prize listings.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cmd.Flags().Changed("config") {
			cfg, err = config.Read(*configPath)
		} else {
			cfg, err = config.Find(config.DefaultPath)
		}
		if err != nil {
			return err
		}
		if *debugFlag {
			cfg.Debug = true
		}

		logCloser, err = telemetry.InitSlog(cfg.Paths.Log, cfg.Debug)
		if err != nil {
			return err
		}
		otelSetup, err = telemetry.SetupOtel(cmd.Context(), "paperscrape", cfg.Telemetry)
		if err != nil {
			return err
		}
		tel = telemetry.NewSlogAPI()
		return nil
	},
}

// shutdown flushes the otel exporters and closes the log file, it is safe to call more than once.
func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := otelSetup.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to shutdown otel", "err", err)
	}
	otelSetup = telemetry.Otel{}
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

// run executes the command line and always shuts down afterwards, a failing command is
// logged before the log file is closed.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Error("command failed", "err", err)
	}
	shutdown()
	return err
}

func ExecuteContext(ctx context.Context) {
	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
