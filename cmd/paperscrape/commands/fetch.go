package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"paperscrape/internal/config"
	"paperscrape/internal/downloader"
	"paperscrape/internal/identlist"
	"time"

	"github.com/spf13/cobra"
)

type batchFlags struct {
	identifiers *string
	outputDir   *string
	csv         *string
	database    *string
	noDownload  *bool
}

func addBatchFlags(cmd *cobra.Command) batchFlags {
	return batchFlags{
		identifiers: cmd.Flags().String("ids", "", "The file of identifiers to process, one per line. (default from config)"),
		outputDir:   cmd.Flags().String("out", "", "The directory documents are downloaded to. (default from config)"),
		csv:         cmd.Flags().String("csv", "", "The csv file records are appended to. (default from config)"),
		database:    cmd.Flags().String("db", "", "A sqlite file or libsql url records are also written to."),
		noDownload:  cmd.Flags().Bool("no-download", false, "Only resolve and record addresses."),
	}
}

// apply overrides the config paths with the flags that were set.
func (f batchFlags) apply() error {
	return cfg.Override(config.Config{
		Paths: config.PathsConfig{
			Identifiers: *f.identifiers,
			OutputDir:   *f.outputDir,
			Csv:         *f.csv,
			Database:    *f.database,
		},
	})
}

var fetchFlags batchFlags

func init() {
	fetchFlags = addBatchFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}

// runBatch works through the identifier file once.
func runBatch(ctx context.Context, skipDownload bool) (downloader.Summary, error) {
	identifiers, err := identlist.ReadFile(cfg.Paths.Identifiers)
	if errors.Is(err, os.ErrNotExist) {
		return downloader.Summary{}, fmt.Errorf("identifier file %s does not exist", cfg.Paths.Identifiers)
	}
	if err != nil {
		return downloader.Summary{}, err
	}

	client, err := newMirrorClient()
	if err != nil {
		return downloader.Summary{}, err
	}
	store, err := openStore(cfg.Paths.Csv, cfg.Paths.Database)
	if err != nil {
		return downloader.Summary{}, err
	}
	defer store.Close()

	runner := downloader.NewRunner(client, store, downloader.Options{
		OutputDir:    cfg.Paths.OutputDir,
		SkipDownload: skipDownload,
	}, tel)

	slog.Info("starting batch", "identifiers", len(identifiers), "file", cfg.Paths.Identifiers)
	t1 := time.Now()
	summary, err := runner.Run(ctx, identifiers)
	t2 := time.Now()
	slog.Info("batch finished", "seconds", t2.Sub(t1).Seconds(), "found", summary.Found(), "processed", len(summary.Outcomes))

	return summary, err
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--ids dois.txt] [--out downloads] [--csv doi_pdfs.csv] [--db records.db] [--no-download]",
	Short: "Resolves every identifier in a file, downloads the documents and records the addresses.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := fetchFlags.apply()
		if err != nil {
			return err
		}

		summary, err := runBatch(cmd.Context(), *fetchFlags.noDownload)
		if len(summary.Outcomes) > 0 {
			printSummary(summary)
		}
		if err != nil {
			return fmt.Errorf("batch failed: %w", err)
		}
		return nil
	},
}
