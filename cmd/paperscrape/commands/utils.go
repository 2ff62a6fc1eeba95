package commands

import (
	"fmt"
	"os"
	"paperscrape/internal/components/telemetry"
	"paperscrape/internal/downloader"
	"paperscrape/internal/recordstore"
	"paperscrape/internal/scrapers/mirror"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func newMirrorClient() (*mirror.Client, error) {
	opts := mirror.Options{
		BaseUrl:          cfg.Mirror.BaseUrl,
		Timeout:          cfg.Mirror.Timeout(),
		RateLimit:        cfg.Mirror.RateLimit(),
		UserAgent:        cfg.Mirror.UserAgent,
		CloudflareBypass: cfg.Mirror.CloudflareBypass,
	}
	if cfg.Mirror.DumpDir != "" {
		output, err := telemetry.NewDirectoryOutput(cfg.Mirror.DumpDir)
		if err != nil {
			return nil, err
		}
		opts.MessageOutput = output
	}

	client, err := mirror.NewClient(opts, tel)
	if err != nil {
		return nil, fmt.Errorf("create mirror client: %w", err)
	}
	return client, nil
}

// openStore returns the csv store, tee'd with the database store when a database is set.
func openStore(csvPath, dbPath string) (recordstore.Store, error) {
	csvStore := recordstore.NewCSVStore(csvPath)
	if dbPath == "" {
		return csvStore, nil
	}
	sqlStore, err := recordstore.OpenSQLStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open record database: %w", err)
	}
	return recordstore.Tee{csvStore, sqlStore}, nil
}

func printSummary(summary downloader.Summary) {
	t := newTable()
	t.AppendHeader(table.Row{"Identifier", "Status", "Address"})
	for _, o := range summary.Outcomes {
		t.AppendRow(table.Row{o.Identifier, o.Status.String(), o.Address})
	}
	t.AppendFooter(table.Row{
		"Total", len(summary.Outcomes),
		fmt.Sprintf("found %d, downloaded %d", summary.Found(), summary.Count(downloader.StatusDownloaded)),
	})
	t.Render()
}
