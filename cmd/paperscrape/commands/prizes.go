package commands

import (
	"fmt"
	"os"
	"paperscrape/internal/config"
	"paperscrape/internal/scrapers/prizes"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	prizesUrl   *string
	prizesCsv   *string
	prizesPrint *bool
)

func init() {
	prizesUrl = prizesCmd.Flags().String("url", "", "The prize list page. (default from config)")
	prizesCsv = prizesCmd.Flags().String("csv", "", "The csv file to write. (default from config)")
	prizesPrint = prizesCmd.Flags().Bool("print", false, "Also print the prizes as a table.")
	rootCmd.AddCommand(prizesCmd)
}

var prizesCmd = &cobra.Command{
	Use:   "prizes [--url <list page>] [--csv nobel.csv] [--print]",
	Short: "Scrapes the prize list page into a csv of category, laureates and motivation.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := cfg.Override(config.Config{
			Prizes: config.PrizesConfig{
				Url: *prizesUrl,
				Csv: *prizesCsv,
			},
		})
		if err != nil {
			return err
		}

		client := prizes.NewClient(prizes.Options{
			Timeout:   cfg.Mirror.Timeout(),
			UserAgent: cfg.Mirror.UserAgent,
		}, tel)
		list, err := client.Fetch(cmd.Context(), cfg.Prizes.Url)
		if err != nil {
			return fmt.Errorf("fetch prize list: %w", err)
		}

		f, err := os.Create(cfg.Prizes.Csv)
		if err != nil {
			return fmt.Errorf("create prize csv: %w", err)
		}
		defer f.Close()
		err = prizes.WriteCSV(f, list)
		if err != nil {
			return fmt.Errorf("write prize csv: %w", err)
		}

		if *prizesPrint {
			t := newTable()
			t.AppendHeader(table.Row{"Category", "Laureates", "Motivation"})
			for _, p := range list {
				t.AppendRow(table.Row{p.Category, p.Laureates, p.Motivation})
			}
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 3, WidthMax: 60},
			})
			t.Render()
		}
		tel.ReportInfo("wrote prizes", len(list), cfg.Prizes.Csv)
		return nil
	},
}
