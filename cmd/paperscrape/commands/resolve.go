package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>...",
	Short: "Resolves the document address of each identifier without downloading or recording anything.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newMirrorClient()
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Identifier", "Address"})
		for _, identifier := range args {
			if cmd.Context().Err() != nil {
				break
			}
			result, err := client.Fetch(cmd.Context(), identifier)
			if err != nil {
				t.AppendRow(table.Row{identifier, fmt.Sprintf("not found (%v)", err)})
				continue
			}
			t.AppendRow(table.Row{identifier, result.Address})
		}
		t.Render()
		return cmd.Context().Err()
	},
}
