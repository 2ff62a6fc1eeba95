package prizes

import (
	"encoding/csv"
	"io"
)

var csvHeader = []string{"category", "laureates", "motivation"}

// WriteCSV writes a header row followed by one row per prize.
func WriteCSV(w io.Writer, prizes []Prize) error {
	writer := csv.NewWriter(w)
	err := writer.Write(csvHeader)
	if err != nil {
		return err
	}
	for _, p := range prizes {
		err = writer.Write([]string{p.Category, p.Laureates, p.Motivation})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
