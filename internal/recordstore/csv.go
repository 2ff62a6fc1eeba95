package recordstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CSVStore appends two column rows (identifier, address) without a header. The file is
// opened, written and closed for every row so an interrupted batch never loses earlier rows.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) CSVStore {
	return CSVStore{path: path}
}

func (s CSVStore) Path() string {
	return s.path
}

func (s CSVStore) Append(ctx context.Context, record Record) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		err = os.MkdirAll(dir, 0777)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("%w: %w", ErrPersistence, closeErr)
		}
	}()

	writer := csv.NewWriter(f)
	err = writer.Write([]string{record.Identifier, record.Address})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	writer.Flush()
	err = writer.Error()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s CSVStore) Close() error {
	return nil
}

// ReadCSV returns the records of a file written by CSVStore in append order.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		records = append(records, Record{Identifier: row[0], Address: row[1]})
	}
	return records, nil
}
