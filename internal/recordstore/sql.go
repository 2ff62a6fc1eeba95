package recordstore

import (
	"context"
	"database/sql"
	"fmt"
	"paperscrape/pkg/migrations"

	_ "embed"
)

//go:embed schema.sql
var Schema string

// SQLStore keeps records in a sqlite (or libsql) table, one row per Append.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens and migrates the database at path, see migrations.OpenDB for the
// accepted paths.
func OpenSQLStore(path string) (SQLStore, error) {
	db, err := migrations.OpenAndMigrateDB(Schema, path)
	if err != nil {
		return SQLStore{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return SQLStore{db: db}, nil
}

func (s SQLStore) Append(ctx context.Context, record Record) error {
	_, err := s.db.ExecContext(
		ctx,
		"insert into record(identifier, address) values (?, ?)",
		record.Identifier,
		record.Address,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// List returns every record in insertion order.
func (s SQLStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, "select identifier, address from record order by id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		err = rows.Scan(&record.Identifier, &record.Address)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s SQLStore) Close() error {
	return s.db.Close()
}
