// Package recordstore persists the (identifier, address) pairs a batch resolves.
// Every store is append only: nothing is deduplicated and nothing is overwritten.
package recordstore

import (
	"context"
	"errors"
)

var ErrPersistence = errors.New("could not persist record")

type Record struct {
	Identifier string
	Address    string
}

type Store interface {
	Append(ctx context.Context, record Record) error
	Close() error
}

// Tee appends every record to all of its stores in order. An Append that fails on one store
// still reaches the others, the failures are joined.
type Tee []Store

func (t Tee) Append(ctx context.Context, record Record) error {
	var errs []error
	for _, store := range t {
		err := store.Append(ctx, record)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t Tee) Close() error {
	var errs []error
	for _, store := range t {
		err := store.Close()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
