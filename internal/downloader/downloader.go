// Package downloader drives a batch: every identifier is resolved, optionally downloaded and
// recorded, one after the other. A failure on one identifier never stops the batch.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"paperscrape/internal/components/assert"
	"paperscrape/internal/components/telemetry"
	"paperscrape/internal/recordstore"
	"paperscrape/internal/scrapers/mirror"
	"runtime/debug"
)

const (
	report_runner_persist = "runner.persist"
	report_runner_panic   = "runner.panic"
)

var ErrPanic = errors.New("recovered panic")

// Fetcher is the part of mirror.Client a batch needs.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) (mirror.Result, error)
	Download(ctx context.Context, address, dir string) (string, error)
}

type Status int

const (
	StatusNotFound Status = iota
	StatusResolved
	StatusDownloaded
	StatusDownloadFailed
	StatusPanicked
)

func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "not found"
	case StatusResolved:
		return "resolved"
	case StatusDownloaded:
		return "downloaded"
	case StatusDownloadFailed:
		return "download failed"
	case StatusPanicked:
		return "panicked"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Outcome struct {
	Identifier string
	Status     Status
	Address    string
	// Path is where the document was written, empty unless Status is StatusDownloaded.
	Path string
	// Recorded is true when the record reached the store.
	Recorded bool
	Err      error
}

type Summary struct {
	Outcomes []Outcome
}

func (s Summary) Count(status Status) int {
	count := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			count++
		}
	}
	return count
}

// Found is the number of identifiers that resolved to an address.
func (s Summary) Found() int {
	return s.Count(StatusResolved) + s.Count(StatusDownloaded) + s.Count(StatusDownloadFailed)
}

type Options struct {
	// OutputDir receives the documents, it is created if missing.
	OutputDir string
	// SkipDownload only resolves and records addresses.
	SkipDownload bool
	// Progress receives one line per identifier, defaults to os.Stdout.
	Progress io.Writer
}

type Runner struct {
	fetcher  Fetcher
	store    recordstore.Store
	opts     Options
	progress io.Writer
	tel      telemetry.API
}

func NewRunner(fetcher Fetcher, store recordstore.Store, opts Options, tel telemetry.API) Runner {
	assert.NotNil(fetcher)
	assert.NotNil(store)
	assert.NotNil(tel)
	if !opts.SkipDownload {
		assert.NotEmptyStr(opts.OutputDir)
	}

	progress := opts.Progress
	if progress == nil {
		progress = os.Stdout
	}
	return Runner{
		fetcher:  fetcher,
		store:    store,
		opts:     opts,
		progress: progress,
		tel:      telemetry.NewScopedAPI("downloader", tel),
	}
}

// Run processes the identifiers in order. It only returns early (with the outcomes so far)
// when ctx is cancelled or the output directory cannot be created.
func (r Runner) Run(ctx context.Context, identifiers []string) (Summary, error) {
	summary := Summary{}

	if !r.opts.SkipDownload {
		err := os.MkdirAll(r.opts.OutputDir, 0777)
		if err != nil {
			return summary, fmt.Errorf("create output dir: %w", err)
		}
	}

	for _, identifier := range identifiers {
		err := ctx.Err()
		if err != nil {
			return summary, err
		}

		fmt.Fprintf(r.progress, "Processing %s\n", identifier)
		outcome := r.process(ctx, identifier)
		fmt.Fprintf(r.progress, "%s: %s\n", identifier, outcome.Status)

		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	r.tel.ReportCount("found", int64(summary.Found()))
	r.tel.ReportCount("processed", int64(len(summary.Outcomes)))
	return summary, nil
}

func (r Runner) process(ctx context.Context, identifier string) (outcome Outcome) {
	outcome = Outcome{Identifier: identifier}

	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		outcome.Status = StatusPanicked
		outcome.Err = fmt.Errorf("%w: %v", ErrPanic, recovered)
		fmt.Fprintf(r.progress, "%s: %v\n", identifier, outcome.Err)
		r.tel.ReportBroken(report_runner_panic, identifier, recovered, string(debug.Stack()))
	}()

	result, err := r.fetcher.Fetch(ctx, identifier)
	if err != nil || !result.Found() {
		outcome.Status = StatusNotFound
		outcome.Err = err
		return outcome
	}
	outcome.Address = result.Address
	outcome.Status = StatusResolved

	if !r.opts.SkipDownload {
		path, err := r.fetcher.Download(ctx, result.Address, r.opts.OutputDir)
		if err != nil {
			outcome.Status = StatusDownloadFailed
			outcome.Err = err
		} else {
			outcome.Status = StatusDownloaded
			outcome.Path = path
		}
	}

	// the record holds the resolved address, so it is kept even when the download failed
	err = r.store.Append(ctx, recordstore.Record{
		Identifier: identifier,
		Address:    result.Address,
	})
	if err != nil {
		r.tel.ReportBroken(report_runner_persist, err, identifier)
		outcome.Err = errors.Join(outcome.Err, err)
		return outcome
	}
	outcome.Recorded = true
	return outcome
}
