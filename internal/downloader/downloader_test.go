package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"paperscrape/internal/components/telemetry"
	"paperscrape/internal/recordstore"
	"paperscrape/internal/scrapers/mirror"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	addresses     map[string]string
	failDownloads map[string]bool
	panics        map[string]bool

	fetched    []string
	downloaded []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, identifier string) (mirror.Result, error) {
	f.fetched = append(f.fetched, identifier)
	if f.panics[identifier] {
		panic("unexpected page")
	}
	address, ok := f.addresses[identifier]
	if !ok {
		return mirror.Result{Identifier: identifier}, fmt.Errorf("%w: no #pdf element", mirror.ErrExtraction)
	}
	return mirror.Result{Identifier: identifier, Address: address}, nil
}

func (f *fakeFetcher) Download(ctx context.Context, address, dir string) (string, error) {
	f.downloaded = append(f.downloaded, address)
	if f.failDownloads[address] {
		return "", fmt.Errorf("%w: status 404", mirror.ErrDownload)
	}
	name, err := mirror.DocumentName(address)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, name)
	return target, os.WriteFile(target, []byte("%PDF"), 0644)
}

type memoryStore struct {
	records []recordstore.Record
	fail    bool
}

func (s *memoryStore) Append(ctx context.Context, record recordstore.Record) error {
	if s.fail {
		return recordstore.ErrPersistence
	}
	s.records = append(s.records, record)
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}

func newFetcher() *fakeFetcher {
	return &fakeFetcher{
		addresses: map[string]string{
			"10.1000/abc": "https://sci-hub.se/downloads/2020/10.1000/abc.pdf",
			"10.1000/def": "https://sci-hub.se/tree/def.pdf",
		},
		failDownloads: map[string]bool{
			"https://sci-hub.se/tree/def.pdf": true,
		},
		panics: map[string]bool{
			"10.1000/boom": true,
		},
	}
}

func TestRun(t *testing.T) {
	fetcher := newFetcher()
	store := &memoryStore{}
	progress := bytes.NewBuffer(nil)
	tel := telemetry.NewRecorder()
	dir := filepath.Join(t.TempDir(), "downloads")

	runner := NewRunner(fetcher, store, Options{
		OutputDir: dir,
		Progress:  progress,
	}, tel)

	summary, err := runner.Run(context.Background(), []string{
		"10.1000/abc",
		"10.1000/missing",
		"10.1000/boom",
		"10.1000/def",
	})
	require.NoError(t, err)

	require.Equal(t, []string{"10.1000/abc", "10.1000/missing", "10.1000/boom", "10.1000/def"}, fetcher.fetched)

	var statuses []Status
	for _, o := range summary.Outcomes {
		statuses = append(statuses, o.Status)
	}
	require.Equal(t, []Status{StatusDownloaded, StatusNotFound, StatusPanicked, StatusDownloadFailed}, statuses)
	require.Equal(t, 2, summary.Found())
	require.Equal(t, 1, summary.Count(StatusPanicked))

	require.ErrorIs(t, summary.Outcomes[1].Err, mirror.ErrExtraction)
	require.ErrorIs(t, summary.Outcomes[2].Err, ErrPanic)
	require.ErrorIs(t, summary.Outcomes[3].Err, mirror.ErrDownload)
	require.Equal(t, filepath.Join(dir, "abc.pdf"), summary.Outcomes[0].Path)
	require.FileExists(t, filepath.Join(dir, "abc.pdf"))

	// a failed download still records the resolved address, a miss records nothing
	expected := []recordstore.Record{
		{Identifier: "10.1000/abc", Address: "https://sci-hub.se/downloads/2020/10.1000/abc.pdf"},
		{Identifier: "10.1000/def", Address: "https://sci-hub.se/tree/def.pdf"},
	}
	diff := cmp.Diff(expected, store.records)
	if diff != "" {
		t.Fatal(diff)
	}

	lines := strings.Split(strings.TrimSpace(progress.String()), "\n")
	require.Contains(t, lines, "Processing 10.1000/abc")
	require.Contains(t, lines, "10.1000/abc: downloaded")
	require.Contains(t, lines, "10.1000/missing: not found")
	require.Contains(t, lines, "10.1000/def: download failed")
	require.Equal(t, []string{"downloader: runner.panic"}, tel.IDs(telemetry.LevelBroken))
}

func TestRunSkipDownload(t *testing.T) {
	fetcher := newFetcher()
	store := &memoryStore{}

	runner := NewRunner(fetcher, store, Options{
		SkipDownload: true,
		Progress:     bytes.NewBuffer(nil),
	}, telemetry.NewRecorder())

	summary, err := runner.Run(context.Background(), []string{"10.1000/abc", "10.1000/def"})
	require.NoError(t, err)
	require.Empty(t, fetcher.downloaded)
	require.Equal(t, 2, summary.Count(StatusResolved))
	require.Len(t, store.records, 2)
}

func TestRunPersistenceFailure(t *testing.T) {
	fetcher := newFetcher()
	store := &memoryStore{fail: true}
	tel := telemetry.NewRecorder()

	runner := NewRunner(fetcher, store, Options{
		SkipDownload: true,
		Progress:     bytes.NewBuffer(nil),
	}, tel)

	summary, err := runner.Run(context.Background(), []string{"10.1000/abc", "10.1000/def"})
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	for _, o := range summary.Outcomes {
		require.False(t, o.Recorded)
		require.ErrorIs(t, o.Err, recordstore.ErrPersistence)
	}
	require.Equal(t,
		[]string{"downloader: runner.persist", "downloader: runner.persist"},
		tel.IDs(telemetry.LevelBroken),
	)
}

func TestRunCancelled(t *testing.T) {
	fetcher := newFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(fetcher, &memoryStore{}, Options{
		SkipDownload: true,
		Progress:     bytes.NewBuffer(nil),
	}, telemetry.NewRecorder())

	summary, err := runner.Run(ctx, []string{"10.1000/abc"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, summary.Outcomes)
	require.Empty(t, fetcher.fetched)
}
