package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"paperscrape/internal/components/chrono"
	"paperscrape/internal/components/telemetry"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testUserAgent = "paperscrape-test/1.0"

type fakeMirror struct {
	mu       sync.Mutex
	lookups  []string
	arrivals []time.Time
	agents   []string

	// body returned for a lookup by identifier, missing identifiers get a page without the anchor
	pages  map[string]string
	status int
	delay  time.Duration
	files  map[string][]byte
}

func (m *fakeMirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		content, ok := m.files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(content)
		return
	}

	m.mu.Lock()
	m.arrivals = append(m.arrivals, time.Now())
	m.agents = append(m.agents, r.UserAgent())
	identifier := r.FormValue("request")
	m.lookups = append(m.lookups, identifier)
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.status != 0 {
		w.WriteHeader(m.status)
		return
	}
	page, ok := m.pages[identifier]
	if !ok {
		page = `<html><body><p>article not found</p></body></html>`
	}
	w.Write([]byte(page))
}

func newTestClient(t *testing.T, server *httptest.Server, rateLimit time.Duration, clock chrono.API) (*Client, *telemetry.Recorder) {
	tel := telemetry.NewRecorder()
	client, err := NewClient(Options{
		BaseUrl:   server.URL + "/",
		Timeout:   time.Second * 5,
		RateLimit: rateLimit,
		UserAgent: testUserAgent,
		Clock:     clock,
	}, tel)
	require.NoError(t, err)
	return client, tel
}

func TestFetchFound(t *testing.T) {
	mirror := &fakeMirror{pages: map[string]string{
		"10.1000/abc": string(page(`<embed id="pdf" src="/downloads/2020/10.1000/abc.pdf#navpanes=0&view=FitH">`)),
	}}
	server := httptest.NewServer(mirror)
	defer server.Close()

	client, tel := newTestClient(t, server, 0, nil)

	result, err := client.Fetch(context.Background(), "10.1000/abc")
	require.NoError(t, err)
	require.True(t, result.Found())
	require.Equal(t, "10.1000/abc", result.Identifier)
	require.Equal(t, server.URL+"/downloads/2020/10.1000/abc.pdf", result.Address)

	require.Equal(t, []string{"10.1000/abc"}, mirror.lookups)
	require.Equal(t, []string{testUserAgent}, mirror.agents)
	require.Equal(t, []string{"mirror_scraper: fetching", "mirror_scraper: resolved"}, tel.IDs(telemetry.LevelInfo))
	require.Empty(t, tel.Reports(telemetry.LevelBroken))
}

func TestFetchNoAnchor(t *testing.T) {
	mirror := &fakeMirror{}
	server := httptest.NewServer(mirror)
	defer server.Close()

	client, tel := newTestClient(t, server, 0, nil)

	result, err := client.Fetch(context.Background(), "10.1000/missing")
	require.ErrorIs(t, err, ErrExtraction)
	require.False(t, result.Found())
	require.Equal(t, []string{"mirror_scraper: client.fetch"}, tel.IDs(telemetry.LevelBroken))

	// the request itself completed, so the throttle baseline moved
	require.False(t, client.throttle.Last().IsZero())
}

func TestFetchRequestError(t *testing.T) {
	mirror := &fakeMirror{status: http.StatusInternalServerError}
	server := httptest.NewServer(mirror)
	defer server.Close()

	client, tel := newTestClient(t, server, 0, nil)

	result, err := client.Fetch(context.Background(), "10.1000/abc")
	require.ErrorIs(t, err, ErrRequest)
	require.NotErrorIs(t, err, ErrExtraction)
	require.False(t, result.Found())
	require.Len(t, tel.Reports(telemetry.LevelBroken), 1)
	// the response arrived, so the throttle baseline moved
	require.False(t, client.throttle.Last().IsZero())
}

func TestFetchTimeout(t *testing.T) {
	mirror := &fakeMirror{delay: 300 * time.Millisecond}
	server := httptest.NewServer(mirror)
	defer server.Close()

	client, err := NewClient(Options{
		BaseUrl:   server.URL,
		Timeout:   50 * time.Millisecond,
		UserAgent: testUserAgent,
	}, telemetry.NewRecorder())
	require.NoError(t, err)

	result, err := client.Fetch(context.Background(), "10.1000/slow")
	require.ErrorIs(t, err, ErrRequest)
	require.False(t, result.Found())
	require.True(t, client.throttle.Last().IsZero())
}

func TestFetchEmptyIdentifier(t *testing.T) {
	mirror := &fakeMirror{}
	server := httptest.NewServer(mirror)
	defer server.Close()

	client, _ := newTestClient(t, server, 0, nil)

	result, err := client.Fetch(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyIdentifier)
	require.False(t, result.Found())
	require.Empty(t, mirror.lookups)
}

func TestFetchThrottleWaits(t *testing.T) {
	mirror := &fakeMirror{}
	server := httptest.NewServer(mirror)
	defer server.Close()

	clock := chrono.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	client, _ := newTestClient(t, server, 10*time.Second, clock)

	for _, id := range []string{"a", "b", "c"} {
		_, err := client.Fetch(context.Background(), id)
		require.ErrorIs(t, err, ErrExtraction)
	}

	// the fake clock does not move while the request is in flight, so each wait is the full interval
	require.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, clock.Sleeps())
	require.Equal(t, []string{"a", "b", "c"}, mirror.lookups)
}

func TestFetchRequestSpacing(t *testing.T) {
	mirror := &fakeMirror{pages: map[string]string{
		"ok": string(page(`<embed id="pdf" src="/downloads/ok.pdf">`)),
	}}
	server := httptest.NewServer(mirror)
	defer server.Close()

	interval := 60 * time.Millisecond
	client, _ := newTestClient(t, server, interval, nil)

	for i := 0; i < 4; i++ {
		_, err := client.Fetch(context.Background(), "ok")
		require.NoError(t, err)
	}

	require.Len(t, mirror.arrivals, 4)
	for i := 1; i < len(mirror.arrivals); i++ {
		require.GreaterOrEqual(t, mirror.arrivals[i].Sub(mirror.arrivals[i-1]), interval)
	}
}

func TestDownload(t *testing.T) {
	content := []byte("%PDF-1.4 test document")
	mirror := &fakeMirror{files: map[string][]byte{
		"/downloads/2020/10.1000/abc.pdf": content,
	}}
	server := httptest.NewServer(mirror)
	defer server.Close()

	client, tel := newTestClient(t, server, 0, nil)
	dir := filepath.Join(t.TempDir(), "downloads")

	target, err := client.Download(context.Background(), server.URL+"/downloads/2020/10.1000/abc.pdf", dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "abc.pdf"), target)

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, content, written)
	require.Contains(t, tel.IDs(telemetry.LevelInfo), "mirror_scraper: downloaded")

	_, err = client.Download(context.Background(), server.URL+"/downloads/missing.pdf", dir)
	require.ErrorIs(t, err, ErrDownload)
	_, err = os.Stat(filepath.Join(dir, "missing.pdf"))
	require.True(t, os.IsNotExist(err))
}

func TestDocumentName(t *testing.T) {
	name, err := DocumentName("https://sci-hub.se/downloads/2020/10.1000/abc.pdf")
	require.NoError(t, err)
	require.Equal(t, "abc.pdf", name)

	_, err = DocumentName("https://sci-hub.se/")
	require.Error(t, err)
}
