package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InitSlog points the default slog logger at an append-only log file, one line per record with
// the time, level and message. An empty path logs to stderr. The returned closer closes the file.
func InitSlog(path string, debug bool) (io.Closer, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var out io.WriteCloser = nopCloser{os.Stderr}
	if path != "" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, fmt.Errorf("init slog: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("init slog: %w", err)
		}
		out = file
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	})))
	return out, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// SlogAPI implements API using the log/slog package, counts are additionally recorded as
// OpenTelemetry gauges on the global meter provider.
type SlogAPI struct {
	meter  metric.Meter
	gauges *sync.Map
}

func NewSlogAPI() SlogAPI {
	return SlogAPI{
		meter:  otel.Meter("paperscrape"),
		gauges: &sync.Map{},
	}
}

func (SlogAPI) formatParams(out *[]any, params []any) {
	for i, p := range params {
		*out = append(
			*out,
			fmt.Sprintf("params.%d", i),
			p,
		)
	}
}

// metricName turns a scoped id ("downloader: found") into a valid instrument name ("downloader.found").
func metricName(id string) string {
	return strings.NewReplacer(": ", ".", " ", "_").Replace(id)
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

func (s SlogAPI) ReportInfo(message string, params ...any) {
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	slog.Info(message, remainingPairs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	slog.Debug(message, remainingPairs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)

	if s.gauges == nil {
		return
	}
	gauge, ok := s.gauges.Load(id)
	if !ok {
		created, err := s.meter.Int64Gauge(metricName(id))
		if err != nil {
			slog.Warn("create gauge", "id", id, "err", err)
			return
		}
		gauge, _ = s.gauges.LoadOrStore(id, created)
	}
	gauge.(metric.Int64Gauge).Record(context.Background(), count)
}
