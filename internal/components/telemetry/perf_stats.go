package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

const (
	report_perf_cpu        = "perf.cpu-percent"
	report_perf_memory     = "perf.allocated-mb"
	report_perf_objects    = "perf.live-objects"
	report_perf_goroutines = "perf.goroutine-count"
)

// InstrumentPerfStats reports process resource usage every `interval` until ctx is done.
func InstrumentPerfStats(ctx context.Context, tel API, interval time.Duration) {
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				cpuUsage, err := cpu.PercentWithContext(ctx, time.Second, false)
				if err == nil && len(cpuUsage) > 0 {
					tel.ReportCount(report_perf_cpu, int64(cpuUsage[0]))
				} else if err != nil {
					tel.ReportWarning(report_perf_cpu, err)
				}

				tel.ReportCount(report_perf_memory, int64(memStats.Alloc/1_000_000))
				tel.ReportCount(report_perf_objects, int64(memStats.Mallocs)-int64(memStats.Frees))
				tel.ReportCount(report_perf_goroutines, int64(runtime.NumGoroutine()))
			case <-ctx.Done():
				return
			}
		}
	}()
}
