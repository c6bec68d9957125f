package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chat-core/contract"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically logs process health and the live
// session count. Observability only; it touches no domain state.
type TelemetryWorker struct {
	log            *slog.Logger
	registry       contract.Registry
	metricInterval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, registry contract.Registry,
	metricInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, registry: registry, metricInterval: metricInterval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		w.log.Warn("Process telemetry unavailable", "error", err)
		proc = nil
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			fields := []any{"sessions", w.registry.Count()}
			if proc != nil {
				if cpu, err := proc.CPUPercent(); err == nil {
					fields = append(fields, "cpu_percent", cpu)
				}
				if ram, err := proc.MemoryPercent(); err == nil {
					fields = append(fields, "ram_percent", ram)
				}
			}
			w.log.Info("Telemetry", fields...)
		}
	}
}
