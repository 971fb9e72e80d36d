// Package watchdog watches the process that launched the relay.
package watchdog

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ExistsFunc reports whether a process with the given pid is alive.
type ExistsFunc func(ctx context.Context, pid int32) (bool, error)

// Watchdog polls a parent pid and fires once when it disappears.
type Watchdog struct {
	pid      int32
	interval time.Duration
	exists   ExistsFunc
	log      *slog.Logger
}

// New creates a Watchdog for pid probing with gopsutil.
func New(pid int, interval time.Duration, logger *slog.Logger) *Watchdog {
	return NewWithProbe(pid, interval, process.PidExistsWithContext, logger)
}

// NewWithProbe creates a Watchdog with a custom existence probe.
func NewWithProbe(pid int, interval time.Duration, exists ExistsFunc, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		pid:      int32(pid),
		interval: interval,
		exists:   exists,
		log:      logger.With("component", "watchdog"),
	}
}

// Run polls until ctx is cancelled or the parent is gone. onGone is called
// at most once, on the first poll that finds no process. Probe errors are
// logged and treated as alive. A non-positive pid disables the watchdog.
func (w *Watchdog) Run(ctx context.Context, onGone func()) {
	if w.pid <= 0 {
		w.log.Debug("no parent pid, watchdog disabled")
		return
	}

	w.log.Info("watching parent process",
		slog.Int("pid", int(w.pid)),
		slog.Duration("interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			alive, err := w.exists(ctx, w.pid)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.Warn("parent probe failed", slog.String("error", err.Error()))
				continue
			}
			if !alive {
				w.log.Info("parent process exited", slog.Int("pid", int(w.pid)))
				onGone()
				return
			}
		}
	}
}
