package resources

import (
	"context"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/platform/observability"
)

// Reclaim triggers, used as metric labels.
const (
	TriggerBatch    = "batch"
	TriggerPeriodic = "periodic"
	TriggerManual   = "manual"
)

// Releaser frees accelerator caches held by the encoder without unloading it.
type Releaser interface {
	Release(ctx context.Context) error
}

// Clearer drops a batch-scoped cache.
type Clearer interface {
	Clear()
}

// Reclaimer returns memory to the system after a batch. It is safe to call
// repeatedly and when nothing has been loaded.
type Reclaimer struct {
	releaser Releaser
	monitor  *Monitor
	logger   *zerolog.Logger
}

// NewReclaimer builds a Reclaimer. Both releaser and monitor may be nil.
func NewReclaimer(releaser Releaser, monitor *Monitor, logger *zerolog.Logger) *Reclaimer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Reclaimer{releaser: releaser, monitor: monitor, logger: logger}
}

// FreeMemory runs a collection and returns freed heap to the OS.
func (r *Reclaimer) FreeMemory() {
	runtime.GC()
	debug.FreeOSMemory()
}

// Reclaim clears the given caches, frees memory, asks the encoder to drop its
// accelerator cache and logs the remaining device memory.
func (r *Reclaimer) Reclaim(ctx context.Context, trigger string, caches ...Clearer) {
	for _, c := range caches {
		if c != nil {
			c.Clear()
		}
	}

	r.FreeMemory()

	if r.releaser != nil {
		if err := r.releaser.Release(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("encoder cache release failed")
		}
	}

	observability.ReclaimRuns.WithLabelValues(trigger).Inc()

	if r.monitor == nil {
		return
	}

	info := r.monitor.VRAMInfo(ctx)
	if !info.Available {
		return
	}

	for _, d := range info.Devices {
		r.logger.Debug().
			Int("device", d.DeviceID).
			Int("free_mb", d.FreeMB).
			Int("total_mb", d.TotalMB).
			Msg("accelerator memory after reclaim")
	}
}
