// Package resources sizes the scoring worker pool from CPU and accelerator memory
// and releases memory after batches.
package resources

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/platform/observability"
	"github.com/haimeda/statement-scorer/internal/platform/worker"
)

const (
	// MinWorkers and MaxWorkers bound every worker count.
	MinWorkers = 1
	MaxWorkers = 16

	// DefaultGPUWorkers is used when devices exist but none reported free memory.
	DefaultGPUWorkers = 4

	// DefaultVRAMPerWorkerMB is the accelerator memory budget of one worker.
	DefaultVRAMPerWorkerMB = 1024

	// DefaultQueryTimeout bounds each hardware query.
	DefaultQueryTimeout = 5 * time.Second

	usableVRAMFraction = 0.8
	goosDarwin         = "darwin"
)

// ErrNoAccelerator is returned by probes when no accelerator tooling is present.
var ErrNoAccelerator = errors.New("no accelerator available")

// Device identifies one accelerator.
type Device struct {
	ID   int
	Name string
}

// Memory is a device's memory in megabytes.
type Memory struct {
	TotalMB int
	UsedMB  int
	FreeMB  int
}

// GPUProbe queries accelerator hardware.
type GPUProbe interface {
	Devices(ctx context.Context) ([]Device, error)
	Memory(ctx context.Context, deviceID int) (Memory, error)
}

// DeviceInfo is the reported state of one device. Error is set when its memory query failed.
type DeviceInfo struct {
	DeviceID int    `json:"device_id"`
	Name     string `json:"name"`
	TotalMB  int    `json:"total_mb"`
	UsedMB   int    `json:"used_mb"`
	FreeMB   int    `json:"free_mb"`
	Error    string `json:"error,omitempty"`
}

// VRAMInfo summarizes accelerator memory. Available=false means no accelerator could be queried.
type VRAMInfo struct {
	Available   bool         `json:"available"`
	Devices     []DeviceInfo `json:"devices"`
	TotalFreeMB int          `json:"total_free_mb"`
}

// MonitorConfig tunes worker sizing.
type MonitorConfig struct {
	WorkerOverride  int
	VRAMPerWorkerMB int
	QueryTimeout    time.Duration
}

// Monitor sizes the worker pool.
type Monitor struct {
	probe  GPUProbe
	cfg    MonitorConfig
	logger *zerolog.Logger

	cpus func() int
	goos string
}

// NewMonitor builds a Monitor. A nil probe means no accelerator.
func NewMonitor(probe GPUProbe, cfg MonitorConfig, logger *zerolog.Logger) *Monitor {
	if cfg.VRAMPerWorkerMB <= 0 {
		cfg.VRAMPerWorkerMB = DefaultVRAMPerWorkerMB
	}

	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Monitor{
		probe:  probe,
		cfg:    cfg,
		logger: logger,
		cpus:   runtime.NumCPU,
		goos:   runtime.GOOS,
	}
}

// DetermineWorkerCount returns the number of scoring workers, always within
// [MinWorkers, MaxWorkers]. Any failure, including a panic, yields the CPU default.
func (m *Monitor) DetermineWorkerCount(ctx context.Context) (n int) {
	cpuDefault := clampWorkers(m.cpus() - 1)

	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn().Interface("panic", r).Msg("worker sizing panicked, using CPU default")

			n = cpuDefault
		}

		observability.WorkerCount.Set(float64(n))
	}()

	if m.cfg.WorkerOverride > 0 {
		return clampWorkers(m.cfg.WorkerOverride)
	}

	if m.goos == goosDarwin || m.probe == nil {
		return cpuDefault
	}

	info := m.VRAMInfo(ctx)
	if !info.Available {
		return cpuDefault
	}

	if !anyMemoryRead(info.Devices) {
		return DefaultGPUWorkers
	}

	usable := float64(info.TotalFreeMB) * usableVRAMFraction
	vramWorkers := int(usable / float64(m.cfg.VRAMPerWorkerMB))

	n = clampWorkers(min(vramWorkers, m.cpus()-1))

	m.logger.Debug().
		Int("free_mb", info.TotalFreeMB).
		Int("vram_workers", vramWorkers).
		Int("workers", n).
		Msg("sized worker pool from accelerator memory")

	return n
}

// VRAMInfo queries every device's memory. A failing device is reported with its
// error and excluded from TotalFreeMB.
func (m *Monitor) VRAMInfo(ctx context.Context) VRAMInfo {
	info := VRAMInfo{Devices: []DeviceInfo{}}
	if m.probe == nil || m.goos == goosDarwin {
		return info
	}

	var devices []Device

	err := worker.RunWithTimeout(ctx, m.cfg.QueryTimeout, func(ctx context.Context) error {
		var err error

		devices, err = m.probe.Devices(ctx)

		return err
	})
	if err != nil || len(devices) == 0 {
		if err != nil && !errors.Is(err, ErrNoAccelerator) {
			m.logger.Debug().Err(err).Msg("accelerator enumeration failed")
		}

		return info
	}

	info.Available = true

	for _, d := range devices {
		di := DeviceInfo{DeviceID: d.ID, Name: d.Name}

		var mem Memory

		err := worker.RunWithTimeout(ctx, m.cfg.QueryTimeout, func(ctx context.Context) error {
			var err error

			mem, err = m.probe.Memory(ctx, d.ID)

			return err
		})
		if err != nil {
			m.logger.Debug().Err(err).Int("device", d.ID).Msg("device memory query failed")

			di.Error = err.Error()
			info.Devices = append(info.Devices, di)

			continue
		}

		di.TotalMB, di.UsedMB, di.FreeMB = mem.TotalMB, mem.UsedMB, mem.FreeMB
		info.TotalFreeMB += mem.FreeMB
		info.Devices = append(info.Devices, di)

		observability.GPUFreeMemoryMB.WithLabelValues(strconv.Itoa(d.ID)).Set(float64(mem.FreeMB))
	}

	return info
}

func anyMemoryRead(devices []DeviceInfo) bool {
	for _, d := range devices {
		if d.Error == "" {
			return true
		}
	}

	return false
}

func clampWorkers(n int) int {
	return max(MinWorkers, min(MaxWorkers, n))
}
