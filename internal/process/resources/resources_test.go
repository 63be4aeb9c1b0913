package resources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	devices    []Device
	devicesErr error
	memory     map[int]Memory
	memoryErr  map[int]error
	panics     bool
}

func (f *fakeProbe) Devices(context.Context) ([]Device, error) {
	if f.panics {
		panic("driver crashed")
	}

	return f.devices, f.devicesErr
}

func (f *fakeProbe) Memory(_ context.Context, id int) (Memory, error) {
	if err := f.memoryErr[id]; err != nil {
		return Memory{}, err
	}

	return f.memory[id], nil
}

func newTestMonitor(probe GPUProbe, cfg MonitorConfig, cpus int, goos string) *Monitor {
	m := NewMonitor(probe, cfg, nil)
	m.cpus = func() int { return cpus }
	m.goos = goos

	return m
}

func TestDetermineWorkerCount(t *testing.T) {
	errQuery := errors.New("query failed")
	oneGPU := []Device{{ID: 0, Name: "Tesla T4"}}
	twoGPUs := []Device{{ID: 0, Name: "A"}, {ID: 1, Name: "B"}}

	tests := []struct {
		name  string
		probe GPUProbe
		cfg   MonitorConfig
		cpus  int
		goos  string
		want  int
	}{
		{name: "no probe uses cpus minus one", cpus: 9, goos: "linux", want: 8},
		{name: "single core still gets one worker", cpus: 1, goos: "linux", want: 1},
		{name: "many cores are capped", cpus: 64, goos: "linux", want: MaxWorkers},
		{
			name:  "darwin ignores the probe",
			probe: &fakeProbe{devices: oneGPU, memory: map[int]Memory{0: {FreeMB: 100}}},
			cpus:  9, goos: goosDarwin, want: 8,
		},
		{name: "override wins", cfg: MonitorConfig{WorkerOverride: 3}, cpus: 9, goos: "linux", want: 3},
		{name: "override is capped", cfg: MonitorConfig{WorkerOverride: 40}, cpus: 9, goos: "linux", want: MaxWorkers},
		{name: "enumeration error", probe: &fakeProbe{devicesErr: errQuery}, cpus: 9, goos: "linux", want: 8},
		{name: "no accelerator", probe: &fakeProbe{devicesErr: ErrNoAccelerator}, cpus: 9, goos: "linux", want: 8},
		{name: "no devices", probe: &fakeProbe{}, cpus: 9, goos: "linux", want: 8},
		{
			name:  "devices without readable memory",
			probe: &fakeProbe{devices: twoGPUs, memoryErr: map[int]error{0: errQuery, 1: errQuery}},
			cpus:  9, goos: "linux", want: DefaultGPUWorkers,
		},
		{
			name:  "memory bound",
			probe: &fakeProbe{devices: oneGPU, memory: map[int]Memory{0: {TotalMB: 16000, FreeMB: 4096}}},
			cpus:  9, goos: "linux", want: 3,
		},
		{
			name:  "cpu bound",
			probe: &fakeProbe{devices: oneGPU, memory: map[int]Memory{0: {FreeMB: 40000}}},
			cpus:  9, goos: "linux", want: 8,
		},
		{
			name:  "tiny free memory still gets one worker",
			probe: &fakeProbe{devices: oneGPU, memory: map[int]Memory{0: {FreeMB: 100}}},
			cpus:  9, goos: "linux", want: 1,
		},
		{
			name: "failing device is skipped",
			probe: &fakeProbe{
				devices:   twoGPUs,
				memory:    map[int]Memory{1: {FreeMB: 8192}},
				memoryErr: map[int]error{0: errQuery},
			},
			cpus: 9, goos: "linux", want: 6,
		},
		{
			name:  "custom per-worker budget",
			probe: &fakeProbe{devices: oneGPU, memory: map[int]Memory{0: {FreeMB: 4000}}},
			cfg:   MonitorConfig{VRAMPerWorkerMB: 512},
			cpus:  9, goos: "linux", want: 6,
		},
		{name: "panicking probe", probe: &fakeProbe{panics: true}, cpus: 9, goos: "linux", want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMonitor(tt.probe, tt.cfg, tt.cpus, tt.goos)

			got := m.DetermineWorkerCount(context.Background())
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, MinWorkers)
			assert.LessOrEqual(t, got, MaxWorkers)
		})
	}
}

func TestVRAMInfo(t *testing.T) {
	probe := &fakeProbe{
		devices:   []Device{{ID: 0, Name: "A"}, {ID: 1, Name: "B"}},
		memory:    map[int]Memory{0: {TotalMB: 16000, UsedMB: 6000, FreeMB: 10000}},
		memoryErr: map[int]error{1: errors.New("device lost")},
	}

	info := newTestMonitor(probe, MonitorConfig{}, 4, "linux").VRAMInfo(context.Background())

	require.True(t, info.Available)
	require.Len(t, info.Devices, 2)
	assert.Equal(t, 10000, info.TotalFreeMB)
	assert.Equal(t, DeviceInfo{DeviceID: 0, Name: "A", TotalMB: 16000, UsedMB: 6000, FreeMB: 10000}, info.Devices[0])
	assert.Equal(t, "device lost", info.Devices[1].Error)
}

func TestVRAMInfoUnavailable(t *testing.T) {
	info := newTestMonitor(nil, MonitorConfig{}, 4, "linux").VRAMInfo(context.Background())

	assert.False(t, info.Available)
	assert.Empty(t, info.Devices)
	assert.Zero(t, info.TotalFreeMB)
}

func TestParseDevices(t *testing.T) {
	devices, err := parseDevices([]byte("0, Tesla T4\n1, NVIDIA A100-SXM4-40GB\n"))
	require.NoError(t, err)
	assert.Equal(t, []Device{{ID: 0, Name: "Tesla T4"}, {ID: 1, Name: "NVIDIA A100-SXM4-40GB"}}, devices)

	_, err = parseDevices([]byte("zero, Tesla"))
	require.ErrorIs(t, err, errMalformedQuery)
}

func TestParseMemory(t *testing.T) {
	mem, err := parseMemory([]byte("15360, 1024, 14336\n"))
	require.NoError(t, err)
	assert.Equal(t, Memory{TotalMB: 15360, UsedMB: 1024, FreeMB: 14336}, mem)

	_, err = parseMemory([]byte("[N/A], 0, 0"))
	require.ErrorIs(t, err, errMalformedQuery)

	_, err = parseMemory([]byte("1, 2"))
	require.ErrorIs(t, err, errMalformedQuery)
}

func TestNvidiaSMIMissing(t *testing.T) {
	n := &NvidiaSMI{}

	_, err := n.Devices(context.Background())
	require.ErrorIs(t, err, ErrNoAccelerator)
}

type countingReleaser struct {
	calls int
	err   error
}

func (c *countingReleaser) Release(context.Context) error {
	c.calls++
	return c.err
}

type countingCache struct{ cleared int }

func (c *countingCache) Clear() { c.cleared++ }

func TestReclaimIsIdempotent(t *testing.T) {
	rel := &countingReleaser{}
	cache := &countingCache{}
	r := NewReclaimer(rel, newTestMonitor(nil, MonitorConfig{}, 4, "linux"), nil)

	ctx := context.Background()

	require.NotPanics(t, func() {
		r.Reclaim(ctx, TriggerBatch, cache)
		r.Reclaim(ctx, TriggerManual, cache, nil)
	})

	assert.Equal(t, 2, rel.calls)
	assert.Equal(t, 2, cache.cleared)
}

func TestReclaimToleratesReleaseFailure(t *testing.T) {
	r := NewReclaimer(&countingReleaser{err: errors.New("sidecar down")}, nil, nil)

	assert.NotPanics(t, func() { r.Reclaim(context.Background(), TriggerManual) })
}

func TestReclaimWithNothingLoaded(t *testing.T) {
	r := NewReclaimer(nil, nil, nil)

	assert.NotPanics(t, func() { r.Reclaim(context.Background(), TriggerBatch) })
}
