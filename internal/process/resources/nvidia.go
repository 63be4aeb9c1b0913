package resources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const nvidiaSMI = "nvidia-smi"

var errMalformedQuery = errors.New("malformed nvidia-smi output")

// NvidiaSMI probes NVIDIA devices through the nvidia-smi tool.
type NvidiaSMI struct {
	path string
}

// NewNvidiaSMI locates nvidia-smi on PATH. When it is missing every query returns ErrNoAccelerator.
func NewNvidiaSMI() *NvidiaSMI {
	path, err := exec.LookPath(nvidiaSMI)
	if err != nil {
		return &NvidiaSMI{}
	}

	return &NvidiaSMI{path: path}
}

// Devices lists the visible devices.
func (n *NvidiaSMI) Devices(ctx context.Context) ([]Device, error) {
	out, err := n.run(ctx, "--query-gpu=index,name", "--format=csv,noheader")
	if err != nil {
		return nil, err
	}

	return parseDevices(out)
}

// Memory returns the memory counters of one device.
func (n *NvidiaSMI) Memory(ctx context.Context, deviceID int) (Memory, error) {
	out, err := n.run(ctx,
		"--id="+strconv.Itoa(deviceID),
		"--query-gpu=memory.total,memory.used,memory.free",
		"--format=csv,noheader,nounits",
	)
	if err != nil {
		return Memory{}, err
	}

	return parseMemory(out)
}

func (n *NvidiaSMI) run(ctx context.Context, args ...string) ([]byte, error) {
	if n.path == "" {
		return nil, ErrNoAccelerator
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, n.path, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", nvidiaSMI, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return out, nil
}

func parseDevices(out []byte) ([]Device, error) {
	var devices []Device

	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		idx, name, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("%w: %q", errMalformedQuery, line)
		}

		id, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("%w: device index %q", errMalformedQuery, idx)
		}

		devices = append(devices, Device{ID: id, Name: strings.TrimSpace(name)})
	}

	return devices, nil
}

func parseMemory(out []byte) (Memory, error) {
	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) != 3 {
		return Memory{}, fmt.Errorf("%w: %q", errMalformedQuery, out)
	}

	values := make([]int, len(fields))

	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return Memory{}, fmt.Errorf("%w: %q", errMalformedQuery, f)
		}

		values[i] = v
	}

	return Memory{TotalMB: values[0], UsedMB: values[1], FreeMB: values[2]}, nil
}
