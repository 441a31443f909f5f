// Package device abstracts compute placement. The only backend today is
// the CPU, so placement is a tagging operation: ToDevice and ToHost walk
// nested batch structures and return them marked for the target, giving
// training code a single seam to grow an accelerator backend behind.
package device

import (
	"fmt"

	"github.com/rehearsal-ml/rehearsal/internal/common"
)

// Device identifies a compute placement target.
type Device struct {
	kind string
}

// CPU is the host device.
var CPU = Device{kind: "cpu"}

// String returns the device name.
func (d Device) String() string {
	if d.kind == "" {
		return "cpu"
	}
	return d.kind
}

// IsCPU reports whether the device is the host.
func (d Device) IsCPU() bool {
	return d.kind == "" || d.kind == "cpu"
}

// Parse resolves a device name. Only "cpu" (and the empty string, which
// defaults to it) is accepted.
func Parse(name string) (Device, error) {
	switch name {
	case "", "cpu":
		return CPU, nil
	default:
		return Device{}, common.NewConfigurationError("device", "unsupported device %q", name)
	}
}

// Config carries the placement settings for a run: the target device and
// the number of inference replicas for data-parallel evaluation.
type Config struct {
	Device   Device
	Replicas int
}

// Placeable is implemented by values that can move themselves between
// devices.
type Placeable interface {
	To(d Device) any
}

// ToDevice places data on d, recursing through maps and sequences so a
// whole batch structure moves in one call. Plain slices are already
// host-resident and pass through unchanged on the CPU.
func ToDevice(data any, d Device) (any, error) {
	if !d.IsCPU() {
		return nil, common.NewConfigurationError("device", "unsupported device %q", d)
	}
	return place(data, d), nil
}

// ToHost moves data back to the CPU.
func ToHost(data any) any {
	out, _ := ToDevice(data, CPU)
	return out
}

func place(data any, d Device) any {
	switch v := data.(type) {
	case nil:
		return nil
	case Placeable:
		return v.To(d)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = place(e, d)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = place(e, d)
		}
		return out
	default:
		return v
	}
}

// Describe renders the placement for logging.
func (c Config) Describe() string {
	if c.Replicas > 1 {
		return fmt.Sprintf("%s x%d", c.Device, c.Replicas)
	}
	return c.Device.String()
}
