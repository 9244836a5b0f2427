package collecting

import (
	"context"
	"math"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/pkg/errors"

	"DatasetGenerator/pkg/schema"
	"DatasetGenerator/pkg/table"
)

// Nvidia reports per-device GPU readings. A failed read on one device is
// stored as NaN so the vector keeps its width.
type Nvidia struct {
	initialized bool
	devices     []nvml.Device
}

func NewNvidia() (*Nvidia, error) {
	n := &Nvidia{}
	if err := n.init(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Nvidia) Name() string { return "NVIDIA" }

func (n *Nvidia) init() error {
	if ret := nvml.Init(); !errors.Is(ret, nvml.SUCCESS) {
		return errors.Errorf("failed to initialize NVML: %s", nvml.ErrorString(ret))
	}

	count, ret := nvml.DeviceGetCount()
	if !errors.Is(ret, nvml.SUCCESS) || count == 0 {
		nvml.Shutdown()
		return errors.New("no NVIDIA devices found")
	}

	n.devices = make([]nvml.Device, count)
	for i := 0; i < count; i++ {
		device, ret := nvml.DeviceGetHandleByIndex(i)
		if !errors.Is(ret, nvml.SUCCESS) {
			nvml.Shutdown()
			return errors.Errorf("device %d: %s", i, nvml.ErrorString(ret))
		}
		n.devices[i] = device
	}

	n.initialized = true
	return nil
}

func (n *Nvidia) Close() error {
	if n.initialized {
		nvml.Shutdown()
		n.initialized = false
	}
	return nil
}

func (n *Nvidia) Collect(_ context.Context, s table.Sample) error {
	if !n.initialized {
		return errors.New("NVML not initialized")
	}
	util := make([]float64, len(n.devices))
	memUsed := make([]float64, len(n.devices))
	temps := make([]float64, len(n.devices))
	power := make([]float64, len(n.devices))

	for i, device := range n.devices {
		util[i] = capture(device.GetUtilizationRates, func(u nvml.Utilization) float64 { return float64(u.Gpu) })
		memUsed[i] = capture(device.GetMemoryInfo, func(m nvml.Memory) float64 { return float64(m.Used) })
		temps[i] = capture(func() (uint32, nvml.Return) {
			return device.GetTemperature(nvml.TEMPERATURE_GPU)
		}, toFloat)
		power[i] = capture(device.GetPowerUsage, toFloat)
	}

	q := func(f string) string { return schema.Qualify(schema.CategoryGPU, f) }
	s.Set(q(schema.FieldGPUUtilization), table.Vector(util...))
	s.Set(q(schema.FieldGPUMemoryUsed), table.Vector(memUsed...))
	s.Set(q(schema.FieldGPUTemps), table.Vector(temps...))
	s.Set(q(schema.FieldGPUPower), table.Vector(power...))
	return nil
}

func capture[T any](call func() (T, nvml.Return), conv func(T) float64) float64 {
	if val, ret := call(); errors.Is(ret, nvml.SUCCESS) {
		return conv(val)
	}
	return math.NaN()
}

func toFloat(v uint32) float64 { return float64(v) }
