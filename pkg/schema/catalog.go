package schema

import (
	"github.com/pkg/errors"

	"DatasetGenerator/pkg/probing"
)

// ErrNoUnits is returned when the host reports no units for a per-unit category.
var ErrNoUnits = errors.New("host reports no units")

// Category names, in namespace order.
const (
	CategoryCPU  = "CPU"
	CategoryRAM  = "RAM"
	CategoryDisk = "DISK"
	CategoryRun  = "RUN"
	CategoryProc = "PROC"
	CategoryGPU  = "GPU"
)

// Attribute keys.
const (
	AttrHostname        = "hostname"
	AttrOS              = "os"
	AttrPlatform        = "platform"
	AttrPlatformVersion = "platform_version"
	AttrKernelVersion   = "kernel_version"
	AttrKernelArch      = "kernel_arch"
	AttrNumCPU          = "num_cpu"
	AttrNumPhysicalCPU  = "num_physical_cpu"
	AttrBrand           = "brand"
	AttrVendorID        = "vendor_id"
	AttrDiskPath        = "path"
	AttrNumGPU          = "num_gpu"
)

const FieldCPUTemps = "cpu_temps"

// RUN fields, written by the sample driver.
const (
	FieldSystemTime            = "system_time"
	FieldTimeElapsed           = "time_elapsed"
	FieldMeasurementsTaken     = "measurements_taken"
	FieldMeasurementsRemaining = "measurements_remaining"
)

// PROC fields describe the collecting process itself.
const (
	FieldProcUserCPU   = "proc_user_cpu_secs"
	FieldProcSystemCPU = "proc_system_cpu_secs"
	FieldProcRSS       = "proc_rss_bytes"
	FieldProcVSS       = "proc_vss_bytes"
	FieldProcThreads   = "proc_threads"
)

// GPU fields, one unit per device.
const (
	FieldGPUUtilization = "gpu_utilization"
	FieldGPUMemoryUsed  = "gpu_memory_used"
	FieldGPUTemps       = "gpu_temps"
	FieldGPUPower       = "gpu_power_mw"
)

var (
	RunFields  = []string{FieldSystemTime, FieldTimeElapsed, FieldMeasurementsTaken, FieldMeasurementsRemaining}
	ProcFields = []string{FieldProcUserCPU, FieldProcSystemCPU, FieldProcRSS, FieldProcVSS, FieldProcThreads}
	GPUFields  = []string{FieldGPUUtilization, FieldGPUMemoryUsed, FieldGPUTemps, FieldGPUPower}
)

// Options selects the optional parts of a schema.
type Options struct {
	Temperatures bool
	Run          bool
	Process      bool
	GPU          bool
	// Attrs are merged into the root attributes.
	Attrs map[string]any
}

// DefaultOptions matches the CPU/RAM/DISK layout plus the RUN bookkeeping slots.
func DefaultOptions() Options {
	return Options{Temperatures: true, Run: true}
}

// Qualify joins a category and a field into a name that resolves exactly.
func Qualify(category, field string) string {
	return category + "/" + field
}

// FromProbe lays out the table for a probed host.
func FromProbe(p *probing.HostProbe, opts Options) (*Schema, error) {
	if p.LogicalUnits < 1 {
		return nil, errors.Wrap(ErrNoUnits, "no logical cpus")
	}
	if opts.Temperatures && p.PhysicalUnits < 1 {
		return nil, errors.Wrap(ErrNoUnits, "no physical cpus for temperature readings")
	}

	s := &Schema{Attrs: map[string]any{
		AttrHostname:        p.Host.Hostname,
		AttrOS:              p.Host.OS,
		AttrPlatform:        p.Host.Platform,
		AttrPlatformVersion: p.Host.PlatformVersion,
		AttrKernelVersion:   p.Host.KernelVersion,
		AttrKernelArch:      p.Host.KernelArch,
	}}
	for k, v := range opts.Attrs {
		s.Attrs[k] = v
	}

	cpu := Category{
		Name: CategoryCPU,
		Attrs: map[string]any{
			AttrNumCPU:         p.LogicalUnits,
			AttrNumPhysicalCPU: p.PhysicalUnits,
			AttrBrand:          p.CPUBrand,
			AttrVendorID:       p.CPUVendor,
		},
	}
	for _, f := range p.CPUFields {
		cpu.Slots = append(cpu.Slots, Slot{Name: f, Rank: 2, Units: p.LogicalUnits})
	}
	if opts.Temperatures {
		cpu.Slots = append(cpu.Slots, Slot{Name: FieldCPUTemps, Rank: 2, Units: p.PhysicalUnits})
	}
	s.Categories = append(s.Categories,
		cpu,
		scalars(CategoryRAM, p.MemoryFields, nil),
		scalars(CategoryDisk, p.DiskFields, map[string]any{AttrDiskPath: p.DiskPath}),
	)

	if opts.Run {
		s.Categories = append(s.Categories, scalars(CategoryRun, RunFields, nil))
	}
	if opts.Process && p.ProcessStats {
		s.Categories = append(s.Categories, scalars(CategoryProc, ProcFields, nil))
	}
	if opts.GPU && p.GPUs > 0 {
		gpu := Category{Name: CategoryGPU, Attrs: map[string]any{AttrNumGPU: p.GPUs}}
		for _, f := range GPUFields {
			gpu.Slots = append(gpu.Slots, Slot{Name: f, Rank: 2, Units: p.GPUs})
		}
		s.Categories = append(s.Categories, gpu)
	}
	return s, nil
}

func scalars(name string, fields []string, attrs map[string]any) Category {
	c := Category{Name: name, Attrs: attrs}
	for _, f := range fields {
		c.Slots = append(c.Slots, Slot{Name: f, Rank: 1})
	}
	return c
}
