// Package probing inspects the host once, before a table is laid out.
package probing

import (
	"context"
	"os"
	"regexp"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Options selects what ProbeHost looks at.
type Options struct {
	DiskPath    string
	CorePattern *regexp.Regexp
	GPU         bool
}

// HostInfo carries the host identification stored as root attributes.
type HostInfo struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	KernelArch      string
}

// HostProbe is everything the schema needs to know about the host.
type HostProbe struct {
	LogicalUnits  int
	PhysicalUnits int
	CoreSensors   int

	CPUFields    []string
	MemoryFields []string
	DiskFields   []string
	DiskPath     string

	Host      HostInfo
	CPUBrand  string
	CPUVendor string

	ProcessStats bool
	GPUs         int
}

// ProbeHost reads unit counts and field names from the host. Identification
// attributes are best effort; unit counts and field discovery are not.
func ProbeHost(ctx context.Context, opts Options) (*HostProbe, error) {
	if opts.DiskPath == "" {
		opts.DiskPath = "/"
	}
	p := &HostProbe{DiskPath: opts.DiskPath}

	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "count logical cpus")
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return nil, errors.Wrap(err, "count physical cpus")
	}
	p.LogicalUnits, p.PhysicalUnits = logical, physical

	times, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, errors.Wrap(err, "read per-cpu times")
	}
	if len(times) > 0 {
		p.CPUFields = NumericFields(times[0])
	} else {
		p.CPUFields = NumericFields(cpu.TimesStat{})
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read virtual memory")
	}
	p.MemoryFields = NumericFields(vm)

	usage, err := disk.UsageWithContext(ctx, opts.DiskPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read disk usage of %s", opts.DiskPath)
	}
	p.DiskFields = NumericFields(usage)

	if info, err := host.InfoWithContext(ctx); err == nil {
		p.Host = HostInfo{
			Hostname:        info.Hostname,
			OS:              info.OS,
			Platform:        info.Platform,
			PlatformVersion: info.PlatformVersion,
			KernelVersion:   info.KernelVersion,
			KernelArch:      info.KernelArch,
		}
	} else if name, err := os.Hostname(); err == nil {
		p.Host.Hostname = name
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		p.CPUBrand = infos[0].ModelName
		p.CPUVendor = infos[0].VendorID
	}

	if opts.CorePattern != nil {
		// gopsutil returns partial readings together with warnings.
		stats, _ := host.SensorsTemperaturesWithContext(ctx)
		p.CoreSensors = len(CoreTemperatures(stats, opts.CorePattern))
	}

	p.ProcessStats = probeProcess()
	if opts.GPU {
		p.GPUs = probeGPUs()
	}
	return p, nil
}

func probeProcess() bool {
	proc, err := procfs.Self()
	if err != nil {
		return false
	}
	_, err = proc.Stat()
	return err == nil
}

func probeGPUs() int {
	if ret := nvml.Init(); !errors.Is(ret, nvml.SUCCESS) {
		return 0
	}
	defer nvml.Shutdown()
	count, ret := nvml.DeviceGetCount()
	if !errors.Is(ret, nvml.SUCCESS) {
		return 0
	}
	return count
}
