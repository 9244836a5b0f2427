package probing

import (
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

func BenchmarkNumericValues(b *testing.B) {
	vm := &mem.VirtualMemoryStat{Total: 1 << 34, Available: 1 << 33, UsedPercent: 50}
	for i := 0; i < b.N; i++ {
		NumericValues(vm)
	}
}

func BenchmarkNumericFields(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NumericFields(mem.VirtualMemoryStat{})
	}
}

func BenchmarkCoreTemperatures(b *testing.B) {
	pattern, _ := CompileCorePattern("")
	stats := []host.TemperatureStat{
		{SensorKey: "coretemp_core_3", Temperature: 53},
		{SensorKey: "coretemp_core_1", Temperature: 51},
		{SensorKey: "coretemp_core_2", Temperature: 52},
		{SensorKey: "coretemp_core_0", Temperature: 50},
		{SensorKey: "coretemp_package_id_0", Temperature: 60},
	}
	for i := 0; i < b.N; i++ {
		CoreTemperatures(stats, pattern)
	}
}
