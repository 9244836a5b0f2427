package probing

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/shirou/gopsutil/v3/host"
)

// DefaultCorePattern matches per-core sensor labels such as "Core 0" or
// "coretemp_core_3". The first capture group is the core number.
const DefaultCorePattern = `(?i)(?:^|[_\s])core[\s_]?(\d+)`

// CompileCorePattern compiles a sensor label pattern. An empty pattern selects DefaultCorePattern.
func CompileCorePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = DefaultCorePattern
	}
	return regexp.Compile(pattern)
}

// CoreTemperatures filters stats to per-core sensors and returns their
// readings ordered by package, then core number. Multi-socket hosts report
// core_0..N once per package, so the k-th sensor seen for a core number is
// taken to belong to package k: the result is p0c0, p0c1, ..., p1c0, p1c1.
func CoreTemperatures(stats []host.TemperatureStat, pattern *regexp.Regexp) []float64 {
	type reading struct {
		pkg  int
		core int
		temp float64
	}
	var readings []reading
	seen := make(map[int]int)
	for _, s := range stats {
		m := pattern.FindStringSubmatch(s.SensorKey)
		if m == nil {
			continue
		}
		core := -1
		if len(m) > 1 {
			if n, err := strconv.Atoi(m[len(m)-1]); err == nil {
				core = n
			}
		}
		readings = append(readings, reading{pkg: seen[core], core: core, temp: s.Temperature})
		seen[core]++
	}
	sort.SliceStable(readings, func(i, j int) bool {
		if readings[i].pkg != readings[j].pkg {
			return readings[i].pkg < readings[j].pkg
		}
		return readings[i].core < readings[j].core
	})

	out := make([]float64, len(readings))
	for i, r := range readings {
		out[i] = r.temp
	}
	return out
}
