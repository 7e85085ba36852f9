// ABOUTME: Host health sampling: disk usage, load average, memory.
// ABOUTME: Produces the report object appended to the health log.
package health

import (
	"fmt"
	"math"

	"golang.org/x/sys/unix"
)

// DiskUsage returns the used percentage of the filesystem holding path,
// rounded to two decimals.
func DiskUsage(path string) (float64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	total := st.Blocks * uint64(st.Bsize)
	if total == 0 {
		return 0, fmt.Errorf("statfs %s: zero total size", path)
	}
	free := st.Bavail * uint64(st.Bsize)
	used := float64(total-free) / float64(total) * 100
	return round2(used), nil
}

// LoadAverage returns the 1-minute load average.
func LoadAverage() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("sysinfo: %w", err)
	}
	// Loads are fixed-point with 16 fractional bits.
	return round2(float64(info.Loads[0]) / 65536.0), nil
}

// MemoryUsage returns the used percentage of physical memory.
func MemoryUsage() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("sysinfo: %w", err)
	}
	total := info.Totalram * uint64(info.Unit)
	if total == 0 {
		return 0, fmt.Errorf("sysinfo: zero total memory")
	}
	avail := (info.Freeram + info.Bufferram) * uint64(info.Unit)
	used := float64(total-avail) / float64(total) * 100
	return round2(used), nil
}

// Report samples every health field for the given disk path. A field
// that fails to sample is reported as an error string under
// "<name>_error" rather than aborting the whole report.
func Report(diskPath string) map[string]any {
	fields := make(map[string]any)

	if usage, err := DiskUsage(diskPath); err != nil {
		fields["disk_usage_error"] = err.Error()
	} else {
		fields["disk_usage"] = usage
	}

	if load, err := LoadAverage(); err != nil {
		fields["load_1m_error"] = err.Error()
	} else {
		fields["load_1m"] = load
	}

	if mem, err := MemoryUsage(); err != nil {
		fields["memory_usage_error"] = err.Error()
	} else {
		fields["memory_usage"] = mem
	}

	return fields
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
