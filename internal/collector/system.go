package collector

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	versionFile = "version"
	uptimeFile  = "uptime"
	meminfoFile = "meminfo"
	statFile    = "stat"
	loadavgFile = "loadavg"
)

// SystemSnapshot is the system-wide state at one refresh tick.
type SystemSnapshot struct {
	OS               string
	Kernel           string
	UptimeSeconds    int64
	TotalJiffies     uint64
	ActiveJiffies    uint64
	IdleJiffies      uint64
	MemTotalKB       uint64
	MemFreeKB        uint64
	MemAvailableKB   uint64
	HasMemFree       bool
	TotalProcesses   int
	RunningProcesses int
	LoadAvg1         float64
	LoadAvg5         float64
	LoadAvg15        float64
}

// MemoryUtilization returns the used fraction of memory in [0,1].
func (s SystemSnapshot) MemoryUtilization() float64 {
	if !s.HasMemFree {
		return 0
	}
	return memUtilization(s.MemTotalKB, s.MemFreeKB)
}

// System extracts system-wide aggregates.
type System struct {
	cfg Config
	r   Reader
}

func NewSystem(cfg Config) *System {
	cfg = cfg.withDefaults()
	return &System{cfg: cfg, r: NewReader(cfg.ProcRoot)}
}

// OperatingSystem returns PRETTY_NAME from the os-release file.
func (s *System) OperatingSystem() string {
	v, err := readFrom(s.r, s.cfg.OSReleasePath, parsePrettyNameFrom)
	return collapse(s.cfg, "os-release", v, err)
}

// Kernel returns the release string from the kernel version file.
func (s *System) Kernel() string {
	v, err := readFrom(s.r, versionFile, parseKernelFrom)
	return collapse(s.cfg, "kernel version", v, err)
}

// Uptime returns whole seconds since boot.
func (s *System) Uptime() int64 {
	v, err := readFrom(s.r, uptimeFile, parseUptimeFrom)
	return collapse(s.cfg, "uptime", v, err)
}

// MemoryUtilization returns (MemTotal - MemFree) / MemTotal, clamped to
// [0,1], and 0 when either value is 0 or unreadable.
func (s *System) MemoryUtilization() float64 {
	raw := s.memInfo()
	if !raw.HasFree {
		return 0
	}
	return memUtilization(raw.TotalKB, raw.FreeKB)
}

// Jiffies returns active + idle ticks of the aggregate CPU row.
func (s *System) Jiffies() uint64 {
	return s.aggregate().TotalTicks()
}

func (s *System) ActiveJiffies() uint64 {
	return s.aggregate().ActiveTicks()
}

func (s *System) IdleJiffies() uint64 {
	return s.aggregate().IdleTicks()
}

// CPUTimes returns the aggregate ("cpu") and per-core rows of the stat
// file, or nil if it cannot be read.
func (s *System) CPUTimes() CPUTimes {
	return s.stat().CPU
}

func (s *System) TotalProcesses() int {
	return s.stat().Processes
}

func (s *System) RunningProcesses() int {
	return s.stat().Running
}

// LoadAverage returns the 1, 5 and 15 minute load averages.
func (s *System) LoadAverage() (load1, load5, load15 float64) {
	v, err := readFrom(s.r, loadavgFile, parseLoadAvgFrom)
	v = collapse(s.cfg, "loadavg", v, err)
	return v[0], v[1], v[2]
}

// Snapshot reads every system file once.
func (s *System) Snapshot() SystemSnapshot {
	stat := s.stat()
	cpu := stat.CPU[aggregateCPU]
	mem := s.memInfo()
	load1, load5, load15 := s.LoadAverage()

	return SystemSnapshot{
		OS:               s.OperatingSystem(),
		Kernel:           s.Kernel(),
		UptimeSeconds:    s.Uptime(),
		TotalJiffies:     cpu.TotalTicks(),
		ActiveJiffies:    cpu.ActiveTicks(),
		IdleJiffies:      cpu.IdleTicks(),
		MemTotalKB:       mem.TotalKB,
		MemFreeKB:        mem.FreeKB,
		MemAvailableKB:   mem.AvailableKB,
		HasMemFree:       mem.HasFree,
		TotalProcesses:   stat.Processes,
		RunningProcesses: stat.Running,
		LoadAvg1:         load1,
		LoadAvg5:         load5,
		LoadAvg15:        load15,
	}
}

func (s *System) aggregate() CPURaw {
	return s.CPUTimes()[aggregateCPU]
}

// stat keeps whatever rows were parsed before a read error.
func (s *System) stat() statRaw {
	v, err := readFrom(s.r, statFile, s.cfg.parseStatFrom)
	if err != nil && !isGone(err) {
		s.cfg.logf("stat: %v", err)
	}
	return v
}

func (s *System) memInfo() memRaw {
	v, err := readFrom(s.r, meminfoFile, s.cfg.parseMemInfoFrom)
	return collapse(s.cfg, "meminfo", v, err)
}

func memUtilization(totalKB, freeKB uint64) float64 {
	if totalKB == 0 {
		return 0
	}
	return clamp01(ratio(float64(totalKB)-float64(freeKB), float64(totalKB)))
}

// parsePrettyNameFrom finds PRETTY_NAME in an os-release file. Quotes are
// stripped and underscores standing in for spaces are restored.
func parsePrettyNameFrom(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok || strings.TrimSpace(key) != "PRETTY_NAME" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		return strings.ReplaceAll(value, "_", " "), nil
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrNoField
}

// parseKernelFrom returns the third token of "Linux version <release> ...".
func parseKernelFrom(r io.Reader) (string, error) {
	line, err := firstLineFrom(r)
	if err != nil {
		return "", err
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", fmt.Errorf("%w: %d fields in version line", ErrMalformed, len(fields))
	}
	return fields[2], nil
}

// parseUptimeFrom truncates the first token of the uptime file to seconds.
func parseUptimeFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	parts := strings.Fields(string(data))
	if len(parts) == 0 {
		return 0, ErrEmpty
	}

	seconds, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if seconds < 0 {
		return 0, nil
	}
	return int64(seconds), nil
}

type memRaw struct {
	TotalKB     uint64
	FreeKB      uint64
	AvailableKB uint64
	HasFree     bool
}

// parseMemInfoFrom reads the kB values of MemTotal, MemFree and
// MemAvailable. Only MemTotal is required; any other malformed value is
// logged and treated as absent.
func (c Config) parseMemInfoFrom(r io.Reader) (memRaw, error) {
	var raw memRaw

	targets := map[string]*uint64{
		"MemTotal":     &raw.TotalKB,
		"MemFree":      &raw.FreeKB,
		"MemAvailable": &raw.AvailableKB,
	}
	seen := make(map[string]bool, len(targets))

	scanner := bufio.NewScanner(r)
	for scanner.Scan() && len(seen) < len(targets) {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		key := strings.TrimSuffix(fields[0], ":")
		target, ok := targets[key]
		if !ok {
			continue
		}

		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			if key == "MemTotal" {
				return memRaw{}, fmt.Errorf("%w: parsing %s: %v", ErrMalformed, key, err)
			}
			c.logf("meminfo: parsing %s %q: %v", key, fields[1], err)
			seen[key] = true
			continue
		}

		*target = value
		seen[key] = true
		if key == "MemFree" {
			raw.HasFree = true
		}
	}

	if err := scanner.Err(); err != nil {
		return memRaw{}, err
	}
	if !seen["MemTotal"] {
		return memRaw{}, fmt.Errorf("MemTotal: %w", ErrNoField)
	}

	return raw, nil
}

// statRaw holds the parts of the system stat file the collector uses.
type statRaw struct {
	CPU       CPUTimes
	Processes int
	Running   int
}

// parseStatFrom reads the cpu rows and the processes/procs_running
// counters. Malformed cpu rows are skipped.
func (c Config) parseStatFrom(r io.Reader) (statRaw, error) {
	raw := statRaw{CPU: make(CPUTimes)}
	scanner := newLongLineScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		switch {
		case strings.HasPrefix(fields[0], "cpu"):
			cpu, err := c.parseCPULine(line)
			if err != nil {
				c.logf("stat: %v", err)
				continue
			}
			raw.CPU[fields[0]] = cpu
		case fields[0] == "processes":
			raw.Processes = atoiOrZero(fields[1])
		case fields[0] == "procs_running":
			raw.Running = atoiOrZero(fields[1])
		}
	}

	return raw, scanner.Err()
}

// parseLoadAvgFrom reads the first three tokens of the loadavg file.
func parseLoadAvgFrom(r io.Reader) ([3]float64, error) {
	var loads [3]float64

	line, err := firstLineFrom(r)
	if err != nil {
		return loads, err
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return loads, fmt.Errorf("%w: insufficient fields: %d", ErrMalformed, len(fields))
	}

	for i := range loads {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return [3]float64{}, fmt.Errorf("%w: parsing load%d: %v", ErrMalformed, i, err)
		}
		loads[i] = v
	}

	return loads, nil
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
