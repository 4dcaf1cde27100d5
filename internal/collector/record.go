package collector

import "cmp"

// Process is one PID with its metrics. A record from NewProcess derives
// every value on demand; one from loadProcess answers from a single read
// of the status, stat and cmdline files and a fixed system uptime. Either
// kind is meant to live for a single refresh tick.
type Process struct {
	pid   int
	procs *Processes
	sys   *System

	loaded bool
	m      ProcessMetrics
	uptime int64
}

func NewProcess(pid int, procs *Processes, sys *System) Process {
	return Process{pid: pid, procs: procs, sys: sys}
}

// loadProcess reads pid once. users is the parsed password database.
func loadProcess(pid int, procs *Processes, sys *System, users map[string]string, uptime int64) Process {
	return Process{
		pid:    pid,
		procs:  procs,
		sys:    sys,
		loaded: true,
		m:      procs.metrics(pid, users),
		uptime: uptime,
	}
}

func (p Process) Pid() int { return p.pid }

func (p Process) Uid() string {
	if p.loaded {
		return p.m.Uid
	}
	return p.procs.Uid(p.pid)
}

func (p Process) User() string {
	if p.loaded {
		return p.m.User
	}
	return p.procs.User(p.pid)
}

func (p Process) Command() string {
	if p.loaded {
		return p.m.Command
	}
	return p.procs.Command(p.pid)
}

// Ram is VmSize in MiB for display.
func (p Process) Ram() string { return formatRam(p.RamKB()) }

func (p Process) RamKB() uint64 {
	if p.loaded {
		return p.m.RamKB
	}
	return p.procs.RamKB(p.pid)
}

// UpTime is the start time of the process in seconds since boot.
func (p Process) UpTime() int64 {
	if p.loaded {
		return p.procs.ticksToSeconds(p.m.StartTicks)
	}
	return p.procs.UpTime(p.pid)
}

// Elapsed is how long the process has been running, in seconds.
func (p Process) Elapsed() int64 {
	return elapsedSeconds(p.systemUptime(), p.UpTime())
}

// CPUUtilization is the average CPU share over the process lifetime:
// active seconds divided by seconds since the process started.
func (p Process) CPUUtilization() float64 {
	active := p.m.ActiveJiffies
	if !p.loaded {
		active = p.procs.ActiveJiffies(p.pid)
	}
	return cpuShare(active, p.procs.cfg.ClockTicks, p.systemUptime(), p.UpTime())
}

func (p Process) systemUptime() int64 {
	if p.loaded {
		return p.uptime
	}
	return p.sys.Uptime()
}

// Less orders by numeric memory.
func (p Process) Less(other Process) bool {
	return p.RamKB() < other.RamKB()
}

// CompareByRam is a slices.SortFunc comparator on numeric memory.
func CompareByRam(a, b Process) int {
	return cmp.Compare(a.RamKB(), b.RamKB())
}

func elapsedSeconds(uptime, start int64) int64 {
	if uptime <= start {
		return 0
	}
	return uptime - start
}

// cpuShare returns 0 when the process started in the current second or
// the clock appears skewed.
func cpuShare(activeJiffies uint64, ticks, uptime, start int64) float64 {
	elapsed := uptime - start
	if elapsed <= 0 || ticks <= 0 {
		return 0
	}
	return float64(activeJiffies) / float64(ticks) / float64(elapsed)
}
