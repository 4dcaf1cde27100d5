package collector

import (
	"context"

	"github.com/nhdewitt/proctop/internal/protocol"
)

// Host ties the system and process parsers and the CPU sampler to one
// Config. Collect runs a full refresh tick.
type Host struct {
	System    *System
	Processes *Processes
	CPU       *CPUSampler

	// Limit caps the process list; 0 keeps every process.
	Limit int
}

func NewHost(cfg Config) *Host {
	sys := NewSystem(cfg)
	return &Host{
		System:    sys,
		Processes: NewProcesses(cfg),
		CPU:       NewCPUSampler(sys),
	}
}

// Process returns the record for pid.
func (h *Host) Process(pid int) Process {
	return NewProcess(pid, h.Processes, h.System)
}

// Records reads every live PID once against the current uptime.
func (h *Host) Records() []Process {
	return h.records(h.System.Uptime())
}

func (h *Host) records(uptime int64) []Process {
	users := h.Processes.Users()
	pids := h.Processes.Pids()

	records := make([]Process, 0, len(pids))
	for _, pid := range pids {
		records = append(records, loadProcess(pid, h.Processes, h.System, users, uptime))
	}
	return records
}

// Collect samples CPU usage over the sampler interval, then reads the
// system files and every process once. Processes are ordered by memory,
// largest first.
func (h *Host) Collect(ctx context.Context) ([]protocol.Metric, error) {
	usage := h.CPU.Sample(ctx)
	snap := h.System.Snapshot()

	return []protocol.Metric{
		systemMetric(snap),
		cpuMetric(usage, snap),
		memoryMetric(snap),
		h.processList(snap.UptimeSeconds),
	}, nil
}

func (h *Host) processList(uptime int64) protocol.ProcessListMetric {
	top := topByRam(h.records(uptime), h.Limit)

	procs := make([]protocol.ProcessMetric, len(top))
	for i, r := range top {
		procs[i] = processMetric(r)
	}
	return protocol.ProcessListMetric{Processes: procs}
}

func processMetric(r Process) protocol.ProcessMetric {
	return protocol.ProcessMetric{
		Pid:        r.Pid(),
		Uid:        r.Uid(),
		User:       r.User(),
		Command:    r.Command(),
		CPUPercent: r.CPUUtilization() * 100.0,
		RamKB:      r.RamKB(),
		Ram:        r.Ram(),
		StartTime:  r.UpTime(),
		Elapsed:    r.Elapsed(),
	}
}

func systemMetric(s SystemSnapshot) protocol.SystemMetric {
	return protocol.SystemMetric{
		OS:        s.OS,
		Kernel:    s.Kernel,
		Uptime:    s.UptimeSeconds,
		Processes: s.TotalProcesses,
		Running:   s.RunningProcesses,
	}
}

func cpuMetric(u CPUUsage, s SystemSnapshot) protocol.CPUMetric {
	cores := make([]float64, len(u.Cores))
	for i, c := range u.Cores {
		cores[i] = c * 100.0
	}
	return protocol.CPUMetric{
		Usage:     u.Usage * 100.0,
		CoreUsage: cores,
		LoadAvg1:  s.LoadAvg1,
		LoadAvg5:  s.LoadAvg5,
		LoadAvg15: s.LoadAvg15,
	}
}

func memoryMetric(s SystemSnapshot) protocol.MemoryMetric {
	const kb = 1024
	used := uint64(0)
	if s.HasMemFree && s.MemTotalKB > s.MemFreeKB {
		used = s.MemTotalKB - s.MemFreeKB
	}
	return protocol.MemoryMetric{
		Total:     s.MemTotalKB * kb,
		Free:      s.MemFreeKB * kb,
		Used:      used * kb,
		Available: s.MemAvailableKB * kb,
		UsedPct:   s.MemoryUtilization() * 100.0,
	}
}
