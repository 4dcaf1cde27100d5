package collector

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const aggregateCPU = "cpu"

// CPURaw holds one cpu row of the stat file, in jiffies.
type CPURaw struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// ActiveTicks is user+nice+system+irq+softirq+steal. Guest time is
// already counted in user and nice.
func (c CPURaw) ActiveTicks() uint64 {
	return c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
}

// IdleTicks is idle+iowait.
func (c CPURaw) IdleTicks() uint64 {
	return c.Idle + c.IOWait
}

func (c CPURaw) TotalTicks() uint64 {
	return c.ActiveTicks() + c.IdleTicks()
}

type CPUDelta struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
	Total     uint64 // Sum of all time
	Used      uint64 // Total - Idle - IOWait
}

// CPUTimes maps a cpu row label (cpu, cpu0, ...) to its counters.
type CPUTimes map[string]CPURaw

// CPUUsage is the utilization between two samples, as fractions in [0,1].
type CPUUsage struct {
	Usage float64
	Cores []float64
}

// Utilization returns Δactive/Δtotal between two aggregate rows. It is 0
// when no time elapsed or a counter went backwards.
func Utilization(before, after CPURaw) float64 {
	delta, ok := cpuDelta(after, before)
	if !ok {
		return 0
	}
	return clamp01(ratio(delta.Used, delta.Total))
}

// UsageBetween computes aggregate and per-core utilization. A core set
// that changed between samples (hotplug) yields no per-core figures.
func UsageBetween(before, after CPUTimes) CPUUsage {
	usage := CPUUsage{Usage: Utilization(before[aggregateCPU], after[aggregateCPU])}

	deltaMap, ok := calculateCPUDeltas(after, before)
	if ok {
		usage.Cores = calcCoreUsage(deltaMap)
	}
	return usage
}

// CPUSampler measures utilization between two reads of the stat file.
// Begin and End let the caller control timing; Sample blocks for the
// configured interval.
type CPUSampler struct {
	sys      *System
	interval time.Duration
	before   CPUTimes
}

func NewCPUSampler(sys *System) *CPUSampler {
	return &CPUSampler{sys: sys, interval: sys.cfg.SampleInterval}
}

func (s *CPUSampler) Interval() time.Duration {
	return s.interval
}

// Begin records the first sample.
func (s *CPUSampler) Begin() {
	s.before = s.sys.CPUTimes()
}

// End takes the second sample and returns utilization since Begin. The
// second sample becomes the start of the next window. Without a prior
// Begin the result covers the time since boot.
func (s *CPUSampler) End() CPUUsage {
	after := s.sys.CPUTimes()
	usage := UsageBetween(s.before, after)
	s.before = after
	return usage
}

// Sample calls Begin, waits for the interval (or ctx), then calls End.
func (s *CPUSampler) Sample(ctx context.Context) CPUUsage {
	s.Begin()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	return s.End()
}

func (c Config) parseCPULine(line string) (CPURaw, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return CPURaw{}, fmt.Errorf("%w: insufficient fields: %d", ErrMalformed, len(fields))
	}

	parse := c.makeUintParser(fields, "stat")

	return CPURaw{
		User:      parse(1),
		Nice:      parse(2),
		System:    parse(3),
		Idle:      parse(4),
		IOWait:    parse(5),
		IRQ:       parse(6),
		SoftIRQ:   parse(7),
		Steal:     parse(8),
		Guest:     parse(9),
		GuestNice: parse(10),
	}, nil
}

func cpuDelta(cur, prev CPURaw) (CPUDelta, bool) {
	if cur.User < prev.User || cur.Nice < prev.Nice || cur.System < prev.System || cur.Idle < prev.Idle || cur.IOWait < prev.IOWait ||
		cur.IRQ < prev.IRQ || cur.SoftIRQ < prev.SoftIRQ || cur.Steal < prev.Steal {
		return CPUDelta{}, false
	}

	delta := CPUDelta{
		User:    cur.User - prev.User,
		Nice:    cur.Nice - prev.Nice,
		System:  cur.System - prev.System,
		Idle:    cur.Idle - prev.Idle,
		IOWait:  cur.IOWait - prev.IOWait,
		IRQ:     cur.IRQ - prev.IRQ,
		SoftIRQ: cur.SoftIRQ - prev.SoftIRQ,
		Steal:   cur.Steal - prev.Steal,
	}
	if cur.Guest >= prev.Guest {
		delta.Guest = cur.Guest - prev.Guest
	}
	if cur.GuestNice >= prev.GuestNice {
		delta.GuestNice = cur.GuestNice - prev.GuestNice
	}
	delta.Total = delta.User + delta.Nice + delta.System + delta.Idle + delta.IOWait + delta.IRQ + delta.SoftIRQ + delta.Steal
	delta.Used = delta.Total - (delta.Idle + delta.IOWait)

	return delta, true
}

// calculateCPUDeltas takes the current and previous raw maps and returns a map containing
// the delta for each key (cpu, cpu0, ...)
func calculateCPUDeltas(current, previous CPUTimes) (map[string]CPUDelta, bool) {
	deltaMap := make(map[string]CPUDelta, len(current))

	for key, cur := range current {
		prev, ok := previous[key]
		if !ok {
			return nil, false
		}

		delta, ok := cpuDelta(cur, prev)
		if !ok {
			return nil, false
		}
		deltaMap[key] = delta
	}

	return deltaMap, true
}

// calcCoreUsage returns per-core utilization fractions.
// Assumes contiguous core numbering (cpu0, cpu1, ..., cpuN-1).
// Missing cores will show 0 usage.
func calcCoreUsage(deltaMap map[string]CPUDelta) []float64 {
	numCores := len(deltaMap)
	if _, ok := deltaMap[aggregateCPU]; ok {
		numCores--
	}
	usage := make([]float64, numCores)

	for i := range numCores {
		coreKey := fmt.Sprintf("cpu%d", i)
		if delta, ok := deltaMap[coreKey]; ok && delta.Total > 0 {
			usage[i] = clamp01(ratio(delta.Used, delta.Total))
		}
	}

	return usage
}
