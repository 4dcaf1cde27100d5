package protocol

import (
	"encoding/json"
	"time"
)

// Metric is implemented by all metric types
type Metric interface {
	MetricType() string
}

// Envelope wraps any metric with metadata for one refresh tick
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Hostname  string    `json:"hostname"`
	Data      Metric    `json:"data"`
}

// MarshalJSON ensures proper serialization with the concrete type
func (e Envelope) MarshalJSON() ([]byte, error) {
	type Alias Envelope
	return json.Marshal(&struct {
		Alias
		Data any `json:"data"`
	}{
		Alias: Alias(e),
		Data:  e.Data,
	})
}

func (CPUMetric) MetricType() string         { return "cpu" }
func (MemoryMetric) MetricType() string      { return "memory" }
func (SystemMetric) MetricType() string      { return "system" }
func (ProcessListMetric) MetricType() string { return "process_list" }

type CPUMetric struct {
	Usage     float64   `json:"usage"`
	CoreUsage []float64 `json:"cores"`
	LoadAvg1  float64   `json:"load_1m"`
	LoadAvg5  float64   `json:"load_5m,omitempty"`
	LoadAvg15 float64   `json:"load_15m,omitempty"`
}

type MemoryMetric struct {
	Total     uint64  `json:"ram_total"`
	Free      uint64  `json:"ram_free"`
	Used      uint64  `json:"ram_used"`
	Available uint64  `json:"ram_available"`
	UsedPct   float64 `json:"ram_used_pct"`
}

type SystemMetric struct {
	OS        string `json:"os"`
	Kernel    string `json:"kernel"`
	Uptime    int64  `json:"uptime"`
	Processes int    `json:"processes"`
	Running   int    `json:"running"`
}

type ProcessMetric struct {
	Pid        int     `json:"pid"`
	Uid        string  `json:"uid"`
	User       string  `json:"user"`
	Command    string  `json:"command"`
	CPUPercent float64 `json:"cpu_percent"`
	RamKB      uint64  `json:"ram_kb"`
	Ram        string  `json:"ram_mib"`
	StartTime  int64   `json:"start_time"`
	Elapsed    int64   `json:"elapsed"`
}

// ProcessListMetric holds all processes from a single collection
type ProcessListMetric struct {
	Processes []ProcessMetric `json:"processes"`
}
