package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelope_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		env   Envelope
		check func(t *testing.T, data map[string]any)
	}{
		{
			name: "CPU metric",
			env: Envelope{
				ID:        "0b7c1a9e-0000-4000-8000-000000000001",
				Type:      "cpu",
				Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
				Hostname:  "test-host",
				Data:      CPUMetric{Usage: 75.5, CoreUsage: []float64{80, 70}},
			},
			check: func(t *testing.T, data map[string]any) {
				if data["type"] != "cpu" {
					t.Errorf("type: got %v, want cpu", data["type"])
				}
				if data["hostname"] != "test-host" {
					t.Errorf("hostname: got %v, want test-host", data["hostname"])
				}
				if data["id"] != "0b7c1a9e-0000-4000-8000-000000000001" {
					t.Errorf("id: got %v", data["id"])
				}
				d, ok := data["data"].(map[string]any)
				if !ok {
					t.Fatal("data field not a map")
				}
				if d["usage"] != 75.5 {
					t.Errorf("usage: got %v, want 75.5", d["usage"])
				}
			},
		},
		{
			name: "Memory metric",
			env: Envelope{
				Type:      "memory",
				Timestamp: time.Now(),
				Hostname:  "test-host",
				Data:      MemoryMetric{Total: 16000000000, Used: 8000000000, UsedPct: 50.0},
			},
			check: func(t *testing.T, data map[string]any) {
				d := data["data"].(map[string]any)
				if d["ram_total"] != float64(16000000000) {
					t.Errorf("ram_total: got %v, want 16000000000", d["ram_total"])
				}
			},
		},
		{
			name: "System metric",
			env: Envelope{
				Type:      "system",
				Timestamp: time.Now(),
				Hostname:  "test-host",
				Data:      SystemMetric{OS: "Debian GNU/Linux 12 (bookworm)", Kernel: "6.1.0-18-amd64", Uptime: 3661},
			},
			check: func(t *testing.T, data map[string]any) {
				d := data["data"].(map[string]any)
				if d["kernel"] != "6.1.0-18-amd64" {
					t.Errorf("kernel: got %v", d["kernel"])
				}
				if d["uptime"] != float64(3661) {
					t.Errorf("uptime: got %v, want 3661", d["uptime"])
				}
			},
		},
		{
			name: "ProcessList metric",
			env: Envelope{
				Type:      "process_list",
				Timestamp: time.Now(),
				Hostname:  "test-host",
				Data: ProcessListMetric{
					Processes: []ProcessMetric{
						{Pid: 1, User: "root", Command: "/sbin/init", CPUPercent: 0.1, RamKB: 168000, Ram: "164"},
						{Pid: 2, User: "root", CPUPercent: 0.0},
					},
				},
			},
			check: func(t *testing.T, data map[string]any) {
				d := data["data"].(map[string]any)
				procs := d["processes"].([]any)
				if len(procs) != 2 {
					t.Fatalf("expected 2 processes, got %d", len(procs))
				}
				first := procs[0].(map[string]any)
				if first["ram_mib"] != "164" {
					t.Errorf("ram_mib: got %v, want 164", first["ram_mib"])
				}
			},
		},
		{
			name: "Nil data",
			env: Envelope{
				Type:      "unknown",
				Timestamp: time.Now(),
				Hostname:  "test-host",
				Data:      nil,
			},
			check: func(t *testing.T, data map[string]any) {
				if data["data"] != nil {
					t.Errorf("data should be nil, got %v", data["data"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.env)
			if err != nil {
				t.Fatalf("marshal error: %v", err)
			}

			var data map[string]any
			if err := json.Unmarshal(b, &data); err != nil {
				t.Fatalf("unmarshal error: %v", err)
			}

			tt.check(t, data)
		})
	}
}

// A process row only travels inside a ProcessListMetric.
func TestProcessMetric_NotStandalone(t *testing.T) {
	if _, ok := any(ProcessMetric{}).(Metric); ok {
		t.Error("ProcessMetric should not implement Metric")
	}
}

func TestMetricType(t *testing.T) {
	tests := []struct {
		metric   Metric
		expected string
	}{
		{CPUMetric{}, "cpu"},
		{MemoryMetric{}, "memory"},
		{SystemMetric{}, "system"},
		{ProcessListMetric{}, "process_list"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.metric.MetricType(); got != tt.expected {
				t.Errorf("MetricType() = %s, want %s", got, tt.expected)
			}
		})
	}
}
