package collector

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestCPUShare(t *testing.T) {
	tests := []struct {
		name   string
		active uint64
		ticks  int64
		uptime int64
		start  int64
		want   float64
	}{
		{name: "Quarter", active: 2500, ticks: 100, uptime: 1000, start: 900, want: 0.25},
		{name: "Idle Process", active: 0, ticks: 100, uptime: 1000, start: 10, want: 0},
		{name: "Multi-Threaded", active: 40000, ticks: 100, uptime: 1000, start: 800, want: 2},
		{name: "Started This Second", active: 50, ticks: 100, uptime: 1000, start: 1000, want: 0},
		{name: "Clock Skew", active: 50, ticks: 100, uptime: 1000, start: 1200, want: 0},
		{name: "Zero Ticks", active: 50, ticks: 0, uptime: 1000, start: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cpuShare(tt.active, tt.ticks, tt.uptime, tt.start)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cpuShare = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestElapsedSeconds(t *testing.T) {
	tests := []struct {
		uptime, start, want int64
	}{
		{uptime: 1000, start: 900, want: 100},
		{uptime: 1000, start: 1000, want: 0},
		{uptime: 10, start: 20, want: 0},
	}

	for _, tt := range tests {
		if got := elapsedSeconds(tt.uptime, tt.start); got != tt.want {
			t.Errorf("elapsedSeconds(%d, %d) = %d, want %d", tt.uptime, tt.start, got, tt.want)
		}
	}
}

func TestProcess_Record(t *testing.T) {
	f := newProcFixture(t)
	f.write("uptime", "1000.40 3000.00\n")
	f.writeEtc("passwd", samplePasswd)
	f.addProcess(500, "1000", 8192, 2000, 500, 90000, "/usr/bin/make\x00-j8\x00")

	host := NewHost(f.config())
	p := host.Process(500)

	if p.Pid() != 500 {
		t.Errorf("Pid = %d, want 500", p.Pid())
	}
	if got := p.Uid(); got != "1000" {
		t.Errorf("Uid = %q, want 1000", got)
	}
	if got := p.User(); got != "alice" {
		t.Errorf("User = %q, want alice", got)
	}
	if got := p.Command(); got != "/usr/bin/make -j8" {
		t.Errorf("Command = %q", got)
	}
	if got := p.Ram(); got != "8" {
		t.Errorf("Ram = %q, want 8", got)
	}
	if got := p.RamKB(); got != 8192 {
		t.Errorf("RamKB = %d, want 8192", got)
	}
	if got := p.UpTime(); got != 900 {
		t.Errorf("UpTime = %d, want 900", got)
	}
	if got := p.Elapsed(); got != 100 {
		t.Errorf("Elapsed = %d, want 100", got)
	}
	if got := p.CPUUtilization(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("CPUUtilization = %v, want 0.25", got)
	}
}

func TestProcess_Vanished(t *testing.T) {
	f := newProcFixture(t)
	f.write("uptime", "1000.00 0.00\n")

	p := NewHost(f.config()).Process(4040)

	if p.User() != "" || p.Command() != "" || p.Uid() != "" {
		t.Error("expected empty strings for a vanished process")
	}
	if p.Ram() != "0" {
		t.Errorf("Ram = %q, want 0", p.Ram())
	}
	if p.UpTime() != 0 {
		t.Errorf("UpTime = %d, want 0", p.UpTime())
	}
	if p.CPUUtilization() != 0 {
		t.Errorf("CPUUtilization = %v, want 0", p.CPUUtilization())
	}
}

func TestProcess_OrderByRam(t *testing.T) {
	f := newProcFixture(t)
	f.addProcess(1, "0", 100*1024, 0, 0, 0, "big\x00")
	f.addProcess(2, "0", 99*1024, 0, 0, 0, "small\x00")
	f.addProcess(3, "0", 5*1024, 0, 0, 0, "tiny\x00")

	host := NewHost(f.config())
	big, small, tiny := host.Process(1), host.Process(2), host.Process(3)

	// As strings "100" < "99"; numerically it is the other way round.
	if big.Ram() != "100" || small.Ram() != "99" {
		t.Fatalf("fixture mismatch: %q %q", big.Ram(), small.Ram())
	}
	if big.Less(small) {
		t.Error("100 MiB should not be less than 99 MiB")
	}
	if !small.Less(big) {
		t.Error("99 MiB should be less than 100 MiB")
	}
	if CompareByRam(big, small) <= 0 {
		t.Error("CompareByRam(100, 99) should be positive")
	}
	if CompareByRam(small, small) != 0 {
		t.Error("CompareByRam of equal records should be 0")
	}

	records := []Process{small, big, tiny}
	slices.SortFunc(records, CompareByRam)

	var got []int
	for _, r := range records {
		got = append(got, r.Pid())
	}
	if want := []int{3, 2, 1}; !slices.Equal(got, want) {
		t.Errorf("sorted pids = %v, want %v", got, want)
	}
}

func TestHost_Records(t *testing.T) {
	f := newProcFixture(t)
	f.addProcess(7, "0", 1024, 0, 0, 0, "a\x00")
	f.addProcess(8, "0", 1024, 0, 0, 0, "b\x00")

	records := NewHost(f.config()).Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestHost_Records_ReadOnce(t *testing.T) {
	f := newProcFixture(t)
	f.write("uptime", "1000.40 3000.00\n")
	f.writeEtc("passwd", samplePasswd)
	f.addProcess(500, "1000", 8192, 2000, 500, 90000, "/usr/bin/make\x00-j8\x00")

	records := NewHost(f.config()).Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	// The process exits and the clock moves on; the record keeps the
	// values read when it was built.
	if err := os.RemoveAll(filepath.Join(f.root, "500")); err != nil {
		t.Fatal(err)
	}
	f.write("uptime", "5000.00 3000.00\n")

	p := records[0]
	if p.User() != "alice" || p.Command() != "/usr/bin/make -j8" {
		t.Errorf("user %q command %q", p.User(), p.Command())
	}
	if got := p.RamKB(); got != 8192 {
		t.Errorf("RamKB = %d, want 8192", got)
	}
	if got := p.Elapsed(); got != 100 {
		t.Errorf("Elapsed = %d, want 100", got)
	}
	if got := p.CPUUtilization(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("CPUUtilization = %v, want 0.25", got)
	}
}

func TestProcessMetric_FromRecord(t *testing.T) {
	f := newProcFixture(t)
	f.write("uptime", "1000.40 3000.00\n")
	f.writeEtc("passwd", samplePasswd)
	f.addProcess(500, "1000", 8192, 2000, 500, 90000, "/usr/bin/make\x00-j8\x00")

	host := NewHost(f.config())
	live := host.Process(500)
	got := processMetric(host.Records()[0])

	if got.Pid != live.Pid() || got.User != live.User() || got.Command != live.Command() {
		t.Errorf("identity mismatch: %+v", got)
	}
	if got.RamKB != live.RamKB() || got.Ram != live.Ram() {
		t.Errorf("ram mismatch: %+v", got)
	}
	if got.StartTime != live.UpTime() || got.Elapsed != live.Elapsed() {
		t.Errorf("time mismatch: %+v", got)
	}
	if math.Abs(got.CPUPercent-live.CPUUtilization()*100) > 1e-9 {
		t.Errorf("CPUPercent = %v, want %v", got.CPUPercent, live.CPUUtilization()*100)
	}
}
