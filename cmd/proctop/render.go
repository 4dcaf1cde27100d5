package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/nhdewitt/proctop/internal/format"
	"github.com/nhdewitt/proctop/internal/protocol"
)

const (
	defaultWidth = 120
	barWidth     = 40
	clearScreen  = "\x1b[H\x1b[2J"
)

// frame collects the metrics of one tick. The process list is the last
// metric Collect emits, so its arrival completes the frame.
type frame struct {
	id     string
	system protocol.SystemMetric
	cpu    protocol.CPUMetric
	memory protocol.MemoryMetric
	procs  []protocol.ProcessMetric
}

// apply folds env into the frame and reports whether the frame is ready
// to draw.
func (f *frame) apply(env protocol.Envelope) bool {
	if env.ID != f.id {
		*f = frame{id: env.ID}
	}

	switch m := env.Data.(type) {
	case protocol.SystemMetric:
		f.system = m
	case protocol.CPUMetric:
		f.cpu = m
	case protocol.MemoryMetric:
		f.memory = m
	case protocol.ProcessListMetric:
		f.procs = m.Processes
		return true
	}
	return false
}

// display renders frames as a top-like table.
type display struct {
	w     io.Writer
	tty   bool
	width int
	cur   frame
}

func newDisplay(w io.Writer) *display {
	d := &display{w: w, width: defaultWidth}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		d.tty = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			d.width = width
		}
	}
	return d
}

func (d *display) Write(env protocol.Envelope) error {
	if !d.cur.apply(env) {
		return nil
	}
	if d.tty {
		if _, err := io.WriteString(d.w, clearScreen); err != nil {
			return err
		}
	}
	return d.render(d.cur)
}

func (d *display) render(f frame) error {
	var b strings.Builder

	fmt.Fprintf(&b, "OS: %s\n", f.system.OS)
	fmt.Fprintf(&b, "Kernel: %s\n", f.system.Kernel)
	fmt.Fprintf(&b, "CPU: %s %5.1f%%  load %.2f %.2f %.2f\n", bar(f.cpu.Usage), f.cpu.Usage, f.cpu.LoadAvg1, f.cpu.LoadAvg5, f.cpu.LoadAvg15)
	for i, core := range f.cpu.CoreUsage {
		fmt.Fprintf(&b, "  cpu%-3d %s %5.1f%%\n", i, bar(core), core)
	}
	fmt.Fprintf(&b, "Memory: %s %5.1f%%  %s / %s\n", bar(f.memory.UsedPct), f.memory.UsedPct, format.Bytes(f.memory.Used), format.Bytes(f.memory.Total))
	fmt.Fprintf(&b, "Total Processes: %d\n", f.system.Processes)
	fmt.Fprintf(&b, "Running Processes: %d\n", f.system.Running)
	fmt.Fprintf(&b, "Up Time: %s\n\n", format.ElapsedTime(f.system.Uptime))

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tUSER\tCPU[%]\tRAM[MiB]\tTIME+\tCOMMAND")
	for _, p := range f.procs {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%s\t%s\n",
			p.Pid, truncate(p.User, 8), p.CPUPercent, p.Ram, format.ElapsedTime(p.Elapsed), truncate(p.Command, d.commandWidth()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(d.w, b.String())
	return err
}

// commandWidth leaves room for the fixed columns before COMMAND.
func (d *display) commandWidth() int {
	const fixed = 50
	if d.width-fixed < 20 {
		return 20
	}
	return d.width - fixed
}

func bar(pct float64) string {
	filled := int(pct / 100.0 * barWidth)
	filled = max(0, min(barWidth, filled))
	return "[" + strings.Repeat("|", filled) + strings.Repeat(" ", barWidth-filled) + "]"
}

// truncate cuts s to n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
