package collector

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	pidStatFile    = "stat"
	pidStatusFile  = "status"
	pidCmdlineFile = "cmdline"

	// 1-indexed positions in /proc/<pid>/stat.
	statUTime     = 14
	statSTime     = 15
	statStartTime = 22
)

// ProcessMetrics are the raw per-process values read in one tick.
type ProcessMetrics struct {
	Uid           string
	User          string
	Command       string
	RamKB         uint64
	ActiveJiffies uint64
	StartTicks    uint64
}

// Processes extracts per-process aggregates. Every accessor degrades to a
// zero value when the process vanished or its files are malformed.
type Processes struct {
	cfg Config
	r   Reader
}

func NewProcesses(cfg Config) *Processes {
	cfg = cfg.withDefaults()
	return &Processes{cfg: cfg, r: NewReader(cfg.ProcRoot)}
}

// Pids lists the digit-only directories under the proc root.
func (p *Processes) Pids() []int {
	entries, err := p.r.Dir(".")
	if err != nil {
		p.cfg.logf("listing %s: %v", p.cfg.ProcRoot, err)
		return nil
	}

	pids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !isDigits(entry.Name()) {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}

	return pids
}

// Uid returns the real uid from the process's status file.
func (p *Processes) Uid(pid int) string {
	v, err := p.status(pid)
	if err == nil && v.Uid == "" {
		err = fmt.Errorf("Uid: %w", ErrNoField)
	}
	return collapse(p.cfg, "status", v.Uid, err)
}

// User resolves Uid against the password database.
func (p *Processes) User(pid int) string {
	uid := p.Uid(pid)
	if uid == "" {
		return ""
	}
	return p.lookupUser(uid)
}

// Command returns the command line with NUL separators shown as spaces.
func (p *Processes) Command(pid int) string {
	data, err := p.r.ReadAll(pidPath(pid, pidCmdlineFile))
	if err != nil {
		return collapse(p.cfg, "cmdline", "", err)
	}
	return formatCmdline(data)
}

// RamKB returns VmSize in kilobytes.
func (p *Processes) RamKB(pid int) uint64 {
	v, err := p.status(pid)
	if err == nil && !v.HasVmSize {
		err = fmt.Errorf("VmSize: %w", ErrNoField)
	}
	return collapse(p.cfg, "status", v.VmSizeKB, err)
}

// Ram returns VmSize in MiB as a decimal string, "0" when unavailable.
func (p *Processes) Ram(pid int) string {
	return formatRam(p.RamKB(pid))
}

// ActiveJiffies returns utime+stime of the process.
func (p *Processes) ActiveJiffies(pid int) uint64 {
	v, err := p.stat(pid)
	return collapse(p.cfg, "pid stat", v.ActiveJiffies, err)
}

// UpTime returns the process start time in seconds since boot.
func (p *Processes) UpTime(pid int) int64 {
	v, err := p.stat(pid)
	if err == nil && !v.HasStart {
		err = fmt.Errorf("%w: pid %d stat has no start time (field %d)", ErrMalformed, pid, statStartTime)
	}
	return collapse(p.cfg, "pid stat", p.ticksToSeconds(v.StartTicks), err)
}

// Metrics reads status, stat, cmdline and passwd once each.
func (p *Processes) Metrics(pid int) ProcessMetrics {
	return p.metrics(pid, nil)
}

// Users loads the password database as a uid to name table. Snapshot
// uses it so a tick reads the file once instead of once per process.
func (p *Processes) Users() map[string]string {
	v, err := readFrom(p.r, p.cfg.PasswdPath, parsePasswdFrom)
	return collapse(p.cfg, "passwd", v, err)
}

func (p *Processes) metrics(pid int, users map[string]string) ProcessMetrics {
	status, err := p.status(pid)
	status = collapse(p.cfg, "status", status, err)

	stat, err := p.stat(pid)
	stat = collapse(p.cfg, "pid stat", stat, err)

	m := ProcessMetrics{
		Uid:           status.Uid,
		Command:       p.Command(pid),
		RamKB:         status.VmSizeKB,
		ActiveJiffies: stat.ActiveJiffies,
		StartTicks:    stat.StartTicks,
	}

	switch {
	case m.Uid == "":
	case users != nil:
		m.User = users[m.Uid]
	default:
		m.User = p.lookupUser(m.Uid)
	}

	return m
}

func (p *Processes) lookupUser(uid string) string {
	f, err := p.r.Open(p.cfg.PasswdPath)
	if err != nil {
		return collapse(p.cfg, "passwd", "", err)
	}
	defer f.Close()

	v, err := findUserFrom(f, uid)
	return collapse(p.cfg, "passwd", v, err)
}

func (p *Processes) status(pid int) (statusRaw, error) {
	return readFrom(p.r, pidPath(pid, pidStatusFile), p.cfg.parseStatusFrom)
}

func (p *Processes) stat(pid int) (pidStatRaw, error) {
	return readFrom(p.r, pidPath(pid, pidStatFile), p.cfg.parsePidStatFrom)
}

func (p *Processes) ticksToSeconds(ticks uint64) int64 {
	return int64(ticks / uint64(p.cfg.ClockTicks))
}

func pidPath(pid int, name string) string {
	return filepath.Join(strconv.Itoa(pid), name)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// formatRam converts kilobytes to whole MiB.
func formatRam(kb uint64) string {
	return strconv.FormatUint(kb/1024, 10)
}

func formatCmdline(data []byte) string {
	s := strings.ReplaceAll(string(data), "\x00", " ")
	return strings.TrimRight(s, " \n")
}

// statusRaw holds the parts of /proc/<pid>/status the collector uses.
type statusRaw struct {
	Uid       string
	VmSizeKB  uint64
	HasVmSize bool
}

// parseStatusFrom reads the real uid and VmSize. Kernel threads have no
// VmSize line; HasVmSize reports whether one was found. A missing Uid
// line leaves Uid empty. A malformed VmSize is logged and treated as
// absent so the Uid still comes through.
func (c Config) parseStatusFrom(r io.Reader) (statusRaw, error) {
	var raw statusRaw
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		switch fields[0] {
		case "Uid:":
			raw.Uid = fields[1]
		case "VmSize:":
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				c.logf("status: VmSize %q: %v", fields[1], err)
				continue
			}
			raw.VmSizeKB = kb
			raw.HasVmSize = true
		}
	}

	return raw, scanner.Err()
}

// findUserFrom scans "name:password:uid:..." lines for uid.
func findUserFrom(r io.Reader, uid string) (string, error) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 4)
		if len(parts) >= 3 && parts[2] == uid {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrNoField
}

func parsePasswdFrom(r io.Reader) (map[string]string, error) {
	users := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 4)
		if len(parts) < 3 || parts[0] == "" {
			continue
		}
		// First entry wins, matching a linear scan.
		if _, ok := users[parts[2]]; !ok {
			users[parts[2]] = parts[0]
		}
	}

	return users, scanner.Err()
}

// pidStatRaw holds the values parsed from /proc/<pid>/stat.
type pidStatRaw struct {
	Name          string
	State         string
	ActiveJiffies uint64
	StartTicks    uint64
	HasStart      bool
}

// splitPidStat splits a stat line into fields so that field n is at
// index n-1. The comm field may contain spaces and parentheses, so it is
// taken as everything between the first '(' and the last ')'.
func splitPidStat(line string) []string {
	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < open {
		return strings.Fields(line)
	}

	fields := []string{strings.TrimSpace(line[:open]), line[open+1 : closing]}
	return append(fields, strings.Fields(line[closing+1:])...)
}

// parsePidStatFrom parses a single line from /proc/<pid>/stat.
// Non-numeric time fields count as 0.
func (c Config) parsePidStatFrom(r io.Reader) (pidStatRaw, error) {
	line, err := firstLineFrom(r)
	if err != nil {
		return pidStatRaw{}, err
	}

	fields := splitPidStat(line)
	if len(fields) < statSTime {
		return pidStatRaw{}, fmt.Errorf("%w: insufficient fields: %d", ErrMalformed, len(fields))
	}

	parse := c.makeUintParser(fields, "pid stat")

	raw := pidStatRaw{
		Name:          fields[1],
		State:         fields[2],
		ActiveJiffies: parse(statUTime-1) + parse(statSTime-1),
	}

	if len(fields) >= statStartTime {
		if start, err := strconv.ParseUint(fields[statStartTime-1], 10, 64); err == nil {
			raw.StartTicks = start
			raw.HasStart = true
		}
	}

	return raw, nil
}
