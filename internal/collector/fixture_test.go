package collector

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

// procFixture is a fake proc tree plus os-release and passwd files.
type procFixture struct {
	t    *testing.T
	root string
	etc  string
}

func newProcFixture(t *testing.T) *procFixture {
	t.Helper()
	dir := t.TempDir()
	f := &procFixture{
		t:    t,
		root: filepath.Join(dir, "proc"),
		etc:  filepath.Join(dir, "etc"),
	}
	for _, d := range []string{f.root, f.etc} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *procFixture) config() Config {
	return Config{
		ProcRoot:      f.root,
		OSReleasePath: filepath.Join(f.etc, "os-release"),
		PasswdPath:    filepath.Join(f.etc, "passwd"),
		ClockTicks:    100,
		Logger:        log.New(io.Discard, "", 0),
	}
}

// write creates rel under the proc root.
func (f *procFixture) write(rel, content string) {
	f.t.Helper()
	path := filepath.Join(f.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *procFixture) writeEtc(name, content string) {
	f.t.Helper()
	if err := os.WriteFile(filepath.Join(f.etc, name), []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *procFixture) mkdir(rel string) {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Join(f.root, rel), 0o755); err != nil {
		f.t.Fatal(err)
	}
}

// addProcess writes stat, status and cmdline for pid.
func (f *procFixture) addProcess(pid int, uid string, vmSizeKB, utime, stime, startTicks uint64, cmdline string) {
	f.t.Helper()
	dir := fmt.Sprint(pid)
	f.write(filepath.Join(dir, "stat"), pidStatLine(pid, "proc", utime, stime, startTicks))
	f.write(filepath.Join(dir, "status"), statusFile(uid, vmSizeKB))
	f.write(filepath.Join(dir, "cmdline"), cmdline)
}

// pidStatLine builds a 24-field stat line with utime at 14, stime at 15
// and starttime at 22.
func pidStatLine(pid int, comm string, utime, stime, start uint64) string {
	return fmt.Sprintf("%d (%s) S 1 %d %d 0 -1 4194304 100 0 0 0 %d %d 0 0 20 0 1 0 %d 1000000 200\n",
		pid, comm, pid, pid, utime, stime, start)
}

func statusFile(uid string, vmSizeKB uint64) string {
	return fmt.Sprintf("Name:\tproc\nState:\tS (sleeping)\nUid:\t%s\t%s\t%s\t%s\nGid:\t0\t0\t0\t0\nVmPeak:\t%d kB\nVmSize:\t%d kB\nVmRSS:\t100 kB\n",
		uid, uid, uid, uid, vmSizeKB+10, vmSizeKB)
}

const sampleStat = `cpu  100 10 50 1000 20 5 5 2 0 0
cpu0 60 5 25 500 10 3 3 1 0 0
cpu1 40 5 25 500 10 2 2 1 0 0
intr 12345 0 0
ctxt 98765
btime 1700000000
processes 4321
procs_running 3
procs_blocked 0
`

const sampleMeminfo = `MemTotal:       16307664 kB
MemFree:         4076916 kB
MemAvailable:    8000000 kB
Buffers:          500000 kB
`

const samplePasswd = `root:x:0:0:root:/root:/bin/bash
daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin
alice:x:1000:1000::/home/alice:/bin/bash
`
