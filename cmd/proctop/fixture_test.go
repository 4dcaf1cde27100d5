package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeProcTree builds a minimal proc tree with n processes and returns
// the root plus the passwd and os-release paths.
func writeProcTree(t *testing.T, n int) (root, passwd, osRelease string) {
	t.Helper()
	dir := t.TempDir()
	root = filepath.Join(dir, "proc")
	passwd = filepath.Join(dir, "passwd")
	osRelease = filepath.Join(dir, "os-release")

	files := map[string]string{
		"stat":    "cpu  100 10 50 1000 20 5 5 2 0 0\ncpu0 100 10 50 1000 20 5 5 2 0 0\nprocesses 99\nprocs_running 2\n",
		"meminfo": "MemTotal: 2048000 kB\nMemFree: 1024000 kB\nMemAvailable: 1500000 kB\n",
		"uptime":  "5000.00 9000.00\n",
		"version": "Linux version 6.6.0-test (builder@host) #1 SMP\n",
		"loadavg": "0.10 0.20 0.30 1/100 42\n",
	}
	for pid := 1; pid <= n; pid++ {
		files[fmt.Sprintf("%d/stat", pid)] = fmt.Sprintf(
			"%d (worker) S 1 %d %d 0 -1 0 0 0 0 0 %d 0 0 0 20 0 1 0 %d 1000 200\n", pid, pid, pid, pid*100, pid*1000)
		files[fmt.Sprintf("%d/status", pid)] = fmt.Sprintf("Name:\tworker\nUid:\t1000\t1000\t1000\t1000\nVmSize:\t%d kB\n", pid*1024)
		files[fmt.Sprintf("%d/cmdline", pid)] = fmt.Sprintf("worker\x00--id=%d\x00", pid)
	}

	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := os.WriteFile(passwd, []byte("root:x:0:0::/root:/bin/sh\nbob:x:1000:1000::/home/bob:/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(osRelease, []byte("PRETTY_NAME=\"Test Linux 1.0\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root, passwd, osRelease
}

func mapEnv(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}
