package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// Info describes the host the collector runs on.
type Info struct {
	NumCPU        int
	KernelVersion string
	HasProcFS     bool
	CgroupVersion int // v1 or v2, 0 if unknown
}

// Detect probes the host. procRoot is the proc filesystem mount the
// collector will read.
func Detect(procRoot string) Info {
	return Info{
		NumCPU:        runtime.NumCPU(),
		KernelVersion: kernelRelease(),
		HasProcFS:     isProcFS(procRoot),
		CgroupVersion: detectCgroupVersion(),
	}
}

func detectCgroupVersion() int {
	if fileExists("/sys/fs/cgroup/cgroup.controllers") {
		return 2
	}
	if fileExists("/sys/fs/cgroup/cpu") {
		return 1
	}
	return 0
}

// hasProcLayout reports whether root looks like a proc tree, for roots
// that are not a real procfs mount (fixtures, bind copies).
func hasProcLayout(root string) bool {
	return fileExists(filepath.Join(root, "stat")) && fileExists(filepath.Join(root, "meminfo"))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
