//go:build linux

package platform

import "golang.org/x/sys/unix"

func kernelRelease() string {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uname.Release[:])
}

// isProcFS accepts a real procfs mount or a directory laid out like one.
func isProcFS(root string) bool {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err == nil && st.Type == unix.PROC_SUPER_MAGIC {
		return true
	}
	return hasProcLayout(root)
}
