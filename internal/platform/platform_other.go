//go:build !linux

package platform

func kernelRelease() string {
	return ""
}

func isProcFS(root string) bool {
	return hasProcLayout(root)
}
