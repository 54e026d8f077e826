//go:build !unix && !windows

package wire

func setSocketOptions(fd uintptr) {}
