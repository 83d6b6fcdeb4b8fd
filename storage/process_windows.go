//go:build windows

package storage

import "os"

// os.FindProcess opens a handle on Windows, so failure means the process is gone.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}
