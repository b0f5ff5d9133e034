//go:build !linux

package platform

import (
	"fmt"
	"runtime"
)

// OpenDesktop is only implemented for X11 on Linux.
func OpenDesktop() (Desktop, error) {
	return nil, fmt.Errorf("no desktop backend for %s", runtime.GOOS)
}
