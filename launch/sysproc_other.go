//go:build !windows

package launch

import "syscall"

// A new session keeps children alive when the launching terminal closes.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
