//go:build windows

package launch

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// Scripts run without flashing a console window.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
