//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Check for --gui early, before cobra parses flags in run()
	if hasGUIArg() {
		initGUI() // takes main thread, calls run() in goroutine
		return
	}
	mainthread.Init(run)
}
