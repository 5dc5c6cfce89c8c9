//go:build windows

package doctor

import (
	"os"
	"os/signal"
)

// resetTerminal is a no-op: the Windows hotkey backend never touches the console mode.
func resetTerminal() {}

func setupInterruptHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		println("\nInterrupted")
		os.Exit(1)
	}()
}
