package tray

import (
	"fmt"
	"sync"
	"time"
)

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	mu           sync.Mutex
	editConfigFn func()
	openLogsFn   func()
	reloadFn     func()

	registered, total int
	errTimer          *time.Timer
)

func OnEditConfig(fn func()) { mu.Lock(); editConfigFn = fn; mu.Unlock() }
func OnOpenLogs(fn func())   { mu.Lock(); openLogsFn = fn; mu.Unlock() }
func OnReload(fn func())     { mu.Lock(); reloadFn = fn; mu.Unlock() }

// Tooltip is the idle tooltip for the given registration counts.
func Tooltip(reg, tot int) string {
	if tot == 0 {
		return "uv-hotkey – no hotkeys"
	}
	return fmt.Sprintf("uv-hotkey – %d/%d hotkeys active", reg, tot)
}

// SetStatus records how many bindings are currently hooked.
func SetStatus(reg, tot int) {
	mu.Lock()
	registered, total = reg, tot
	showingErr := errTimer != nil
	mu.Unlock()
	if !showingErr {
		updateTooltip(Tooltip(reg, tot))
		updateWarningIcon(reg < tot)
	}
}

// SetError shows msg in the tooltip for a few seconds.
func SetError(msg string) {
	updateTooltip("uv-hotkey – " + msg)
	updateWarningIcon(true)
	mu.Lock()
	if errTimer != nil {
		errTimer.Stop()
	}
	errTimer = time.AfterFunc(10*time.Second, func() {
		mu.Lock()
		errTimer = nil
		reg, tot := registered, total
		mu.Unlock()
		updateTooltip(Tooltip(reg, tot))
		updateWarningIcon(reg < tot)
	})
	mu.Unlock()
}

// SetLastLaunch updates the informational "last run" menu entry.
func SetLastLaunch(name string, at time.Time) {
	updateLastTitle(fmt.Sprintf("Last: %s (%s)", name, at.Format("15:04:05")))
}

func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}

func call(fn *func()) {
	mu.Lock()
	f := *fn
	mu.Unlock()
	if f != nil {
		f()
	}
}

// IconPNG is the tray icon at 44px, for toolkits that draw their own tray.
func IconPNG() []byte { return iconIdleHi }
