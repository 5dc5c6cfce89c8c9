package tray

import (
	"sync/atomic"

	"fyne.io/systray"
)

var (
	mLast *systray.MenuItem
	ready atomic.Bool
)

// Init starts the tray icon and returns a channel closed when the user quits.
func Init() <-chan struct{} {
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	runLoop(start)
	return quitCh
}

// Stop removes the tray icon.
func Stop() {
	if ready.Load() {
		systray.Quit()
	}
}

func onReady() {
	systray.SetTemplateIcon(platformIcon(iconIdleHi), platformIcon(iconIdle))
	systray.SetTooltip(Tooltip(0, 0))

	mLast = systray.AddMenuItem("Last: none", "Most recent launch")
	mLast.Disable()
	systray.AddSeparator()

	mEdit := systray.AddMenuItem("Edit Config", "Open config.json")
	mLogs := systray.AddMenuItem("View Logs", "Open the logs folder")
	mReload := systray.AddMenuItem("Reload", "Re-read config.json and re-register hotkeys")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit uv-hotkey")

	go func() {
		for {
			select {
			case <-mEdit.ClickedCh:
				call(&editConfigFn)
			case <-mLogs.ClickedCh:
				call(&openLogsFn)
			case <-mReload.ClickedCh:
				call(&reloadFn)
			case <-mQuit.ClickedCh:
				Quit()
				return
			case <-quitCh:
				return
			}
		}
	}()
	ready.Store(true)
}

func updateTooltip(msg string) {
	if ready.Load() {
		systray.SetTooltip(msg)
	}
}

func updateWarningIcon(on bool) {
	if !ready.Load() {
		return
	}
	if on {
		systray.SetIcon(platformIcon(iconWarnHi))
	} else {
		systray.SetTemplateIcon(platformIcon(iconIdleHi), platformIcon(iconIdle))
	}
}

func updateLastTitle(title string) {
	if ready.Load() && mLast != nil {
		mLast.SetTitle(title)
	}
}

func onExit() {
	closeOnce.Do(func() { close(quitCh) })
}
