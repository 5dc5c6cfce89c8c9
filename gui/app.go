//go:build gui

package gui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"uvhotkey/config"
	"uvhotkey/log"
	"uvhotkey/registry"
)

// Controller is what the manager window operates on.
type Controller struct {
	Registry   *registry.Registry
	ScriptsDir string
	OpenLogs   func() error
}

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	icon    []byte
	onReady func()

	ctl Controller

	mu         sync.Mutex
	bindings   []config.Binding
	registered int
	selected   int

	table  *widget.Table
	count  *widget.Label
	status *widget.Label
}

func NewApp(icon []byte, onReady func()) *App {
	return &App{icon: icon, onReady: onReady, selected: -1}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.uvhotkey.manager")
	a.fyneApp.Settings().SetTheme(&darkTheme{})
	icon := fyne.NewStaticResource("tray.png", a.icon)
	a.fyneApp.SetIcon(icon)

	a.window = a.fyneApp.NewWindow("uv-hotkey")
	a.window.SetContent(widget.NewLabel("Loading..."))
	a.window.Resize(fyne.NewSize(900, 440))
	// closing the window keeps the app running in the tray
	a.window.SetCloseIntercept(a.window.Hide)

	if desk, ok := a.fyneApp.(desktop.App); ok {
		menu := fyne.NewMenu("uv-hotkey",
			fyne.NewMenuItem("Open Manager", a.Show),
			fyne.NewMenuItem("View Logs", a.openLogs),
			fyne.NewMenuItem("Reload", a.reload),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(icon)
	} else {
		// without a tray, hiding the window would strand the app
		a.window.SetCloseIntercept(a.fyneApp.Quit)
	}

	go a.onReady()

	a.window.Show()
	a.fyneApp.Run()
	return nil
}

// Attach connects the window to a loaded registry and builds its content.
func (a *App) Attach(ctl Controller) {
	a.ctl = ctl
	fyne.Do(func() {
		a.window.SetContent(a.buildManager())
	})
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}

func (a *App) Show() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Show()
			a.window.RequestFocus()
		}
	})
}

func (a *App) openLogs() {
	if a.ctl.OpenLogs == nil {
		return
	}
	if err := a.ctl.OpenLogs(); err != nil {
		log.Warnf("open logs: %v", err)
		a.showError(err)
	}
}

func (a *App) reload() {
	if a.ctl.Registry != nil {
		go a.ctl.Registry.Reload()
	}
}

// EventSink implementation - called from registry goroutines
func (a *App) BindingsChanged(bindings []config.Binding, registered int) {
	a.mu.Lock()
	a.bindings = bindings
	a.registered = registered
	if a.selected >= len(bindings) {
		a.selected = -1
	}
	a.mu.Unlock()

	fyne.Do(func() {
		if a.table != nil {
			a.table.UnselectAll()
			a.table.Refresh()
		}
		if a.count != nil {
			a.count.SetText(countStatus(bindings, registered))
		}
	})
}

func (a *App) Launched(ev registry.LaunchEvent) {
	text := launchStatus(ev)
	fyne.Do(func() {
		if a.status != nil {
			a.status.SetText(text)
		}
	})
}

func (a *App) snapshot() []config.Binding {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bindings
}

func (a *App) selection() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}
