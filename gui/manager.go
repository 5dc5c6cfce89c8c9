//go:build gui

package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

func (a *App) buildManager() fyne.CanvasObject {
	a.table = widget.NewTableWithHeaders(
		func() (int, int) { return len(a.snapshot()), len(Columns) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.Truncation = fyne.TextTruncateEllipsis
			return l
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			bindings := a.snapshot()
			if id.Row < 0 || id.Row >= len(bindings) {
				o.(*widget.Label).SetText("")
				return
			}
			o.(*widget.Label).SetText(cellText(bindings[id.Row], id.Col))
		},
	)
	a.table.ShowHeaderColumn = false
	a.table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}
	a.table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		if id.Row == -1 && id.Col >= 0 && id.Col < len(Columns) {
			o.(*widget.Label).SetText(Columns[id.Col])
		}
	}
	for i, w := range columnWidths {
		a.table.SetColumnWidth(i, w)
	}
	a.table.OnSelected = func(id widget.TableCellID) {
		a.mu.Lock()
		a.selected = id.Row
		a.mu.Unlock()
	}
	a.table.OnUnselected = func(widget.TableCellID) {
		a.mu.Lock()
		a.selected = -1
		a.mu.Unlock()
	}

	toolbar := container.NewHBox(
		widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), a.addBinding),
		widget.NewButtonWithIcon("Edit", theme.DocumentCreateIcon(), a.editBinding),
		widget.NewButtonWithIcon("Duplicate", theme.ContentCopyIcon(), a.duplicateBinding),
		widget.NewButtonWithIcon("Remove", theme.ContentRemoveIcon(), a.removeBinding),
		widget.NewButtonWithIcon("Run", theme.MediaPlayIcon(), a.runBinding),
		widget.NewSeparator(),
		widget.NewButtonWithIcon("Global Env", theme.SettingsIcon(), a.editGlobalEnv),
		widget.NewButtonWithIcon("Logs", theme.FolderOpenIcon(), a.openLogs),
	)

	a.count = widget.NewLabel("")
	a.status = widget.NewLabel("")
	a.status.Truncation = fyne.TextTruncateEllipsis
	footer := container.NewBorder(nil, nil, nil, a.count, a.status)

	return container.NewBorder(toolbar, footer, nil, nil, a.table)
}

// selectedOrWarn returns the selected row, or -1 after telling the user
// to pick one.
func (a *App) selectedOrWarn() int {
	i := a.selection()
	if i < 0 {
		dialog.ShowInformation("No selection", "Select a hotkey in the table first.", a.window)
	}
	return i
}

// Registry calls leave the UI goroutine: registering hotkeys on macOS
// needs the main thread, which Fyne is holding.

func (a *App) addBinding() {
	a.showBindingEditor("Add Hotkey", nil, func(b bindingResult) {
		go a.ctl.Registry.Add(b.Binding)
	})
}

func (a *App) editBinding() {
	i := a.selectedOrWarn()
	if i < 0 {
		return
	}
	b, ok := a.ctl.Registry.Binding(i)
	if !ok {
		return
	}
	a.showBindingEditor("Edit Hotkey", &b, func(r bindingResult) {
		go a.ctl.Registry.Update(i, r.Binding)
	})
}

func (a *App) duplicateBinding() {
	i := a.selectedOrWarn()
	if i < 0 {
		return
	}
	go a.ctl.Registry.Duplicate(i)
}

func (a *App) removeBinding() {
	i := a.selectedOrWarn()
	if i < 0 {
		return
	}
	b, ok := a.ctl.Registry.Binding(i)
	if !ok {
		return
	}
	msg := fmt.Sprintf("Remove hotkey '%s' (%s)?", b.Name, b.Hotkey)
	dialog.ShowConfirm("Remove Hotkey", msg, func(yes bool) {
		if yes {
			go a.ctl.Registry.Remove(i)
		}
	}, a.window)
}

func (a *App) runBinding() {
	i := a.selectedOrWarn()
	if i < 0 {
		return
	}
	go a.ctl.Registry.LaunchAt(i)
}

func (a *App) editGlobalEnv() {
	ed := newEnvEditor(a.ctl.Registry.GlobalEnv())
	d := dialog.NewCustomConfirm("Global Environment Variables", "Save", "Cancel", ed.container(),
		func(save bool) {
			if save {
				go a.ctl.Registry.SetGlobalEnv(ed.env())
			}
		}, a.window)
	d.Resize(fyne.NewSize(560, 360))
	d.Show()
}

func (a *App) showError(err error) {
	fyne.Do(func() {
		dialog.ShowError(err, a.window)
	})
}
