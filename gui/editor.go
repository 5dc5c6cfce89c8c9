//go:build gui

package gui

import (
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"uvhotkey/config"
)

type bindingResult struct {
	config.Binding
}

// showBindingEditor opens the add/edit form. onSave runs only for valid input.
func (a *App) showBindingEditor(title string, current *config.Binding, onSave func(bindingResult)) {
	name := widget.NewEntry()
	name.SetPlaceHolder("defaults to the script file name")
	hk := widget.NewEntry()
	hk.SetPlaceHolder(hotkeyPlaceHolder)
	script := widget.NewEntry()
	script.SetPlaceHolder("path to a .py script")
	env := newEnvEditor(nil)
	if current != nil {
		name.SetText(current.Name)
		hk.SetText(current.Hotkey)
		script.SetText(current.ScriptPath)
		env = newEnvEditor(current.EnvVars)
	}

	browse := widget.NewButtonWithIcon("", theme.FolderOpenIcon(), func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			defer rc.Close()
			script.SetText(rc.URI().Path())
		}, a.window)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".py"}))
		if lister, err := storage.ListerForURI(storage.NewFileURI(a.ctl.ScriptsDir)); err == nil {
			fd.SetLocation(lister)
		}
		fd.Show()
	})

	record := widget.NewButtonWithIcon("Record", theme.MediaRecordIcon(), nil)
	record.OnTapped = func() { a.recordHotkey(hk, record) }

	items := []*widget.FormItem{
		widget.NewFormItem("Name", name),
		widget.NewFormItem("Hotkey", container.NewBorder(nil, nil, nil, record, hk)),
		widget.NewFormItem("Script", container.NewBorder(nil, nil, nil, browse, script)),
		widget.NewFormItem("Env Vars", env.container()),
	}
	d := dialog.NewForm(title, "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		b, err := BuildBinding(hk.Text, script.Text, name.Text, env.env())
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		onSave(bindingResult{b})
	}, a.window)
	d.Resize(fyne.NewSize(620, 420))
	d.Show()
}

const hotkeyPlaceHolder = "e.g. ctrl+alt+t"

// recordHotkey fills field with the next combination pressed in the window.
// Esc restores the previous text.
func (a *App) recordHotkey(field *widget.Entry, button *widget.Button) {
	dc, ok := a.window.Canvas().(desktop.Canvas)
	if !ok {
		return
	}
	prev := field.Text
	rec := &KeyRecorder{}

	a.window.Canvas().Unfocus()
	button.Disable()
	field.SetText("")
	field.SetPlaceHolder("press a combination, Esc cancels")

	finish := func(text string) {
		dc.SetOnKeyDown(nil)
		dc.SetOnKeyUp(nil)
		field.SetPlaceHolder(hotkeyPlaceHolder)
		field.SetText(text)
		button.Enable()
	}
	dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
		combo, state := rec.KeyDown(string(ev.Name))
		switch state {
		case RecordDone:
			finish(combo)
		case RecordCancelled:
			finish(prev)
		}
	})
	dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
		rec.KeyUp(string(ev.Name))
	})
}

type envRow struct {
	key, value *widget.Entry
}

// envEditor edits KEY/VALUE rows; an Add button appends blank rows.
type envEditor struct {
	rows []*envRow
	box  *fyne.Container
}

func newEnvEditor(env map[string]string) *envEditor {
	ed := &envEditor{box: container.NewVBox()}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ed.addRow(k, env[k])
	}
	return ed
}

func (ed *envEditor) addRow(k, v string) {
	row := &envRow{key: widget.NewEntry(), value: widget.NewEntry()}
	row.key.SetPlaceHolder("KEY")
	row.key.SetText(k)
	row.value.SetPlaceHolder("value")
	row.value.SetText(v)

	var line *fyne.Container
	remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		for i, r := range ed.rows {
			if r == row {
				ed.rows = append(ed.rows[:i], ed.rows[i+1:]...)
				break
			}
		}
		ed.box.Remove(line)
	})
	line = container.NewBorder(nil, nil, nil, remove, container.NewGridWithColumns(2, row.key, row.value))
	ed.rows = append(ed.rows, row)
	ed.box.Add(line)
}

func (ed *envEditor) container() fyne.CanvasObject {
	add := widget.NewButtonWithIcon("Add Variable", theme.ContentAddIcon(), func() { ed.addRow("", "") })
	scroll := container.NewVScroll(ed.box)
	scroll.SetMinSize(fyne.NewSize(480, 140))
	return container.NewBorder(nil, add, nil, nil, scroll)
}

func (ed *envEditor) env() map[string]string {
	rows := make([][2]string, len(ed.rows))
	for i, r := range ed.rows {
		rows[i] = [2]string{r.key.Text, r.value.Text}
	}
	return EnvFromRows(rows)
}
