package gui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"uvhotkey/config"
	"uvhotkey/hotkey"
	"uvhotkey/registry"
)

// Columns of the manager table.
var Columns = []string{"Hotkey", "Name", "Env Vars", "Script Path"}

var columnWidths = []float32{150, 170, 160, 380}

func cellText(b config.Binding, col int) string {
	switch col {
	case 0:
		return b.Hotkey
	case 1:
		return b.Name
	case 2:
		return config.EnvSummary(b.EnvVars)
	case 3:
		return b.ScriptPath
	}
	return ""
}

// EnvFromRows builds an env map from editor rows. Keys are trimmed and
// rows with a blank key are dropped; later rows win.
func EnvFromRows(rows [][2]string) map[string]string {
	env := map[string]string{}
	for _, r := range rows {
		k := strings.TrimSpace(r[0])
		if k == "" {
			continue
		}
		env[k] = r[1]
	}
	return env
}

// BuildBinding validates the editor fields and returns the binding to save.
func BuildBinding(hk, script, name string, env map[string]string) (config.Binding, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return config.Binding{}, errors.New("choose a script")
	}
	if !filepath.IsAbs(script) {
		abs, err := filepath.Abs(script)
		if err != nil {
			return config.Binding{}, err
		}
		script = abs
	}
	hk = strings.TrimSpace(hk)
	if hk != "" {
		c, err := hotkey.Parse(hk)
		if err != nil {
			return config.Binding{}, err
		}
		hk = c.String()
	}
	return config.NewBinding(hk, script, strings.TrimSpace(name), env), nil
}

func launchStatus(ev registry.LaunchEvent) string {
	at := ev.At.Format("15:04:05")
	if ev.Err != nil {
		return fmt.Sprintf("%s  %s: %v", at, ev.Binding.Name, ev.Err)
	}
	return fmt.Sprintf("%s  started %s (pid %d) → %s", at, ev.Binding.Name, ev.Pid, filepath.Base(ev.LogPath))
}

func countStatus(bindings []config.Binding, registered int) string {
	active := 0
	for _, b := range bindings {
		if b.Active() {
			active++
		}
	}
	return fmt.Sprintf("%d/%d hotkeys registered", registered, active)
}

// RecordState is the outcome of one key event while recording a hotkey.
type RecordState int

const (
	RecordPending RecordState = iota
	RecordDone
	RecordCancelled
)

// Toolkit names for the modifier keys, lowercased.
var recordModifiers = map[string]hotkey.Modifier{
	"leftcontrol":  hotkey.ModCtrl,
	"rightcontrol": hotkey.ModCtrl,
	"leftshift":    hotkey.ModShift,
	"rightshift":   hotkey.ModShift,
	"leftalt":      hotkey.ModAlt,
	"rightalt":     hotkey.ModAlt,
	"leftsuper":    hotkey.ModSuper,
	"rightsuper":   hotkey.ModSuper,
}

var recordKeyAliases = map[string]string{
	"return":   "enter",
	"kp_enter": "enter",
	"escape":   "esc",
	"prior":    "pageup",
	"next":     "pagedown",
}

// KeyRecorder builds a combination from key events: modifiers are held,
// the first other key completes it. Esc alone cancels.
type KeyRecorder struct {
	held map[string]hotkey.Modifier
}

func (r *KeyRecorder) KeyDown(name string) (string, RecordState) {
	n := strings.ToLower(name)
	if m, ok := recordModifiers[n]; ok {
		if r.held == nil {
			r.held = map[string]hotkey.Modifier{}
		}
		r.held[n] = m
		return "", RecordPending
	}
	if alias, ok := recordKeyAliases[n]; ok {
		n = alias
	}
	var mods hotkey.Modifier
	for _, m := range r.held {
		mods |= m
	}
	if n == "esc" && mods == 0 {
		return "", RecordCancelled
	}
	if !hotkey.Keys[n] {
		return "", RecordPending
	}
	return hotkey.Combo{Mods: mods, Key: n}.String(), RecordDone
}

func (r *KeyRecorder) KeyUp(name string) {
	delete(r.held, strings.ToLower(name))
}
