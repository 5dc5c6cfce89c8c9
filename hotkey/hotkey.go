package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// Hooks installs process-wide key combinations.
type Hooks interface {
	// Hook calls fn each time combo is pressed.
	Hook(combo string, fn func()) error
	// UnhookAll removes every combination installed through Hook.
	UnhookAll()
}

// Listener is a Hooks backed by the OS that must be released on exit.
type Listener interface {
	Hooks
	Close()
}

type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModSuper
)

var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModShift, "shift"},
	{ModSuper, "super"},
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"shift":   ModShift,
	"super":   ModSuper,
	"win":     ModSuper,
	"windows": ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"meta":    ModSuper,
}

var keyAliases = map[string]string{
	"return":   "enter",
	"escape":   "esc",
	"del":      "delete",
	"ins":      "insert",
	"pgup":     "pageup",
	"pgdn":     "pagedown",
	"spacebar": "space",
	"back":     "backspace",
}

// Keys lists every key name Parse accepts, after aliasing.
var Keys = func() map[string]bool {
	keys := map[string]bool{}
	for c := 'a'; c <= 'z'; c++ {
		keys[string(c)] = true
	}
	for c := '0'; c <= '9'; c++ {
		keys[string(c)] = true
	}
	for i := 1; i <= 24; i++ {
		keys[fmt.Sprintf("f%d", i)] = true
	}
	for _, k := range []string{
		"space", "enter", "tab", "esc", "backspace", "delete", "insert",
		"home", "end", "pageup", "pagedown", "up", "down", "left", "right",
	} {
		keys[k] = true
	}
	return keys
}()

var ErrInvalidCombo = errors.New("invalid hotkey")

// Combo is a parsed key combination such as ctrl+alt+r.
type Combo struct {
	Mods Modifier
	Key  string
}

func (c Combo) Has(m Modifier) bool {
	return c.Mods&m != 0
}

// String renders the combination in canonical order.
func (c Combo) String() string {
	var parts []string
	for _, m := range modifierOrder {
		if c.Has(m.mod) {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Parse reads a descriptor like "Ctrl+Alt+R" or "left ctrl+page up".
// Matching is case-insensitive; left/right variants of modifiers collapse.
func Parse(s string) (Combo, error) {
	var c Combo
	if strings.TrimSpace(s) == "" {
		return c, fmt.Errorf("%w: empty", ErrInvalidCombo)
	}
	for _, raw := range strings.Split(s, "+") {
		part := strings.ToLower(strings.TrimSpace(raw))
		part = strings.TrimPrefix(part, "left ")
		part = strings.TrimPrefix(part, "right ")
		if part == "" {
			return Combo{}, fmt.Errorf("%w: empty part in %q", ErrInvalidCombo, s)
		}
		if m, ok := modifierNames[part]; ok {
			c.Mods |= m
			continue
		}
		key := strings.ReplaceAll(part, " ", "")
		if alias, ok := keyAliases[key]; ok {
			key = alias
		}
		if !Keys[key] {
			return Combo{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidCombo, part, s)
		}
		if c.Key != "" {
			return Combo{}, fmt.Errorf("%w: more than one key in %q", ErrInvalidCombo, s)
		}
		c.Key = key
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("%w: no key in %q", ErrInvalidCombo, s)
	}
	return c, nil
}
