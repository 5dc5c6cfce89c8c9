//go:build !linux

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

var xKeys = func() map[string]hotkey.Key {
	keys := map[string]hotkey.Key{
		"space": hotkey.KeySpace, "enter": hotkey.KeyReturn, "esc": hotkey.KeyEscape,
		"tab": hotkey.KeyTab, "delete": hotkey.KeyDelete,
		"left": hotkey.KeyLeft, "right": hotkey.KeyRight, "up": hotkey.KeyUp, "down": hotkey.KeyDown,
		"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3, "4": hotkey.Key4,
		"5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8, "9": hotkey.Key9,
		"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
		"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
		"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
	}
	letters := []hotkey.Key{
		hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF, hotkey.KeyG,
		hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL, hotkey.KeyM, hotkey.KeyN,
		hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR, hotkey.KeyS, hotkey.KeyT, hotkey.KeyU,
		hotkey.KeyV, hotkey.KeyW, hotkey.KeyX, hotkey.KeyY, hotkey.KeyZ,
	}
	for i, k := range letters {
		keys[string(rune('a'+i))] = k
	}
	return keys
}()

type xHook struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
}

// xHooks registers each combination with golang.design/x/hotkey
// (Cocoa/Win32). Each registration gets its own listener goroutine.
type xHooks struct {
	mu    sync.Mutex
	hooks []xHook
}

// New returns the platform Listener.
func New() Listener {
	return &xHooks{}
}

func (h *xHooks) Hook(combo string, fn func()) error {
	c, err := Parse(combo)
	if err != nil {
		return err
	}
	key, ok := xKeys[c.Key]
	if !ok {
		return fmt.Errorf("%w: key %q not supported on this platform", ErrInvalidCombo, c.Key)
	}
	var mods []hotkey.Modifier
	for _, m := range modifierOrder {
		if c.Has(m.mod) {
			mods = append(mods, nativeModifiers[m.mod])
		}
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register %s: %w", c, err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				// fn may re-register, which unregisters hk
				go fn()
			}
		}
	}()

	h.mu.Lock()
	h.hooks = append(h.hooks, xHook{hk: hk, stop: stop})
	h.mu.Unlock()
	return nil
}

func (h *xHooks) UnhookAll() {
	h.mu.Lock()
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	for _, x := range hooks {
		close(x.stop)
		x.hk.Unregister()
	}
}

func (h *xHooks) Close() {
	h.UnhookAll()
}

// Diagnose checks hotkey availability and returns a status message.
func Diagnose() (string, error) {
	return "hotkey support available (golang.design/x/hotkey)", nil
}
