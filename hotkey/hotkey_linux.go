//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

var modifierCodes = map[uint16]Modifier{
	29:  ModCtrl,  // KEY_LEFTCTRL
	97:  ModCtrl,  // KEY_RIGHTCTRL
	42:  ModShift, // KEY_LEFTSHIFT
	54:  ModShift, // KEY_RIGHTSHIFT
	56:  ModAlt,   // KEY_LEFTALT
	100: ModAlt,   // KEY_RIGHTALT
	125: ModSuper, // KEY_LEFTMETA
	126: ModSuper, // KEY_RIGHTMETA
}

var keyCodes = func() map[string]uint16 {
	codes := map[string]uint16{
		"esc": 1, "backspace": 14, "tab": 15, "enter": 28, "space": 57,
		"home": 102, "up": 103, "pageup": 104, "left": 105, "right": 106,
		"end": 107, "down": 108, "pagedown": 109, "insert": 110, "delete": 111,
		"f11": 87, "f12": 88,
	}
	for i, c := range "1234567890" {
		codes[string(c)] = uint16(2 + i)
	}
	rows := []struct {
		letters string
		first   uint16
	}{
		{"qwertyuiop", 16},
		{"asdfghjkl", 30},
		{"zxcvbnm", 44},
	}
	for _, r := range rows {
		for i, c := range r.letters {
			codes[string(c)] = r.first + uint16(i)
		}
	}
	for i := 1; i <= 10; i++ {
		codes[fmt.Sprintf("f%d", i)] = uint16(58 + i)
	}
	for i := 13; i <= 24; i++ {
		codes[fmt.Sprintf("f%d", i)] = uint16(183 + i - 13)
	}
	return codes
}()

// heldKey is a modifier held down on one device.
type heldKey struct {
	dev  int
	code uint16
}

type hookEntry struct {
	mods Modifier
	code uint16
	fn   func()
}

// evdevHooks reads /dev/input directly, so it works under X11 and Wayland
// alike. The user must be in the 'input' group. Devices stay open for the
// life of the process; UnhookAll only clears the combination table.
// Modifier state is shared across devices, so ctrl on one keyboard and a
// key on another still form a combination.
type evdevHooks struct {
	mu      sync.Mutex
	entries []hookEntry
	held    map[heldKey]bool
	files   []*os.File
	opened  bool
	stop    chan struct{}
	once    sync.Once
}

// New returns the platform Listener.
func New() Listener {
	return &evdevHooks{stop: make(chan struct{})}
}

func (h *evdevHooks) Hook(combo string, fn func()) error {
	c, err := Parse(combo)
	if err != nil {
		return err
	}
	code, ok := keyCodes[c.Key]
	if !ok {
		return fmt.Errorf("%w: key %q not supported by evdev", ErrInvalidCombo, c.Key)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.opened {
		if err := h.open(); err != nil {
			return err
		}
		h.opened = true
	}
	h.entries = append(h.entries, hookEntry{mods: c.Mods, code: code, fn: fn})
	return nil
}

func (h *evdevHooks) UnhookAll() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}

func (h *evdevHooks) open() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(len(h.files)-1, f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return nil
}

func (h *evdevHooks) readEvents(dev int, f *os.File) {
	defer h.releaseDevice(dev)
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			// fn may re-register, which takes mu
			for _, fn := range h.handle(dev, evCode, evValue) {
				go fn()
			}
		}
	}
}

// handle records modifier state and returns the callbacks a key press
// fires. Autorepeat (value 2) never fires a hook.
func (h *evdevHooks) handle(dev int, code uint16, value int32) []func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, isMod := modifierCodes[code]; isMod {
		if h.held == nil {
			h.held = map[heldKey]bool{}
		}
		k := heldKey{dev, code}
		switch value {
		case keyPress:
			h.held[k] = true
		case keyRelease:
			delete(h.held, k)
		}
		return nil
	}
	if value != keyPress {
		return nil
	}
	return h.matchLocked(code, heldMods(h.held))
}

// releaseDevice forgets modifiers held on a device that stopped reporting.
func (h *evdevHooks) releaseDevice(dev int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for k := range h.held {
		if k.dev == dev {
			delete(h.held, k)
		}
	}
}

func heldMods(held map[heldKey]bool) Modifier {
	var m Modifier
	for k := range held {
		m |= modifierCodes[k.code]
	}
	return m
}

func (h *evdevHooks) match(code uint16, mods Modifier) []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.matchLocked(code, mods)
}

func (h *evdevHooks) matchLocked(code uint16, mods Modifier) []func() {
	var fns []func()
	for _, e := range h.entries {
		if e.code == code && e.mods == mods {
			fns = append(fns, e.fn)
		}
	}
	return fns
}

func (h *evdevHooks) Close() {
	h.once.Do(func() {
		close(h.stop)
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, f := range h.files {
			f.Close()
		}
		h.files = nil
		h.entries = nil
	})
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks evdev access and returns a status message.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
