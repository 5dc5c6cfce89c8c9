//go:build linux

package login

import (
	"fmt"
	"os"
	"path/filepath"
)

func path() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, "autostart", "uv-hotkey.desktop")
}

func Enabled() bool {
	_, err := os.Stat(path())
	return err == nil
}

func Enable(e Entry) error {
	p := path()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(p, []byte(desktopFile(e)), 0644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

func Disable() error {
	if err := os.Remove(path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove desktop entry: %w", err)
	}
	return nil
}

func Location() string { return path() }
