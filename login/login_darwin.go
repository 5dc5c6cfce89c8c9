//go:build darwin

package login

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

func path() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", Label+".plist")
}

func Enabled() bool {
	_, err := os.Stat(path())
	return err == nil
}

func Enable(e Entry) error {
	p := path()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("create LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(p, []byte(plist(e)), 0600); err != nil {
		return fmt.Errorf("write plist: %w", err)
	}

	domain := fmt.Sprintf("gui/%d", os.Getuid())
	// Bootout first in case service is already loaded (re-enable scenario)
	exec.Command("launchctl", "bootout", domain, p).Run()
	if out, err := exec.Command("launchctl", "bootstrap", domain, p).CombinedOutput(); err != nil {
		return fmt.Errorf("launchctl bootstrap: %w (%s)", err, out)
	}
	return nil
}

func Disable() error {
	p := path()
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return nil
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	exec.Command("launchctl", "bootout", domain, p).Run()
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove plist: %w", err)
	}
	return nil
}

func Location() string { return path() }
