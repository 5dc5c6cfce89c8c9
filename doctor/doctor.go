package doctor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"uvhotkey/config"
	"uvhotkey/hotkey"
)

type Options struct {
	Paths  config.Paths
	Runner []string
	// Interactive waits for the first bound hotkey to be pressed.
	Interactive bool
	// Hooks overrides the platform hook backend for the interactive check.
	Hooks hotkey.Hooks
}

var (
	pass = color.New(color.FgGreen, color.Bold).SprintFunc()
	fail = color.New(color.FgRed, color.Bold).SprintFunc()
	warn = color.New(color.FgYellow, color.Bold).SprintFunc()
)

const checks = 4

// Run executes diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("uv-hotkey doctor - system diagnostics")
	fmt.Println("=====================================")

	allPass := true
	if !checkDataDir(opts.Paths) {
		allPass = false
	}
	state, ok := checkConfig(opts.Paths)
	if !ok {
		allPass = false
	}
	if !checkRunner(opts.Runner) {
		allPass = false
	}
	if !checkHotkey(state, opts) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func header(n int, title string) {
	fmt.Println()
	fmt.Printf("[%d/%d] %s\n", n, checks, title)
}

func checkDataDir(p config.Paths) bool {
	header(1, "Data directory")
	if err := p.EnsureDirs(); err != nil {
		fmt.Printf("  %s: %v\n", fail("FAIL"), err)
		return false
	}
	probe := filepath.Join(p.LogsDir(), ".doctor")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		fmt.Printf("  %s: logs directory not writable: %v\n", fail("FAIL"), err)
		return false
	}
	os.Remove(probe)
	fmt.Printf("  %s: %s\n", pass("PASS"), p.Dir)
	return true
}

func checkConfig(p config.Paths) (config.State, bool) {
	header(2, "Configuration")
	s, err := config.NewFile(p.ConfigFile()).Load()
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Printf("  %s: no %s yet (starts empty)\n", pass("PASS"), config.FileName)
		return s, true
	case err != nil:
		fmt.Printf("  %s: %v\n", fail("FAIL"), err)
		return s, false
	}

	active := 0
	for _, b := range s.Hotkeys {
		if !b.Active() {
			continue
		}
		active++
		if _, err := hotkey.Parse(b.Hotkey); err != nil {
			fmt.Printf("  %s: %s: %v\n", warn("WARN"), b.Name, err)
		}
		if _, err := os.Stat(b.ScriptPath); err != nil {
			fmt.Printf("  %s: %s: script missing: %s\n", warn("WARN"), b.Name, b.ScriptPath)
		}
	}
	fmt.Printf("  %s: %d binding(s), %d active, %d global env var(s)\n",
		pass("PASS"), len(s.Hotkeys), active, len(s.GlobalEnvVars))
	return s, true
}

func checkRunner(runner []string) bool {
	header(3, "Script runner")
	if len(runner) == 0 {
		fmt.Printf("  %s: no runner configured\n", fail("FAIL"))
		return false
	}
	path, err := exec.LookPath(runner[0])
	if err != nil {
		fmt.Printf("  %s: %s not found on PATH\n", fail("FAIL"), runner[0])
		fmt.Println("  Install uv: https://docs.astral.sh/uv/getting-started/installation/")
		return false
	}
	fmt.Printf("  %s: %s\n", pass("PASS"), path)
	return true
}

func checkHotkey(s config.State, opts Options) bool {
	header(4, "Hotkey detection")
	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  %s: %v\n", fail("FAIL"), err)
		return false
	}
	fmt.Printf("  %s: %s\n", pass("PASS"), msg)

	if !opts.Interactive {
		return true
	}

	var combo string
	for _, b := range s.Hotkeys {
		if b.Active() {
			combo = b.Hotkey
			break
		}
	}
	if combo == "" {
		fmt.Println("  (no active binding to test)")
		return true
	}

	hooks := opts.Hooks
	if hooks == nil {
		l := hotkey.New()
		defer l.Close()
		hooks = l
	}
	pressed := make(chan struct{}, 1)
	if err := hooks.Hook(combo, func() {
		select {
		case pressed <- struct{}{}:
		default:
		}
	}); err != nil {
		fmt.Printf("  %s: could not register %s: %v\n", fail("FAIL"), combo, err)
		return false
	}
	defer hooks.UnhookAll()

	fmt.Printf("Press %s...\n", combo)
	select {
	case <-pressed:
		fmt.Printf("  %s: hotkey detected\n", pass("PASS"))
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Printf("  %s: timeout waiting for hotkey\n", fail("FAIL"))
		return false
	}
}
