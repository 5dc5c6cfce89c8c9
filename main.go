package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"uvhotkey/config"
	"uvhotkey/hotkey"
	"uvhotkey/log"
	"uvhotkey/registry"
)

var version = "dev"

var (
	dataDirFlag string
	runnerFlag  string
	tuiFlag     bool
	trayFlag    bool
	watchFlag   bool
	guiFlag     bool
)

var rootCmd = &cobra.Command{
	Use:   "uv-hotkey",
	Short: "Bind global hotkeys to Python scripts run with uv",
	Long: `uv-hotkey keeps a list of hotkey bindings in config.json and runs the
bound script with "uv run --script" whenever its hotkey is pressed.

Without a subcommand it starts the hotkey daemon. The subcommands edit
the same config.json; a running daemon picks the changes up.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDirFlag, "data-dir", "", "data directory (default: $UV_HOTKEY_DATA_DIR, ./.data with DEV set, or the OS data dir)")
	pf.StringVar(&runnerFlag, "runner", config.DefaultRunner, "command used to run scripts; the script path is appended")

	f := rootCmd.Flags()
	f.BoolVar(&tuiFlag, "tui", true, "run with terminal UI (false: detach into the background)")
	f.BoolVar(&trayFlag, "tray", true, "show a system tray icon")
	f.BoolVar(&watchFlag, "watch", true, "reload when config.json changes on disk")
	f.BoolVar(&guiFlag, "gui", false, "open the manager window (requires a build with -tags gui)")
}

func run() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the resolved locations and runner shared by every command.
type app struct {
	paths  config.Paths
	runner []string
}

func resolveApp() (app, error) {
	dir, err := config.ResolveDataDir(dataDirFlag)
	if err != nil {
		return app{}, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	runner, err := config.ParseRunner(runnerFlag)
	if err != nil {
		return app{}, err
	}
	a := app{paths: config.Paths{Dir: dir}, runner: runner}
	if err := a.paths.EnsureDirs(); err != nil {
		return app{}, err
	}
	log.SetDir(a.paths.LogsDir())
	return a, nil
}

func (a app) newRegistry(hooks hotkey.Hooks, onLaunch func(registry.LaunchEvent), onChange func()) *registry.Registry {
	return registry.New(registry.Options{
		Store:    config.NewFile(a.paths.ConfigFile()),
		Hooks:    hooks,
		Runner:   a.runner,
		LogsDir:  a.paths.LogsDir(),
		OnLaunch: onLaunch,
		OnChange: onChange,
	})
}

// openRegistry prepares a registry for a one-shot command. Logging goes to
// the file only. A corrupt config.json is reported instead of being
// replaced by an empty one on the next save.
func openRegistry(onLaunch func(registry.LaunchEvent)) (app, *registry.Registry, error) {
	a, err := resolveApp()
	if err != nil {
		return app{}, nil, err
	}
	if err := log.Init(nil); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	reg := a.newRegistry(hotkey.Nop{}, onLaunch, nil)
	if err := reg.Load(); err != nil {
		return app{}, nil, fmt.Errorf("%w (fix or remove %s)", err, a.paths.ConfigFile())
	}
	return a, reg, nil
}

// initCrashLog sends fatal runtime errors to crash_log.txt in the logs dir.
func initCrashLog(logsDir string) {
	crashPath := filepath.Join(logsDir, "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}
