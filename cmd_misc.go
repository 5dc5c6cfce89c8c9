package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"uvhotkey/doctor"
	"uvhotkey/launch"
	"uvhotkey/log"
)

var (
	logsCopy          bool
	logsOpen          bool
	logsLimit         int
	doctorInteractive bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the logs directory and the most recent script logs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := resolveApp()
		if err != nil {
			return err
		}
		dir := a.paths.LogsDir()
		fmt.Println(dir)

		if logsCopy {
			if err := clipboard.WriteAll(dir); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Println("(copied to clipboard)")
		}
		if logsOpen {
			if err := launch.OpenPath(launch.Exec{}, dir); err != nil {
				return fmt.Errorf("open logs: %w", err)
			}
		}

		recent, err := recentLogs(dir, logsLimit)
		if err != nil {
			return err
		}
		for _, name := range recent {
			fmt.Println("  " + name)
		}
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run system diagnostics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := resolveApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(doctor.Run(doctor.Options{
			Paths:       a.paths,
			Runner:      a.runner,
			Interactive: doctorInteractive,
		}))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("uv-hotkey %s %s/%s\n", version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	logsCmd.Flags().BoolVarP(&logsCopy, "copy", "c", false, "copy the logs directory path to the clipboard")
	logsCmd.Flags().BoolVarP(&logsOpen, "open", "o", false, "open the logs directory")
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 10, "number of recent script logs to list")
	doctorCmd.Flags().BoolVarP(&doctorInteractive, "interactive", "i", false, "wait for the first bound hotkey to be pressed")

	rootCmd.AddCommand(logsCmd, doctorCmd, versionCmd)
}

// recentLogs returns the newest script log names, newest first. The
// application's own log is left out.
func recentLogs(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	type logFile struct {
		name string
		mod  int64
	}
	var files []logFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" || e.Name() == log.FileName {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{e.Name(), info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].mod != files[j].mod {
			return files[i].mod > files[j].mod
		}
		return files[i].name > files[j].name
	})
	if limit >= 0 && len(files) > limit {
		files = files[:limit]
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}
