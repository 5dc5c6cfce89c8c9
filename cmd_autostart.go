package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"uvhotkey/config"
	"uvhotkey/login"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Show whether the daemon starts on login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if login.Enabled() {
			fmt.Printf("enabled (%s)\n", login.Location())
		} else {
			fmt.Println("disabled")
		}
		return nil
	},
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start the daemon in the background on login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := resolveApp()
		if err != nil {
			return err
		}
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
		if err := login.Enable(autostartEntry(exe, a)); err != nil {
			return err
		}
		fmt.Printf("enabled (%s)\n", login.Location())
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting the daemon on login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := login.Disable(); err != nil {
			return err
		}
		fmt.Println("disabled")
		return nil
	},
}

func init() {
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd)
	rootCmd.AddCommand(autostartCmd)
}

// autostartEntry pins the resolved data dir and runner so the login
// session does not depend on the shell's environment.
func autostartEntry(exe string, a app) login.Entry {
	args := []string{"--tui=false", "--data-dir", a.paths.Dir}
	if runnerFlag != config.DefaultRunner {
		args = append(args, "--runner", runnerFlag)
	}
	return login.Entry{
		Executable: exe,
		Args:       args,
		Env:        map[string]string{bgEnv: "1"},
	}
}
