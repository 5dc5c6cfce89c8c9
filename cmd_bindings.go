package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"uvhotkey/config"
	"uvhotkey/hotkey"
	"uvhotkey/registry"
)

var (
	bindHotkey   string
	bindScript   string
	bindName     string
	bindEnv      []string
	bindUnsetEnv []string
	bindClearEnv bool
	rmYes        bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List hotkey bindings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		bindings := reg.Bindings()
		if len(bindings) == 0 {
			fmt.Println("No hotkeys configured.")
			return nil
		}
		fmt.Println(renderBindings(bindings))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a hotkey binding",
	Example: `  uv-hotkey add --hotkey ctrl+alt+t --script ~/scripts/transcribe.py
  uv-hotkey add --hotkey ctrl+shift+d --script draft.py --name Draft --env MODEL=small`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hk, err := canonicalHotkey(bindHotkey)
		if err != nil {
			return err
		}
		script, err := scriptPath(bindScript)
		if err != nil {
			return err
		}
		env, err := parseEnvPairs(bindEnv)
		if err != nil {
			return err
		}
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		b := config.NewBinding(hk, script, bindName, env)
		reg.Add(b)
		fmt.Printf("Added #%d %s → %s\n", reg.Len(), displayHotkey(b.Hotkey), b.Name)
		warnMissingScript(b.ScriptPath)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <#>",
	Short: "Change fields of a hotkey binding",
	Long:  "Change the fields named by flags; everything else is kept.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		i, err := parseIndex(args[0], reg.Len())
		if err != nil {
			return err
		}
		b, _ := reg.Binding(i)
		flags := cmd.Flags()
		if flags.Changed("hotkey") {
			if b.Hotkey, err = canonicalHotkey(bindHotkey); err != nil {
				return err
			}
		}
		if flags.Changed("script") {
			if b.ScriptPath, err = scriptPath(bindScript); err != nil {
				return err
			}
		}
		if flags.Changed("name") {
			b.Name = bindName
		}
		if bindClearEnv {
			b.EnvVars = map[string]string{}
		}
		for _, k := range bindUnsetEnv {
			delete(b.EnvVars, k)
		}
		set, err := parseEnvPairs(bindEnv)
		if err != nil {
			return err
		}
		for k, v := range set {
			b.EnvVars[k] = v
		}
		// an emptied name falls back to the script name again
		b = config.NewBinding(b.Hotkey, b.ScriptPath, b.Name, b.EnvVars)
		reg.Update(i, b)
		fmt.Printf("Updated #%d %s → %s\n", i+1, displayHotkey(b.Hotkey), b.Name)
		warnMissingScript(b.ScriptPath)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <#>",
	Aliases: []string{"remove"},
	Short:   "Remove a hotkey binding",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		i, err := parseIndex(args[0], reg.Len())
		if err != nil {
			return err
		}
		b, _ := reg.Binding(i)
		if !rmYes && !confirm(fmt.Sprintf("Remove hotkey '%s' (%s)?", b.Name, displayHotkey(b.Hotkey))) {
			fmt.Println("Aborted.")
			return nil
		}
		reg.Remove(i)
		fmt.Printf("Removed %s\n", b.Name)
		return nil
	},
}

var dupCmd = &cobra.Command{
	Use:     "dup <#>",
	Aliases: []string{"duplicate"},
	Short:   "Duplicate a hotkey binding",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		i, err := parseIndex(args[0], reg.Len())
		if err != nil {
			return err
		}
		j := reg.Duplicate(i)
		b, _ := reg.Binding(j)
		fmt.Printf("Added #%d %s\n", j+1, b.Name)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <#>",
	Short: "Run a binding's script now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var last registry.LaunchEvent
		_, reg, err := openRegistry(func(ev registry.LaunchEvent) { last = ev })
		if err != nil {
			return err
		}
		i, err := parseIndex(args[0], reg.Len())
		if err != nil {
			return err
		}
		if !reg.LaunchAt(i) {
			return last.Err
		}
		fmt.Printf("Started %s (pid %d)\n", last.Binding.Name, last.Pid)
		fmt.Printf("Log: %s\n", last.LogPath)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVarP(&bindHotkey, "hotkey", "k", "", "hotkey combination, e.g. ctrl+alt+t (empty: inactive)")
		c.Flags().StringVarP(&bindScript, "script", "s", "", "path to the script")
		c.Flags().StringVarP(&bindName, "name", "n", "", "display name (default: script file name)")
		c.Flags().StringArrayVarP(&bindEnv, "env", "e", nil, "environment variable KEY=VALUE (repeatable)")
	}
	addCmd.MarkFlagRequired("script")
	editCmd.Flags().StringArrayVar(&bindUnsetEnv, "unset-env", nil, "remove an environment variable (repeatable)")
	editCmd.Flags().BoolVar(&bindClearEnv, "clear-env", false, "remove all of the binding's environment variables")
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(listCmd, addCmd, editCmd, rmCmd, dupCmd, runCmd)
}

func renderBindings(bindings []config.Binding) string {
	rows := make([][]string, len(bindings))
	for i, b := range bindings {
		rows[i] = []string{strconv.Itoa(i + 1), displayHotkey(b.Hotkey), b.Name, config.EnvSummary(b.EnvVars), b.ScriptPath}
	}
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	dim := cell.Foreground(lipgloss.Color("241"))
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Hotkey", "Name", "Env Vars", "Script Path").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case row >= 0 && row < len(bindings) && !bindings[row].Active():
				return dim
			}
			return cell
		}).
		String()
}

func displayHotkey(hk string) string {
	if hk == "" {
		return "(none)"
	}
	return hk
}

// canonicalHotkey validates s and returns its canonical spelling.
func canonicalHotkey(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	c, err := hotkey.Parse(s)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func scriptPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("script path is empty")
	}
	return filepath.Abs(p)
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	env := map[string]string{}
	for _, p := range pairs {
		k, v, err := config.ParseEnvPair(p)
		if err != nil {
			return nil, err
		}
		env[k] = v
	}
	return env, nil
}

// parseIndex turns a 1-based position from the command line into an index.
func parseIndex(arg string, n int) (int, error) {
	i, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		return 0, fmt.Errorf("invalid binding number %q", arg)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("no binding #%d (have %d)", i, n)
	}
	return i - 1, nil
}

func warnMissingScript(path string) {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, color.YellowString("Warning: script not found: %s", path))
	}
}

// confirm asks a yes/no question on the terminal. Without a terminal the
// answer is no.
func confirm(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Printf("%s [y/N] ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
