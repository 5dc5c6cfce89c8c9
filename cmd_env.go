package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"uvhotkey/config"
)

var envReplace bool

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show or change the global environment variables",
	Long: `Global environment variables are passed to every script. A binding's
own variables override them, and both override the inherited process
environment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		printEnv(os.Stdout, reg.GlobalEnv())
		return nil
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE...",
	Short: "Set global environment variables",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := parseEnvPairs(args)
		if err != nil {
			return err
		}
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		env := reg.GlobalEnv()
		for k, v := range set {
			env[k] = v
		}
		reg.SetGlobalEnv(env)
		fmt.Printf("Set %d variable(s); %d global total\n", len(set), len(env))
		return nil
	},
}

var envUnsetCmd = &cobra.Command{
	Use:   "unset KEY...",
	Short: "Remove global environment variables",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		env := reg.GlobalEnv()
		removed := 0
		for _, k := range args {
			if _, ok := env[k]; ok {
				delete(env, k)
				removed++
			}
		}
		if removed == 0 {
			fmt.Println("Nothing to remove.")
			return nil
		}
		reg.SetGlobalEnv(env)
		fmt.Printf("Removed %d variable(s)\n", removed)
		return nil
	},
}

var envImportCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Merge variables from .env files into the global environment",
	Long:  `Reads files in .env syntax. Use "-" to read from standard input.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imported, err := readEnvSources(args, os.Stdin)
		if err != nil {
			return err
		}
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		env := reg.GlobalEnv()
		if envReplace {
			env = map[string]string{}
		}
		for k, v := range imported {
			env[k] = v
		}
		reg.SetGlobalEnv(env)
		fmt.Printf("Imported %d variable(s); %d global total\n", len(imported), len(env))
		return nil
	},
}

var envExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the global environment in .env syntax",
	Long:  `The output can be read back with "uv-hotkey env import -".`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := openRegistry(nil)
		if err != nil {
			return err
		}
		fmt.Print(config.FormatDotenv(reg.GlobalEnv()))
		return nil
	},
}

func init() {
	envImportCmd.Flags().BoolVar(&envReplace, "replace", false, "replace the global environment instead of merging")
	envCmd.AddCommand(envSetCmd, envUnsetCmd, envImportCmd, envExportCmd)
	rootCmd.AddCommand(envCmd)
}

// readEnvSources merges .env sources in order; "-" reads stdin.
func readEnvSources(sources []string, stdin io.Reader) (map[string]string, error) {
	env := map[string]string{}
	for _, src := range sources {
		var vars map[string]string
		var err error
		if src == "-" {
			data, rerr := io.ReadAll(stdin)
			if rerr != nil {
				return nil, rerr
			}
			vars, err = config.ParseDotenv(string(data))
		} else {
			vars, err = config.ReadDotenv(src)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		for k, v := range vars {
			env[k] = v
		}
	}
	return env, nil
}

func printEnv(w io.Writer, env map[string]string) {
	if len(env) == 0 {
		fmt.Fprintln(w, "No global environment variables.")
		return
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s=%s\n", k, env[k])
	}
}
