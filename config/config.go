package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	AppName    = "uv-hotkey"
	FileName   = "config.json"
	LogsDir    = ".logs"
	ScriptsDir = "scripts"
)

// Binding maps one hotkey combination to a script.
type Binding struct {
	Hotkey     string            `json:"hotkey"`
	ScriptPath string            `json:"script_path"`
	Name       string            `json:"name"`
	EnvVars    map[string]string `json:"env_vars"`
}

// NewBinding builds a Binding, defaulting the name to the script's file name.
func NewBinding(hotkey, scriptPath, name string, env map[string]string) Binding {
	b := Binding{Hotkey: hotkey, ScriptPath: scriptPath, Name: name, EnvVars: env}
	b.normalize()
	return b
}

func (b *Binding) normalize() {
	if b.Name == "" && b.ScriptPath != "" {
		b.Name = filepath.Base(b.ScriptPath)
	}
	if b.EnvVars == nil {
		b.EnvVars = map[string]string{}
	}
}

// Active reports whether the binding can be registered with the OS.
func (b Binding) Active() bool {
	return b.Hotkey != "" && b.ScriptPath != ""
}

// Clone returns a deep copy.
func (b Binding) Clone() Binding {
	c := b
	c.EnvVars = CloneEnv(b.EnvVars)
	return c
}

// State is everything persisted to config.json.
type State struct {
	Hotkeys       []Binding         `json:"hotkeys"`
	GlobalEnvVars map[string]string `json:"global_env_vars"`
}

func EmptyState() State {
	return State{Hotkeys: []Binding{}, GlobalEnvVars: map[string]string{}}
}

func (s State) Clone() State {
	c := State{
		Hotkeys:       make([]Binding, len(s.Hotkeys)),
		GlobalEnvVars: CloneEnv(s.GlobalEnvVars),
	}
	for i, b := range s.Hotkeys {
		c.Hotkeys[i] = b.Clone()
	}
	return c
}

func CloneEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

// EnvSummary renders env keys for a one-line display: empty for no vars,
// the keys themselves for up to three, otherwise a count and the first two.
func EnvSummary(env map[string]string) string {
	if len(env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) <= 3 {
		return strings.Join(keys, ", ")
	}
	return fmt.Sprintf("(%d) %s...", len(keys), strings.Join(keys[:2], ", "))
}

// ParseEnvPair splits a KEY=VALUE argument.
func ParseEnvPair(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", fmt.Errorf("invalid env var %q: want KEY=VALUE", s)
	}
	return k, v, nil
}

// Decode parses config.json content. Missing fields fall back to empty values.
func Decode(data []byte) (State, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return State{}, errors.New("empty config")
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, err
	}
	if s.Hotkeys == nil {
		s.Hotkeys = []Binding{}
	}
	if s.GlobalEnvVars == nil {
		s.GlobalEnvVars = map[string]string{}
	}
	for i := range s.Hotkeys {
		s.Hotkeys[i].normalize()
	}
	return s, nil
}

func Encode(s State) ([]byte, error) {
	s = s.Clone()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Paths groups the files and directories under one data directory.
type Paths struct {
	Dir string
}

func (p Paths) ConfigFile() string { return filepath.Join(p.Dir, FileName) }
func (p Paths) LogsDir() string    { return filepath.Join(p.Dir, LogsDir) }
func (p Paths) ScriptsDir() string { return filepath.Join(p.Dir, ScriptsDir) }

// EnsureDirs creates the data, logs and scripts directories.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Dir, p.LogsDir(), p.ScriptsDir()} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	return nil
}

// ResolveDataDir picks the data directory: flag, then UV_HOTKEY_DATA_DIR,
// then ./.data when DEV is set, then the OS default.
func ResolveDataDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absPath(flagPath)
	}
	if envPath := os.Getenv("UV_HOTKEY_DATA_DIR"); envPath != "" {
		return absPath(envPath)
	}
	if os.Getenv("DEV") != "" {
		return absPath(".data")
	}
	return getDefaultDir()
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

// ParseRunner splits a runner command line on whitespace.
func ParseRunner(s string) ([]string, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, errors.New("runner command is empty")
	}
	return fields, nil
}

const DefaultRunner = "uv run --script"
