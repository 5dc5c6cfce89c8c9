// Package registry owns the hotkey bindings: it persists them, keeps the OS
// hooks in sync with them and launches the bound scripts.
//
// Every mutation follows the same sequence: change memory, save the whole
// state, then rebuild every hook from scratch. Nothing here panics or
// returns an error to a key-hook callback; failures go to the log.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"uvhotkey/config"
	"uvhotkey/hotkey"
	"uvhotkey/launch"
	"uvhotkey/log"
)

var (
	ErrConfigLoad         = errors.New("config load failed")
	ErrConfigSave         = errors.New("config save failed")
	ErrHotkeyRegistration = errors.New("hotkey registration failed")
	ErrScriptNotFound     = errors.New("script not found")
	ErrLaunch             = errors.New("launch failed")
)

// NotFound is returned by Duplicate for an out-of-range index.
const NotFound = -1

const copySuffix = " (Copy)"

// Store persists the registry state as a whole.
type Store interface {
	Load() (config.State, error)
	Save(config.State) error
}

// LaunchEvent describes one launch attempt.
type LaunchEvent struct {
	Binding config.Binding
	At      time.Time
	LogPath string
	Pid     int
	Err     error
}

type Options struct {
	Store   Store
	Hooks   hotkey.Hooks
	Spawner launch.Spawner
	// Runner is the command prefix; the script path is appended.
	Runner  []string
	LogsDir string

	OnLaunch func(LaunchEvent)
	OnChange func()

	Environ func() []string
	Now     func() time.Time
}

type Registry struct {
	opts Options

	mu    sync.Mutex
	state config.State

	// hookMu serialises unhook/hook sweeps
	hookMu     sync.Mutex
	registered int
}

func New(opts Options) *Registry {
	if opts.Hooks == nil {
		opts.Hooks = hotkey.Nop{}
	}
	if opts.Spawner == nil {
		opts.Spawner = launch.Exec{}
	}
	if len(opts.Runner) == 0 {
		opts.Runner, _ = config.ParseRunner(config.DefaultRunner)
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{opts: opts, state: config.EmptyState()}
}

// Load replaces the in-memory state with the persisted one. A missing file
// yields an empty registry without error. A corrupt file yields an empty
// registry and an error wrapping ErrConfigLoad, which is also logged.
func (r *Registry) Load() error {
	s, err := r.opts.Store.Load()
	var loadErr error
	switch {
	case err == nil:
		log.Infof("Loaded %d hotkeys, %d global env vars.", len(s.Hotkeys), len(s.GlobalEnvVars))
	case errors.Is(err, fs.ErrNotExist):
		log.Info("No config file found. Starting fresh.")
		s = config.EmptyState()
	default:
		loadErr = fmt.Errorf("%w: %v", ErrConfigLoad, err)
		log.Errorf("%v", loadErr)
		s = config.EmptyState()
	}

	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	return loadErr
}

// Reload re-reads the store and, if the content differs from memory,
// adopts it and re-registers. Unreadable or missing files leave memory
// untouched.
func (r *Registry) Reload() bool {
	s, err := r.opts.Store.Load()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("reload skipped: %v", fmt.Errorf("%w: %v", ErrConfigLoad, err))
		}
		return false
	}

	r.mu.Lock()
	if reflect.DeepEqual(r.state, s) {
		r.mu.Unlock()
		return false
	}
	r.state = s
	r.mu.Unlock()

	log.Infof("Reloaded %d hotkeys from disk.", len(s.Hotkeys))
	r.RegisterAll()
	r.changed()
	return true
}

// Bindings returns deep copies of all bindings in display order.
func (r *Registry) Bindings() []config.Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]config.Binding, len(r.state.Hotkeys))
	for i, b := range r.state.Hotkeys {
		out[i] = b.Clone()
	}
	return out
}

func (r *Registry) Binding(index int) (config.Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.state.Hotkeys) {
		return config.Binding{}, false
	}
	return r.state.Hotkeys[index].Clone(), true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.Hotkeys)
}

func (r *Registry) GlobalEnv() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return config.CloneEnv(r.state.GlobalEnvVars)
}

// Registered returns the hook count from the last RegisterAll.
func (r *Registry) Registered() int {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	return r.registered
}

func (r *Registry) Add(b config.Binding) {
	b = config.NewBinding(b.Hotkey, b.ScriptPath, b.Name, config.CloneEnv(b.EnvVars))
	log.Infof("Adding hotkey: %s", b.Name)
	r.mutate(func(s *config.State) bool {
		s.Hotkeys = append(s.Hotkeys, b)
		return true
	})
}

// Update replaces the binding at index. Out-of-range indexes are ignored.
func (r *Registry) Update(index int, b config.Binding) bool {
	b = config.NewBinding(b.Hotkey, b.ScriptPath, b.Name, config.CloneEnv(b.EnvVars))
	return r.mutate(func(s *config.State) bool {
		if index < 0 || index >= len(s.Hotkeys) {
			log.Warnf("update ignored: no hotkey at index %d", index)
			return false
		}
		log.Infof("Updating hotkey: %s", b.Name)
		s.Hotkeys[index] = b
		return true
	})
}

// Remove deletes the binding at index. Out-of-range indexes are ignored.
func (r *Registry) Remove(index int) bool {
	return r.mutate(func(s *config.State) bool {
		if index < 0 || index >= len(s.Hotkeys) {
			log.Warnf("remove ignored: no hotkey at index %d", index)
			return false
		}
		log.Infof("Removing hotkey: %s", s.Hotkeys[index].Name)
		s.Hotkeys = append(s.Hotkeys[:index], s.Hotkeys[index+1:]...)
		return true
	})
}

// Duplicate appends a deep copy of the binding at index, named with a
// " (Copy)" suffix, and returns its index or NotFound.
func (r *Registry) Duplicate(index int) int {
	newIndex := NotFound
	r.mutate(func(s *config.State) bool {
		if index < 0 || index >= len(s.Hotkeys) {
			log.Warnf("duplicate ignored: no hotkey at index %d", index)
			return false
		}
		c := s.Hotkeys[index].Clone()
		c.Name += copySuffix
		log.Infof("Duplicating hotkey: %s", c.Name)
		s.Hotkeys = append(s.Hotkeys, c)
		newIndex = len(s.Hotkeys) - 1
		return true
	})
	return newIndex
}

// SetGlobalEnv replaces the global environment. Hooks are unaffected, so
// nothing is re-registered.
func (r *Registry) SetGlobalEnv(env map[string]string) {
	env = config.CloneEnv(env)
	log.Infof("Setting %d global environment variables.", len(env))
	r.mu.Lock()
	r.state.GlobalEnvVars = env
	r.saveLocked()
	r.mu.Unlock()
	r.changed()
}

func (r *Registry) mutate(fn func(s *config.State) bool) bool {
	r.mu.Lock()
	if !fn(&r.state) {
		r.mu.Unlock()
		return false
	}
	r.saveLocked()
	r.mu.Unlock()

	r.RegisterAll()
	r.changed()
	return true
}

// saveLocked persists the state. On failure memory stays authoritative and
// the file is stale until the next successful save.
func (r *Registry) saveLocked() {
	log.Debugf("Saving configuration.")
	if err := r.opts.Store.Save(r.state); err != nil {
		log.Errorf("%v", fmt.Errorf("%w: %v", ErrConfigSave, err))
	}
}

func (r *Registry) changed() {
	if r.opts.OnChange != nil {
		r.opts.OnChange()
	}
}

// RegisterAll removes every hook, then hooks each active binding. A combo
// the OS rejects is logged and skipped. Returns the number installed.
func (r *Registry) RegisterAll() int {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()

	log.Debugf("Registering hotkeys...")
	bindings := r.Bindings()
	r.opts.Hooks.UnhookAll()

	count := 0
	for _, b := range bindings {
		if !b.Active() {
			continue
		}
		if err := r.opts.Hooks.Hook(b.Hotkey, func() { r.Launch(b) }); err != nil {
			log.Errorf("%v", fmt.Errorf("%w: '%s' for '%s': %v", ErrHotkeyRegistration, b.Hotkey, b.Name, err))
			continue
		}
		count++
	}
	r.registered = count
	log.Registered(count, len(bindings))
	return count
}

// LaunchAt launches the binding at index.
func (r *Registry) LaunchAt(index int) bool {
	b, ok := r.Binding(index)
	if !ok {
		log.Warnf("launch ignored: no hotkey at index %d", index)
		return false
	}
	return r.Launch(b)
}

// Launch starts b's script without waiting for it. Output goes to a fresh
// log file under LogsDir. After a successful spawn all hooks are
// re-registered.
func (r *Registry) Launch(b config.Binding) bool {
	log.Infof("Running script: %s (%s)", b.Name, b.Hotkey)
	ev := LaunchEvent{Binding: b, At: r.opts.Now()}

	if _, err := os.Stat(b.ScriptPath); err != nil {
		ev.Err = fmt.Errorf("%w: %s", ErrScriptNotFound, b.ScriptPath)
		log.Errorf("%v", ev.Err)
		r.notify(ev)
		return false
	}

	env := EnvList(EffectiveEnv(r.opts.Environ(), r.GlobalEnv(), b.EnvVars))
	ev.LogPath = log.ScriptLogPath(r.opts.LogsDir, b.Name, ev.At)

	if err := os.MkdirAll(r.opts.LogsDir, 0755); err != nil {
		return r.launchFailed(ev, err)
	}
	// O_APPEND: two launches within the same second share one file
	out, err := os.OpenFile(ev.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return r.launchFailed(ev, err)
	}
	defer out.Close()

	args := append(append([]string{}, r.opts.Runner[1:]...), b.ScriptPath)
	proc, err := r.opts.Spawner.Spawn(launch.Command{
		Path:   r.opts.Runner[0],
		Args:   args,
		Env:    env,
		Stdout: out,
		Stderr: out,
	})
	if err != nil {
		return r.launchFailed(ev, err)
	}

	ev.Pid = proc.Pid()
	log.Launch(b.Name, b.Hotkey, ev.Pid, ev.LogPath)
	r.notify(ev)

	r.RegisterAll()
	return true
}

func (r *Registry) launchFailed(ev LaunchEvent, err error) bool {
	ev.Err = fmt.Errorf("%w: %s: %v", ErrLaunch, ev.Binding.Name, err)
	log.Errorf("%v", ev.Err)
	r.notify(ev)
	return false
}

func (r *Registry) notify(ev LaunchEvent) {
	if r.opts.OnLaunch != nil {
		r.opts.OnLaunch(ev)
	}
}

// foldEnvCase makes env keys match case-insensitively, as Windows does:
// the process reports Path while users write PATH.
var foldEnvCase = runtime.GOOS == "windows"

// EffectiveEnv layers process env (KEY=VALUE entries), then each map in
// order; later layers win on key collision. With foldEnvCase a later
// layer replaces an earlier key that differs only in case.
func EffectiveEnv(base []string, layers ...map[string]string) map[string]string {
	env := make(map[string]string, len(base))
	spelling := map[string]string{}
	set := func(k, v string) {
		if foldEnvCase {
			folded := strings.ToUpper(k)
			if old, ok := spelling[folded]; ok && old != k {
				delete(env, old)
			}
			spelling[folded] = k
		}
		env[k] = v
	}

	for _, kv := range base {
		// the key may itself start with '=' (Windows per-drive "=C:=C:\dir")
		if kv == "" {
			continue
		}
		i := strings.IndexByte(kv[1:], '=')
		if i < 0 {
			continue
		}
		set(kv[:i+1], kv[i+2:])
	}
	for _, layer := range layers {
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			set(k, layer[k])
		}
	}
	return env
}

// EnvList renders env as sorted KEY=VALUE entries.
func EnvList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
