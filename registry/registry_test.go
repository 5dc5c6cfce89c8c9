package registry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"uvhotkey/config"
	"uvhotkey/hotkey"
	"uvhotkey/launch"
	"uvhotkey/log"
)

type fixture struct {
	dir     string
	store   *config.File
	hooks   *hotkey.Recorder
	spawner *launch.Recorder
	reg     *Registry
	events  []LaunchEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		store:   config.NewFile(filepath.Join(dir, config.FileName)),
		hooks:   hotkey.NewRecorder(),
		spawner: &launch.Recorder{},
	}
	f.reg = f.open()
	return f
}

// open builds a fresh registry over the same store and loads it.
func (f *fixture) open() *Registry {
	r := New(Options{
		Store:    f.store,
		Hooks:    f.hooks,
		Spawner:  f.spawner,
		LogsDir:  filepath.Join(f.dir, config.LogsDir),
		OnLaunch: func(ev LaunchEvent) { f.events = append(f.events, ev) },
		Environ:  func() []string { return []string{"PATH=/usr/bin", "A=0", "HOME=/home/u"} },
		Now:      func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	r.Load()
	return r
}

func (f *fixture) script(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(f.dir, name)
	if err := os.WriteFile(p, []byte("print('hi')\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func (f *fixture) fileBytes(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(f.store.Path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// assertPersisted reloads the store into a new registry and compares.
func (f *fixture) assertPersisted(t *testing.T) {
	t.Helper()
	reloaded := f.open()
	if !reflect.DeepEqual(reloaded.Bindings(), f.reg.Bindings()) {
		t.Errorf("persisted bindings differ:\n disk: %+v\n  mem: %+v", reloaded.Bindings(), f.reg.Bindings())
	}
	if !reflect.DeepEqual(reloaded.GlobalEnv(), f.reg.GlobalEnv()) {
		t.Errorf("persisted global env differs: disk %v, mem %v", reloaded.GlobalEnv(), f.reg.GlobalEnv())
	}
}

func TestLoadMissingFile(t *testing.T) {
	f := newFixture(t)
	if err := f.reg.Load(); err != nil {
		t.Errorf("missing file should not be an error: %v", err)
	}
	if f.reg.Len() != 0 || len(f.reg.GlobalEnv()) != 0 {
		t.Error("expected empty registry")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(f.store.Path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	err := f.reg.Load()
	if !errors.Is(err, ErrConfigLoad) {
		t.Errorf("err = %v, want ErrConfigLoad", err)
	}
	if f.reg.Len() != 0 {
		t.Error("expected empty registry after corrupt load")
	}
}

func TestAddScenario(t *testing.T) {
	f := newFixture(t)
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+t", ScriptPath: "/s.py", Name: "T"})

	s, err := f.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Hotkeys) != 1 {
		t.Fatalf("persisted %d hotkeys, want 1", len(s.Hotkeys))
	}
	if s.Hotkeys[0].Name != "T" {
		t.Errorf("name = %q, want T", s.Hotkeys[0].Name)
	}
	if !strings.Contains(string(f.fileBytes(t)), `"env_vars": {}`) {
		t.Errorf("expected empty env_vars object in file:\n%s", f.fileBytes(t))
	}

	if n := f.reg.RegisterAll(); n != 1 {
		t.Errorf("RegisterAll = %d, want 1", n)
	}
	if got := f.hooks.Combos(); len(got) != 1 || got[0] != "ctrl+alt+t" {
		t.Errorf("hooked combos = %v", got)
	}
}

func TestAddDefaultsNameAndCopiesEnv(t *testing.T) {
	f := newFixture(t)
	env := map[string]string{"K": "v"}
	f.reg.Add(config.Binding{Hotkey: "ctrl+a", ScriptPath: "/scripts/screenshot.py", EnvVars: env})
	env["K"] = "changed"

	b, _ := f.reg.Binding(0)
	if b.Name != "screenshot.py" {
		t.Errorf("name = %q, want screenshot.py", b.Name)
	}
	if b.EnvVars["K"] != "v" {
		t.Errorf("registry shares caller's map: %v", b.EnvVars)
	}
}

func TestRoundTripAfterEveryMutation(t *testing.T) {
	f := newFixture(t)

	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: "/a.py", Name: "A", EnvVars: map[string]string{"X": "1"}})
	f.assertPersisted(t)
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+b", ScriptPath: "/b.py"})
	f.assertPersisted(t)
	f.reg.Update(0, config.Binding{Hotkey: "ctrl+alt+c", ScriptPath: "/c.py", Name: "C"})
	f.assertPersisted(t)
	f.reg.Duplicate(1)
	f.assertPersisted(t)
	f.reg.Remove(0)
	f.assertPersisted(t)
	f.reg.SetGlobalEnv(map[string]string{"G": "g"})
	f.assertPersisted(t)

	names := []string{}
	for _, b := range f.reg.Bindings() {
		names = append(names, b.Name)
	}
	if strings.Join(names, ",") != "b.py,b.py (Copy)" {
		t.Errorf("names = %v", names)
	}
}

func TestMutationsReRegister(t *testing.T) {
	f := newFixture(t)
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: "/a.py"})
	f.reg.Update(0, config.Binding{Hotkey: "ctrl+alt+b", ScriptPath: "/a.py"})

	if got := f.hooks.Combos(); len(got) != 1 || got[0] != "ctrl+alt+b" {
		t.Errorf("combos after update = %v, want [ctrl+alt+b]", got)
	}

	f.reg.Remove(0)
	if got := f.hooks.Combos(); len(got) != 0 {
		t.Errorf("combos after remove = %v", got)
	}
	if f.hooks.Unhooks != 3 {
		t.Errorf("unhooks = %d, want 3", f.hooks.Unhooks)
	}
}

func TestSetGlobalEnvDoesNotReRegister(t *testing.T) {
	f := newFixture(t)
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: "/a.py"})
	before := f.hooks.Unhooks

	env := map[string]string{"A": "1"}
	f.reg.SetGlobalEnv(env)
	env["A"] = "2"

	if f.hooks.Unhooks != before {
		t.Error("SetGlobalEnv re-registered hooks")
	}
	if f.reg.GlobalEnv()["A"] != "1" {
		t.Errorf("global env shares caller's map: %v", f.reg.GlobalEnv())
	}
	f.assertPersisted(t)
}

func TestOutOfRangeLeavesFileUntouched(t *testing.T) {
	f := newFixture(t)
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: "/a.py", Name: "A"})
	before := f.fileBytes(t)
	unhooks := f.hooks.Unhooks

	for _, i := range []int{-1, 1, 99} {
		if f.reg.Update(i, config.Binding{Hotkey: "ctrl+x", ScriptPath: "/x.py"}) {
			t.Errorf("Update(%d) reported success", i)
		}
		if f.reg.Remove(i) {
			t.Errorf("Remove(%d) reported success", i)
		}
		if got := f.reg.Duplicate(i); got != NotFound {
			t.Errorf("Duplicate(%d) = %d, want NotFound", i, got)
		}
	}

	if !bytes.Equal(before, f.fileBytes(t)) {
		t.Error("config file changed after out-of-range operations")
	}
	if f.reg.Len() != 1 {
		t.Errorf("len = %d, want 1", f.reg.Len())
	}
	if f.hooks.Unhooks != unhooks {
		t.Error("out-of-range operations re-registered hooks")
	}
}

func TestDuplicateIsDeepCopy(t *testing.T) {
	f := newFixture(t)
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: "/a.py", Name: "A", EnvVars: map[string]string{"K": "1"}})

	idx := f.reg.Duplicate(0)
	if idx != 1 {
		t.Fatalf("Duplicate = %d, want 1", idx)
	}
	orig, _ := f.reg.Binding(0)
	dup, _ := f.reg.Binding(idx)
	if dup.Name != "A (Copy)" {
		t.Errorf("name = %q, want %q", dup.Name, "A (Copy)")
	}
	if dup.Hotkey != orig.Hotkey || dup.ScriptPath != orig.ScriptPath {
		t.Errorf("dup %+v differs from original %+v", dup, orig)
	}
	if !reflect.DeepEqual(dup.EnvVars, orig.EnvVars) {
		t.Errorf("env %v != %v", dup.EnvVars, orig.EnvVars)
	}

	dup.EnvVars["K"] = "2"
	f.reg.Update(idx, dup)
	orig, _ = f.reg.Binding(0)
	if orig.EnvVars["K"] != "1" {
		t.Errorf("mutating the copy changed the original: %v", orig.EnvVars)
	}
}

func TestRegisterAllSkipsInactiveAndFailures(t *testing.T) {
	f := newFixture(t)
	f.hooks.Fail["ctrl+alt+b"] = true
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: "/a.py"})
	f.reg.Add(config.Binding{Hotkey: "", ScriptPath: "/nohotkey.py"})
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+b", ScriptPath: "/b.py"})
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+c", ScriptPath: ""})
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+d", ScriptPath: "/d.py"})

	f.hooks.Attempts = 0
	n := f.reg.RegisterAll()
	if n != 2 {
		t.Errorf("RegisterAll = %d, want 2", n)
	}
	if f.reg.Registered() != 2 {
		t.Errorf("Registered = %d, want 2", f.reg.Registered())
	}
	if f.hooks.Attempts != 3 {
		t.Errorf("hook attempts = %d, want 3 (inactive bindings must be skipped)", f.hooks.Attempts)
	}
	got := f.hooks.Combos()
	if strings.Join(got, ",") != "ctrl+alt+a,ctrl+alt+d" {
		t.Errorf("combos = %v", got)
	}
}

func TestEffectiveEnvLayering(t *testing.T) {
	setFoldEnvCase(t, false)
	base := []string{"PATH=/usr/bin", "A=0", "=C:=C:\\", "EQ=a=b", "", "=broken"}
	got := EffectiveEnv(base, map[string]string{"A": "1"}, map[string]string{"A": "2", "B": "3", "path": "/opt"})
	want := map[string]string{"PATH": "/usr/bin", "path": "/opt", "A": "2", "B": "3", "EQ": "a=b", "=C:": "C:\\"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func setFoldEnvCase(t *testing.T, on bool) {
	t.Helper()
	prev := foldEnvCase
	foldEnvCase = on
	t.Cleanup(func() { foldEnvCase = prev })
}

func TestEffectiveEnvFoldsCase(t *testing.T) {
	setFoldEnvCase(t, true)
	base := []string{`Path=C:\Windows`, "TEMP=C:\\tmp", `=C:=C:\work`}
	got := EffectiveEnv(base,
		map[string]string{"PATH": `C:\venv\bin`, "temp": "global"},
		map[string]string{"Temp": "binding"},
	)
	want := map[string]string{"PATH": `C:\venv\bin`, "Temp": "binding", "=C:": `C:\work`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if list := EnvList(got); strings.Join(list, ";") != `=C:=C:\work;PATH=C:\venv\bin;Temp=binding` {
		t.Errorf("list = %v", list)
	}
}

func TestLaunchOverridesProcessPathIgnoringCase(t *testing.T) {
	setFoldEnvCase(t, true)
	f := newFixture(t)
	f.reg.opts.Environ = func() []string { return []string{`Path=C:\Windows`, "HOME=/home/u"} }
	script := f.script(t, "venv.py")
	f.reg.SetGlobalEnv(map[string]string{"PATH": `C:\venv\bin`})
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+v", ScriptPath: script})

	if !f.hooks.Trigger("ctrl+alt+v") {
		t.Fatal("hotkey not hooked")
	}
	if f.spawner.Count() != 1 {
		t.Fatalf("spawned %d processes, want 1", f.spawner.Count())
	}
	var paths []string
	for _, kv := range f.spawner.Commands[0].Env {
		if strings.EqualFold(kv[:strings.IndexByte(kv, '=')], "PATH") {
			paths = append(paths, kv)
		}
	}
	if len(paths) != 1 || paths[0] != `PATH=C:\venv\bin` {
		t.Errorf("path entries = %v", paths)
	}
}

func TestEnvListSorted(t *testing.T) {
	got := EnvList(map[string]string{"B": "2", "A": "1"})
	if strings.Join(got, " ") != "A=1 B=2" {
		t.Errorf("got %v", got)
	}
}

func TestLaunchSpawnsWithLayeredEnv(t *testing.T) {
	f := newFixture(t)
	script := f.script(t, "transcribe.py")
	f.reg.SetGlobalEnv(map[string]string{"A": "1"})
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+t", ScriptPath: script, Name: "Transcribe", EnvVars: map[string]string{"A": "2", "B": "3"}})
	unhooks := f.hooks.Unhooks

	if !f.hooks.Trigger("ctrl+alt+t") {
		t.Fatal("hotkey not hooked")
	}

	if f.spawner.Count() != 1 {
		t.Fatalf("spawned %d processes, want 1", f.spawner.Count())
	}
	cmd := f.spawner.Commands[0]
	if cmd.Path != "uv" || strings.Join(cmd.Args, " ") != "run --script "+script {
		t.Errorf("command = %s %v", cmd.Path, cmd.Args)
	}
	wantEnv := []string{"A=2", "B=3", "HOME=/home/u", "PATH=/usr/bin"}
	if !reflect.DeepEqual(cmd.Env, wantEnv) {
		t.Errorf("env = %v, want %v", cmd.Env, wantEnv)
	}

	wantLog := filepath.Join(f.dir, config.LogsDir, "transcribe_20250102_030405.log")
	if len(f.events) != 1 || f.events[0].LogPath != wantLog || f.events[0].Err != nil {
		t.Fatalf("events = %+v", f.events)
	}
	if _, err := os.Stat(wantLog); err != nil {
		t.Errorf("log file not created: %v", err)
	}
	if cmd.Stdout != cmd.Stderr {
		t.Error("stdout and stderr should share the log file")
	}

	if f.hooks.Unhooks != unhooks+1 {
		t.Error("expected a re-registration after launch")
	}
	if got := f.hooks.Combos(); len(got) != 1 {
		t.Errorf("combos after launch re-sync = %v", got)
	}
}

func TestLaunchMissingScript(t *testing.T) {
	f := newFixture(t)
	logDir := t.TempDir()
	log.SetDir(logDir)
	if err := log.Init(nil); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close(); log.SetDir("") })

	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+t", ScriptPath: filepath.Join(f.dir, "gone.py"), Name: "Gone"})
	unhooks := f.hooks.Unhooks

	if f.reg.LaunchAt(0) {
		t.Error("launch of missing script reported success")
	}
	if f.spawner.Count() != 0 {
		t.Errorf("spawned %d processes, want 0", f.spawner.Count())
	}
	if len(f.events) != 1 || !errors.Is(f.events[0].Err, ErrScriptNotFound) {
		t.Errorf("events = %+v, want one ErrScriptNotFound", f.events)
	}
	if f.hooks.Unhooks != unhooks {
		t.Error("failed launch should not re-register")
	}

	data, err := os.ReadFile(filepath.Join(logDir, log.FileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "script not found") {
		t.Errorf("log missing script-not-found entry:\n%s", data)
	}
}

func TestLaunchSpawnFailure(t *testing.T) {
	f := newFixture(t)
	script := f.script(t, "a.py")
	f.spawner.Err = errors.New("exec: uv not found")
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: script})

	if f.reg.LaunchAt(0) {
		t.Error("expected launch failure")
	}
	if len(f.events) != 1 || !errors.Is(f.events[0].Err, ErrLaunch) {
		t.Errorf("events = %+v, want one ErrLaunch", f.events)
	}
}

func TestLaunchAtOutOfRange(t *testing.T) {
	f := newFixture(t)
	if f.reg.LaunchAt(3) {
		t.Error("LaunchAt on empty registry reported success")
	}
}

func TestCustomRunner(t *testing.T) {
	f := newFixture(t)
	script := f.script(t, "a.py")
	r := New(Options{
		Store:   f.store,
		Hooks:   f.hooks,
		Spawner: f.spawner,
		Runner:  []string{"python3"},
		LogsDir: filepath.Join(f.dir, config.LogsDir),
	})
	if !r.Launch(config.NewBinding("ctrl+a", script, "", nil)) {
		t.Fatal("launch failed")
	}
	cmd := f.spawner.Commands[0]
	if cmd.Path != "python3" || len(cmd.Args) != 1 || cmd.Args[0] != script {
		t.Errorf("command = %s %v", cmd.Path, cmd.Args)
	}
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	// a directory where the file should be makes every save fail
	blocked := filepath.Join(dir, "config.json")
	if err := os.MkdirAll(filepath.Join(blocked, "x"), 0755); err != nil {
		t.Fatal(err)
	}
	hooks := hotkey.NewRecorder()
	r := New(Options{Store: config.NewFile(blocked), Hooks: hooks, Spawner: &launch.Recorder{}})

	r.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: "/a.py"})
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1", r.Len())
	}
	if len(hooks.Combos()) != 1 {
		t.Error("hooks should still be registered after a failed save")
	}
}

func TestReload(t *testing.T) {
	f := newFixture(t)
	f.reg.Add(config.Binding{Hotkey: "ctrl+alt+a", ScriptPath: "/a.py"})

	if f.reg.Reload() {
		t.Error("reload of unchanged file reported a change")
	}

	s, _ := f.store.Load()
	s.Hotkeys = append(s.Hotkeys, config.NewBinding("ctrl+alt+b", "/b.py", "", nil))
	if err := f.store.Save(s); err != nil {
		t.Fatal(err)
	}
	if !f.reg.Reload() {
		t.Fatal("reload missed external change")
	}
	if f.reg.Len() != 2 {
		t.Errorf("len = %d, want 2", f.reg.Len())
	}
	if len(f.hooks.Combos()) != 2 {
		t.Errorf("combos = %v", f.hooks.Combos())
	}

	if err := os.WriteFile(f.store.Path, []byte("{half"), 0644); err != nil {
		t.Fatal(err)
	}
	if f.reg.Reload() {
		t.Error("corrupt file should not be adopted")
	}
	if f.reg.Len() != 2 {
		t.Errorf("len after corrupt reload = %d, want 2", f.reg.Len())
	}
}

func TestOnChange(t *testing.T) {
	f := newFixture(t)
	calls := 0
	r := New(Options{Store: f.store, Hooks: f.hooks, Spawner: f.spawner, OnChange: func() { calls++ }})
	r.Add(config.Binding{Hotkey: "ctrl+a", ScriptPath: "/a.py"})
	r.Remove(5)
	r.SetGlobalEnv(nil)
	if calls != 2 {
		t.Errorf("OnChange calls = %d, want 2", calls)
	}
}
