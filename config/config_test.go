package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewBindingDefaultsName(t *testing.T) {
	b := NewBinding("ctrl+alt+t", "/scripts/transcribe.py", "", nil)
	if b.Name != "transcribe.py" {
		t.Errorf("name = %q, want transcribe.py", b.Name)
	}
	if b.EnvVars == nil {
		t.Error("expected non-nil env map")
	}
}

func TestActive(t *testing.T) {
	cases := []struct {
		b    Binding
		want bool
	}{
		{Binding{Hotkey: "ctrl+a", ScriptPath: "/a.py"}, true},
		{Binding{Hotkey: "", ScriptPath: "/a.py"}, false},
		{Binding{Hotkey: "ctrl+a", ScriptPath: ""}, false},
	}
	for _, c := range cases {
		if got := c.b.Active(); got != c.want {
			t.Errorf("%+v.Active() = %v, want %v", c.b, got, c.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := NewBinding("ctrl+a", "/a.py", "A", map[string]string{"K": "1"})
	c := b.Clone()
	c.EnvVars["K"] = "2"
	if b.EnvVars["K"] != "1" {
		t.Errorf("original env mutated: %v", b.EnvVars)
	}
}

func TestDecodeFillsDefaults(t *testing.T) {
	s, err := Decode([]byte(`{"hotkeys":[{"hotkey":"ctrl+x","script_path":"/tmp/x.py"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Hotkeys) != 1 {
		t.Fatalf("got %d hotkeys", len(s.Hotkeys))
	}
	if s.Hotkeys[0].Name != "x.py" {
		t.Errorf("name = %q, want x.py", s.Hotkeys[0].Name)
	}
	if s.GlobalEnvVars == nil || s.Hotkeys[0].EnvVars == nil {
		t.Error("expected maps to be initialized")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "{not json", `{"hotkeys": 3}`} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", in)
		}
	}
}

func TestEncodeEmptyEnvAsObject(t *testing.T) {
	s := State{Hotkeys: []Binding{{Hotkey: "ctrl+t", ScriptPath: "/s.py", Name: "T"}}}
	data, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, `"env_vars": {}`) {
		t.Errorf("expected empty env_vars object, got:\n%s", out)
	}
	if !strings.Contains(out, `"global_env_vars": {}`) {
		t.Errorf("expected empty global_env_vars object, got:\n%s", out)
	}
}

func TestFileMissing(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "config.json"))
	s, err := f.Load()
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	if len(s.Hotkeys) != 0 || len(s.GlobalEnvVars) != 0 {
		t.Errorf("expected empty state, got %+v", s)
	}
}

func TestFileRoundTrip(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nested", "config.json"))
	want := State{
		Hotkeys: []Binding{
			NewBinding("ctrl+alt+r", "/r.py", "R", map[string]string{"A": "1"}),
			NewBinding("ctrl+alt+s", "/s.py", "", nil),
		},
		GlobalEnvVars: map[string]string{"G": "x"},
	}
	if err := f.Save(want); err != nil {
		t.Fatal(err)
	}
	got, err := f.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Hotkeys) != 2 || got.Hotkeys[0].EnvVars["A"] != "1" || got.Hotkeys[1].Name != "s.py" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.GlobalEnvVars["G"] != "x" {
		t.Errorf("global env = %v", got.GlobalEnvVars)
	}

	entries, err := os.ReadDir(filepath.Dir(f.Path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only config.json after save, found %d entries", len(entries))
	}
}

func TestResolveDataDirFlag(t *testing.T) {
	got, err := ResolveDataDir("/tmp/uvh")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/uvh" {
		t.Errorf("got %q, want /tmp/uvh", got)
	}
}

func TestResolveDataDirEnv(t *testing.T) {
	t.Setenv("UV_HOTKEY_DATA_DIR", "/tmp/uvh-env")
	got, err := ResolveDataDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/uvh-env" {
		t.Errorf("got %q, want /tmp/uvh-env", got)
	}
}

func TestResolveDataDirDev(t *testing.T) {
	t.Setenv("UV_HOTKEY_DATA_DIR", "")
	t.Setenv("DEV", "1")
	got, err := ResolveDataDir("")
	if err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if want := filepath.Join(wd, ".data"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEnsureDirs(t *testing.T) {
	p := Paths{Dir: filepath.Join(t.TempDir(), "data")}
	if err := p.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{p.LogsDir(), p.ScriptsDir()} {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			t.Errorf("%s not created: %v", d, err)
		}
	}
}

func TestParseRunner(t *testing.T) {
	got, err := ParseRunner(DefaultRunner)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, "|") != "uv|run|--script" {
		t.Errorf("got %v", got)
	}
	if _, err := ParseRunner("  "); err == nil {
		t.Error("expected error for blank runner")
	}
}

func TestWatchReportsSave(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "config.json"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	ready := make(chan error, 1)
	go func() {
		ready <- Watch(ctx, f.Path, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// give the watcher time to add the directory
	time.Sleep(100 * time.Millisecond)
	if err := f.Save(EmptyState()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case err := <-ready:
		t.Fatalf("watch exited early: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestEnvSummary(t *testing.T) {
	cases := []struct {
		env  map[string]string
		want string
	}{
		{nil, ""},
		{map[string]string{"A": "1"}, "A"},
		{map[string]string{"B": "1", "A": "2", "C": "3"}, "A, B, C"},
		{map[string]string{"D": "", "B": "", "A": "", "C": ""}, "(4) A, B..."},
	}
	for _, c := range cases {
		if got := EnvSummary(c.env); got != c.want {
			t.Errorf("EnvSummary(%v) = %q, want %q", c.env, got, c.want)
		}
	}
}

func TestParseEnvPair(t *testing.T) {
	k, v, err := ParseEnvPair("MODEL=large=v3")
	if err != nil || k != "MODEL" || v != "large=v3" {
		t.Errorf("got %q %q %v", k, v, err)
	}
	if _, v, err := ParseEnvPair("EMPTY="); err != nil || v != "" {
		t.Errorf("empty value: %q %v", v, err)
	}
	for _, bad := range []string{"NOVALUE", "=x", ""} {
		if _, _, err := ParseEnvPair(bad); err == nil {
			t.Errorf("ParseEnvPair(%q) succeeded", bad)
		}
	}
}

func TestParseDotenv(t *testing.T) {
	env, err := ParseDotenv("# comment\nMODEL=large\nexport LANG=\"en US\"\n\nTOKEN='a=b'\n")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"MODEL": "large", "LANG": "en US", "TOKEN": "a=b"}
	if len(env) != len(want) {
		t.Fatalf("got %v", env)
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("%s = %q, want %q", k, env[k], v)
		}
	}

	empty, err := ParseDotenv("  \n")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("blank input: %v %v", empty, err)
	}
}

func TestFormatDotenvParsesBack(t *testing.T) {
	env := map[string]string{"B": "two words", "A": "1", "C": `quote"d`}
	text := FormatDotenv(env)
	if !strings.HasPrefix(text, "A=") {
		t.Errorf("not sorted: %q", text)
	}
	got, err := ParseDotenv(text)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range env {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
	if FormatDotenv(nil) != "" {
		t.Error("nil env should format empty")
	}
}

func TestReadDotenv(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.env")
	b := filepath.Join(dir, "b.env")
	os.WriteFile(a, []byte("X=1\nY=1\n"), 0644)
	os.WriteFile(b, []byte("Y=2\n"), 0644)
	env, err := ReadDotenv(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if env["X"] != "1" || env["Y"] != "2" {
		t.Errorf("env = %v", env)
	}
	if _, err := ReadDotenv(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("expected error for missing file")
	}
}
