package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"uvhotkey/config"
)

func TestCheckDataDirCreatesLayout(t *testing.T) {
	p := config.Paths{Dir: filepath.Join(t.TempDir(), "data")}
	if !checkDataDir(p) {
		t.Fatal("data dir check failed")
	}
	for _, d := range []string{p.LogsDir(), p.ScriptsDir()} {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			t.Errorf("%s not created", d)
		}
	}
	if _, err := os.Stat(filepath.Join(p.LogsDir(), ".doctor")); !os.IsNotExist(err) {
		t.Error("probe file left behind")
	}
}

func TestCheckConfigMissingPasses(t *testing.T) {
	p := config.Paths{Dir: t.TempDir()}
	s, ok := checkConfig(p)
	if !ok {
		t.Error("missing config should pass")
	}
	if len(s.Hotkeys) != 0 {
		t.Errorf("hotkeys = %v", s.Hotkeys)
	}
}

func TestCheckConfigCorruptFails(t *testing.T) {
	p := config.Paths{Dir: t.TempDir()}
	if err := os.WriteFile(p.ConfigFile(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := checkConfig(p); ok {
		t.Error("corrupt config should fail")
	}
}

func TestCheckConfigCountsBindings(t *testing.T) {
	p := config.Paths{Dir: t.TempDir()}
	s := config.EmptyState()
	s.Hotkeys = append(s.Hotkeys,
		config.NewBinding("ctrl+alt+t", filepath.Join(p.Dir, "a.py"), "", nil),
		config.NewBinding("", filepath.Join(p.Dir, "b.py"), "", nil),
	)
	if err := config.NewFile(p.ConfigFile()).Save(s); err != nil {
		t.Fatal(err)
	}
	got, ok := checkConfig(p)
	if !ok {
		t.Fatal("valid config should pass")
	}
	if len(got.Hotkeys) != 2 {
		t.Errorf("loaded %d bindings, want 2", len(got.Hotkeys))
	}
}

func TestCheckRunner(t *testing.T) {
	if checkRunner(nil) {
		t.Error("empty runner should fail")
	}
	if checkRunner([]string{filepath.Join(t.TempDir(), "no-such-uv")}) {
		t.Error("missing runner should fail")
	}
	self, err := os.Executable()
	if err != nil {
		t.Skip(err)
	}
	if !checkRunner([]string{self}) {
		t.Error("existing executable should pass")
	}
}
