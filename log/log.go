package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const FileName = "uv-hotkey.log"

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// Init opens the log file in Dir. When console is non-nil, info and above
// are mirrored to it.
func Init(console io.Writer) error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()
	if diagFile != nil {
		diagFile.Close()
	}

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	fileWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	writers := []io.Writer{levelWriter{w: fileWriter, min: zerolog.DebugLevel}}
	if console != nil {
		consoleWriter := zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}
		writers = append(writers, levelWriter{w: consoleWriter, min: zerolog.InfoLevel})
	}
	diagLog = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

type levelWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (l levelWriter) Write(p []byte) (int, error) {
	return l.w.Write(p)
}

func (l levelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < l.min {
		return len(p), nil
	}
	return l.w.Write(p)
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(version, dataDir string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("version", version).
		Str("data_dir", dataDir).
		Msg("session_start")
}

func Registered(count, total int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("registered", count).
		Int("bindings", total).
		Msg("hotkeys_registered")
}

func Launch(name, hotkey string, pid int, logPath string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("name", name).
		Str("hotkey", hotkey).
		Int("child_pid", pid).
		Str("log", logPath).
		Msg("script_launched")
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeName turns a binding name into a file-name-safe slug.
func NormalizeName(name string) string {
	n := unsafeNameChars.ReplaceAllString(strings.ToLower(name), "_")
	n = strings.Trim(n, "_")
	if n == "" {
		return "script"
	}
	return n
}

// ScriptLogPath returns <logsDir>/<normalized-name>_<YYYYMMDD_HHMMSS>.log.
func ScriptLogPath(logsDir, name string, t time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", NormalizeName(name), t.Format("20060102_150405")))
}
