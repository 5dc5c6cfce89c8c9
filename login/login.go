// Package login installs or removes the per-user "start on login" entry
// for the hotkey daemon.
package login

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
)

const (
	Label    = "io.uvhotkey.daemon"
	AppTitle = "uv-hotkey"
)

var ErrUnsupported = errors.New("start on login is not supported on this platform")

// Entry is the command started at login.
type Entry struct {
	Executable string
	Args       []string
	Env        map[string]string
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// plist renders a launchd LaunchAgent.
func plist(e Entry) string {
	var args strings.Builder
	for _, a := range append([]string{e.Executable}, e.Args...) {
		fmt.Fprintf(&args, "\t\t<string>%s</string>\n", html.EscapeString(a))
	}
	var env strings.Builder
	for _, k := range sortedKeys(e.Env) {
		fmt.Fprintf(&env, "\t\t<key>%s</key>\n\t\t<string>%s</string>\n", html.EscapeString(k), html.EscapeString(e.Env[k]))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
	<key>EnvironmentVariables</key>
	<dict>
%s	</dict>
</dict>
</plist>
`, Label, args.String(), env.String())
}

// desktopFile renders an XDG autostart entry. Environment is passed
// through env(1).
func desktopFile(e Entry) string {
	var cmd []string
	if len(e.Env) > 0 {
		cmd = append(cmd, "env")
		for _, k := range sortedKeys(e.Env) {
			cmd = append(cmd, desktopQuote(k+"="+e.Env[k]))
		}
	}
	cmd = append(cmd, desktopQuote(e.Executable))
	for _, a := range e.Args {
		cmd = append(cmd, desktopQuote(a))
	}
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Comment=Global hotkeys for uv scripts
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`, AppTitle, strings.Join(cmd, " "))
}

// desktopQuote quotes an Exec argument using freedesktop Exec quoting.
func desktopQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\><~|&;$*?#()`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

// commandLine renders a Windows command line. Env is not representable
// and must be carried by the arguments.
func commandLine(e Entry) string {
	parts := []string{windowsQuote(e.Executable)}
	for _, a := range e.Args {
		parts = append(parts, windowsQuote(a))
	}
	return strings.Join(parts, " ")
}

func windowsQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
