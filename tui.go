package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"uvhotkey/config"
	"uvhotkey/registry"
)

// TUI message types
type BindingsMsg struct {
	Bindings   []config.Binding
	Registered int
}
type LaunchMsg struct{ Event registry.LaunchEvent }
type statusMsg string

const maxLaunches = 8

// tuiActions are the registry operations the TUI can trigger.
type tuiActions struct {
	run      func(index int)
	reload   func() bool
	openLogs func() error
	dataDir  string
}

type tuiModel struct {
	actions       tuiActions
	bindings      []config.Binding
	registered    int
	cursor        int
	launches      []registry.LaunchEvent // newest first
	status        string
	width, height int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func NewTUIProgram(actions tuiActions) *tea.Program {
	m := tuiModel{actions: actions}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func setTUIProgram(p *tea.Program) {
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards registry events to the running program.
type tuiSink struct{}

func (tuiSink) BindingsChanged(bindings []config.Binding, registered int) {
	tuiSend(BindingsMsg{Bindings: bindings, Registered: registered})
}

func (tuiSink) Launched(ev registry.LaunchEvent) {
	tuiSend(LaunchMsg{Event: ev})
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case BindingsMsg:
		m.bindings = msg.Bindings
		m.registered = msg.Registered
		if m.cursor >= len(m.bindings) {
			m.cursor = max(len(m.bindings)-1, 0)
		}

	case LaunchMsg:
		m.launches = append([]registry.LaunchEvent{msg.Event}, m.launches...)
		if len(m.launches) > maxLaunches {
			m.launches = m.launches[:maxLaunches]
		}

	case statusMsg:
		m.status = string(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.bindings)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.bindings) == 0 || m.actions.run == nil {
			return m, nil
		}
		i := m.cursor
		run := m.actions.run
		return m, func() tea.Msg {
			run(i)
			return nil
		}
	case "r":
		if m.actions.reload == nil {
			return m, nil
		}
		reload := m.actions.reload
		return m, func() tea.Msg {
			if reload() {
				return statusMsg("reloaded config.json")
			}
			return statusMsg("config.json unchanged")
		}
	case "o":
		if m.actions.openLogs == nil {
			return m, nil
		}
		open := m.actions.openLogs
		return m, func() tea.Msg {
			if err := open(); err != nil {
				return statusMsg("open logs: " + err.Error())
			}
			return statusMsg("opened logs folder")
		}
	case "c":
		if len(m.launches) == 0 || m.launches[0].LogPath == "" {
			return m, nil
		}
		path := m.launches[0].LogPath
		return m, func() tea.Msg {
			if err := clipboard.WriteAll(path); err != nil {
				return statusMsg("clipboard: " + err.Error())
			}
			return statusMsg("copied " + filepath.Base(path))
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Header
	title := titleStyle.Render("uv-hotkey " + version)
	count := fmt.Sprintf("%d/%d hotkeys registered", m.registered, activeCount(m.bindings))
	countStyle := okStyle
	if m.registered < activeCount(m.bindings) {
		countStyle = warnStyle
	}
	gap := m.width - lipgloss.Width(title) - len(count) - 2
	if gap < 1 {
		gap = 1
	}
	b.WriteString(" " + title + strings.Repeat(" ", gap) + countStyle.Render(count) + "\n")
	if m.actions.dataDir != "" {
		b.WriteString(" " + dimStyle.Render("data: "+m.actions.dataDir) + "\n")
	}
	b.WriteString("\n")

	// Bindings table
	if len(m.bindings) == 0 {
		b.WriteString(" " + dimStyle.Render("No hotkeys yet. Add one with: uv-hotkey add --hotkey ctrl+alt+t --script path/to/script.py") + "\n")
	} else {
		const hotkeyW, nameW, envW = 18, 18, 16
		scriptW := max(m.width-hotkeyW-nameW-envW-10, 10)
		b.WriteString(headerStyle.Render(fmt.Sprintf("   %-3s %-*s %-*s %-*s %s", "#", hotkeyW, "HOTKEY", nameW, "NAME", envW, "ENV", "SCRIPT")) + "\n")
		for i, bd := range m.bindings {
			hk := bd.Hotkey
			if hk == "" {
				hk = "-"
			}
			line := fmt.Sprintf("%-3d %-*s %-*s %-*s %s", i+1,
				hotkeyW, truncate(hk, hotkeyW),
				nameW, truncate(bd.Name, nameW),
				envW, truncate(config.EnvSummary(bd.EnvVars), envW),
				truncateLeft(bd.ScriptPath, scriptW))
			if i == m.cursor {
				b.WriteString(selectedStyle.Render(" > "+line) + "\n")
			} else if !bd.Active() {
				b.WriteString(dimStyle.Render("   "+line) + "\n")
			} else {
				b.WriteString("   " + line + "\n")
			}
		}
	}
	b.WriteString("\n")

	// Recent launches
	b.WriteString(" " + headerStyle.Render("Recent launches") + "\n")
	if len(m.launches) == 0 {
		b.WriteString(" " + dimStyle.Render("None yet") + "\n")
	}
	for _, ev := range m.launches {
		at := dimStyle.Render(ev.At.Format("15:04:05"))
		if ev.Err != nil {
			b.WriteString(fmt.Sprintf(" %s %s %s %s\n", at, errStyle.Render("✗"), ev.Binding.Name, errStyle.Render(ev.Err.Error())))
			continue
		}
		b.WriteString(fmt.Sprintf(" %s %s %s %s\n", at, okStyle.Render("✓"), ev.Binding.Name,
			dimStyle.Render(fmt.Sprintf("pid %d → %s", ev.Pid, filepath.Base(ev.LogPath)))))
	}

	if m.status != "" {
		b.WriteString("\n " + dimStyle.Render(m.status) + "\n")
	}

	// Help line
	help := []string{
		keyStyle.Render("↑/↓") + helpStyle.Render(" select"),
		keyStyle.Render("enter") + helpStyle.Render(" run"),
		keyStyle.Render("r") + helpStyle.Render(" reload"),
		keyStyle.Render("o") + helpStyle.Render(" logs"),
		keyStyle.Render("c") + helpStyle.Render(" copy log path"),
		keyStyle.Render("q") + helpStyle.Render(" quit"),
	}
	body := b.String()
	pad := m.height - strings.Count(body, "\n") - 1
	if pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	return body + " " + strings.Join(help, helpStyle.Render(" · "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// truncateLeft keeps the tail of s, which for paths is the useful part.
func truncateLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[len(r)-n:])
	}
	return "…" + string(r[len(r)-n+1:])
}
